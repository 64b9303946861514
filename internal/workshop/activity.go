package workshop

import (
	"fmt"
	"slices"
	"time"
)

const activityLimit = 100

// activityLog keeps the most recent user-facing messages, newest first.
type activityLog struct {
	lines []string
}

func (a *activityLog) add(now time.Time, format string, args ...any) {
	line := fmt.Sprintf("[%s] %s", now.Format("15:04:05"), fmt.Sprintf(format, args...))
	a.lines = slices.Insert(a.lines, 0, line)
	if len(a.lines) > activityLimit {
		a.lines = a.lines[:activityLimit]
	}
}

func (a *activityLog) list() []string {
	return slices.Clone(a.lines)
}
