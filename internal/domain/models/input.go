package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// LooseNumber accepts a JSON number, a numeric string, an empty string or null.
// It keeps the raw text so each field can apply its own sanitation rule.
type LooseNumber struct {
	raw string
	set bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *LooseNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = LooseNumber{}
		return nil
	}

	var s string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
	} else {
		s = string(data)
	}

	*n = LooseNumber{raw: strings.TrimSpace(s), set: true}
	return nil
}

// Loose builds a LooseNumber from raw text, mainly for tests and query params.
func Loose(raw string) LooseNumber {
	return LooseNumber{raw: strings.TrimSpace(raw), set: true}
}

// Provided reports whether the field was present and non-null.
func (n LooseNumber) Provided() bool {
	return n.set
}

func (n LooseNumber) float() (float64, bool) {
	if !n.set || n.raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(n.raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Count sanitizes slot and inventory inputs: invalid, empty or negative values
// become 0 and fractions are floored.
func (n LooseNumber) Count() int {
	v, ok := n.float()
	if !ok || v <= 0 {
		return 0
	}
	if v > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(math.Floor(v))
}

// Percent sanitizes bonus inputs: empty or invalid values are unset (nil),
// negative values are clamped to 0.
func (n LooseNumber) Percent() *float64 {
	v, ok := n.float()
	if !ok {
		return nil
	}
	if v < 0 {
		v = 0
	}
	return &v
}
