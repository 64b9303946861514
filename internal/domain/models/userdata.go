package models

import "time"

// UserData is the flat settings record stored per user.
type UserData struct {
	UserID        string    `json:"userId" bson:"user_id" binding:"required"`
	TargetSlots   int       `json:"targetSlots" bson:"target_slots"`
	OwnedRare     int       `json:"ownedRare" bson:"owned_rare"`
	OwnedUncommon int       `json:"ownedUncommon" bson:"owned_uncommon"`
	OwnedCommon   int       `json:"ownedCommon" bson:"owned_common"`
	UpdatedAt     time.Time `json:"updatedAt" bson:"updated_at"`
}

// DefaultUserData is returned for users that have never saved settings.
func DefaultUserData(userID string) UserData {
	return UserData{
		UserID:      userID,
		TargetSlots: 1,
	}
}
