package model

import "time"

// Change event types.
const (
	EventInsert = "insert"
	EventUpdate = "update"
	EventDelete = "delete"
)

// ChangeEvent notifies an owner that one of their cards changed.
type ChangeEvent struct {
	ID      string    `json:"id"`
	Type    string    `json:"type"`
	OwnerID int64     `json:"owner_id"`
	CardID  int64     `json:"card_id"`
	At      time.Time `json:"at"`
}
