package models

import "time"

// Event types recorded in the feed audit log.
const (
	EventDispensed = "dispensed"
	EventDenied    = "denied"
)

// Pet binds an RFID tag to a feeding policy. TagID is unique across all
// pets; policy fields are replaced wholesale, never patched.
type Pet struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Name            string    `gorm:"size:255" json:"name"`
	TagID           string    `gorm:"uniqueIndex;size:128" json:"tag_id"`
	PortionSeconds  int       `json:"portion_seconds"`
	CooldownMinutes int       `json:"cooldown_minutes"`
	MaxDailyFeeds   int       `json:"max_daily_feeds"`
	CreatedAt       time.Time `json:"created_at"`
}

// FeedEvent is one append-only audit record. PetID is nil for scans of
// unknown tags. PetName is denormalized so the activity view needs no join.
type FeedEvent struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	PetID     *uint     `gorm:"index" json:"pet_id,omitempty"`
	PetName   string    `gorm:"size:255" json:"pet_name,omitempty"`
	EventType string    `gorm:"size:32;index" json:"event_type"`
	Details   string    `gorm:"size:255" json:"details"`
	CreatedAt time.Time `json:"created_at"`
}

// TimeNow is a helper to return current time; all event timestamps go
// through it so the log carries a single UTC representation.
func TimeNow() time.Time { return time.Now().UTC() }
