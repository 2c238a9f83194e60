package domain

import (
	"time"
)

// Campaign is a marketing campaign run on a sales channel against a
// customer segment. A segment referenced by any campaign cannot be deleted.
type Campaign struct {
	ID          string    `json:"campaign_id" db:"campaign_id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	ChannelID   *string   `json:"channel_id" db:"channel_id"`
	SegmentID   *string   `json:"segment_id" db:"segment_id"`
	Budget      float64   `json:"budget" db:"budget"`
	StartDate   time.Time `json:"start_date" db:"start_date"`
	EndDate     time.Time `json:"end_date" db:"end_date"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// IsActive reports whether the campaign runs at the given instant.
func (c *Campaign) IsActive(at time.Time) bool {
	return !at.Before(c.StartDate) && !at.After(c.EndDate)
}

// Channel is a sales channel (web shop, marketplace, retail store).
type Channel struct {
	ID   string `json:"channel_id" db:"channel_id"`
	Name string `json:"name" db:"name"`
}
