package domain

import "time"

// Segment is a named, persisted set of customers matching selection
// criteria. Membership is fixed at creation.
type Segment struct {
	ID          string    `json:"segment_id" db:"segment_id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	MemberCount int       `json:"member_count" db:"member_count"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
