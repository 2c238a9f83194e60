package segment

import (
	"context"

	"github.com/ignite/commerce-insights/internal/domain"
)

// Repository defines the data access contract for segments.
// Implementations must be safe for concurrent use.
type Repository interface {
	// Get returns a segment with its member count. Returns ErrNotFound if it
	// doesn't exist.
	Get(ctx context.Context, id string) (*domain.Segment, error)

	// List returns all segments with member counts, newest first.
	List(ctx context.Context) ([]domain.Segment, error)

	// CreateWithMembers inserts the segment and one membership row per
	// customer id atomically. On error nothing is persisted.
	CreateWithMembers(ctx context.Context, s *domain.Segment, customerIDs []string) error

	// UpdateMeta changes name and/or description. Membership is untouched.
	UpdateMeta(ctx context.Context, id string, u UpdateFields) error

	// DeleteWithMembers removes membership rows and then the segment,
	// atomically. Returns *ConflictError if a campaign references it.
	DeleteWithMembers(ctx context.Context, id string) error

	// Members returns the customer records of a segment ordered by id.
	Members(ctx context.Context, id string) ([]domain.Customer, error)
}

// UpdateFields holds the mutable segment metadata. Nil fields are not applied.
type UpdateFields struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}
