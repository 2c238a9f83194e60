package campaign

import (
	"context"
	"time"

	"github.com/ignite/commerce-insights/internal/domain"
)

// Repository defines the data access contract for campaigns.
// Implementations must be safe for concurrent use.
type Repository interface {
	// Get returns a single campaign. Returns ErrNotFound if it doesn't exist.
	Get(ctx context.Context, id string) (*domain.Campaign, error)

	// List returns campaigns matching the given filter, ordered by start_date DESC.
	List(ctx context.Context, filter ListFilter) ([]domain.Campaign, int, error)

	// Create inserts a new campaign. Returns ErrUnknownSegment if the
	// referenced segment does not exist and ErrUnknownChannel for an unknown
	// sales channel.
	Create(ctx context.Context, c *domain.Campaign) error

	// Update modifies a campaign. Only non-nil fields in the update are applied.
	Update(ctx context.Context, id string, u UpdateFields) error

	// Delete removes a campaign.
	Delete(ctx context.Context, id string) error
}

// ListFilter controls pagination and filtering for campaign lists.
type ListFilter struct {
	SegmentID string
	ChannelID string
	Limit     int
	Offset    int
}

// UpdateFields holds the mutable fields for a campaign update.
// Nil fields are not applied.
type UpdateFields struct {
	Name        *string    `json:"name"`
	Description *string    `json:"description"`
	Budget      *float64   `json:"budget"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
}
