package campaign

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ignite/commerce-insights/internal/domain"
	"github.com/ignite/commerce-insights/internal/pkg/logger"
)

// Service implements campaign business logic. All public methods are safe
// for concurrent use if the underlying repository is concurrency-safe.
type Service struct {
	repo Repository
}

// NewService creates a campaign service backed by the given repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get returns a single campaign.
func (s *Service) Get(ctx context.Context, id string) (*domain.Campaign, error) {
	return s.repo.Get(ctx, id)
}

// List returns campaigns matching the filter.
func (s *Service) List(ctx context.Context, f ListFilter) ([]domain.Campaign, int, error) {
	if f.Limit <= 0 || f.Limit > 200 {
		f.Limit = 50
	}
	return s.repo.List(ctx, f)
}

// Create validates and persists a new campaign.
func (s *Service) Create(ctx context.Context, input CreateInput) (*domain.Campaign, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if err := validateSchedule(input.Budget, input.StartDate, input.EndDate); err != nil {
		return nil, err
	}

	c := &domain.Campaign{
		ID:          uuid.New().String(),
		Name:        input.Name,
		Description: input.Description,
		Budget:      input.Budget,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
	}
	if input.ChannelID != "" {
		c.ChannelID = &input.ChannelID
	}
	if input.SegmentID != "" {
		c.SegmentID = &input.SegmentID
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	logger.Info("campaign created", "campaign_id", c.ID, "segment_id", input.SegmentID)
	return c, nil
}

// Update modifies mutable campaign fields after re-validating the
// resulting budget and schedule.
func (s *Service) Update(ctx context.Context, id string, u UpdateFields) error {
	if u.Name != nil && strings.TrimSpace(*u.Name) == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidInput)
	}
	if u.Budget != nil || u.StartDate != nil || u.EndDate != nil {
		cur, err := s.repo.Get(ctx, id)
		if err != nil {
			return err
		}
		budget, start, end := cur.Budget, cur.StartDate, cur.EndDate
		if u.Budget != nil {
			budget = *u.Budget
		}
		if u.StartDate != nil {
			start = *u.StartDate
		}
		if u.EndDate != nil {
			end = *u.EndDate
		}
		if err := validateSchedule(budget, start, end); err != nil {
			return err
		}
	}
	return s.repo.Update(ctx, id, u)
}

// Delete removes a campaign, releasing its segment reference.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func validateSchedule(budget float64, start, end time.Time) error {
	if budget < 0 {
		return fmt.Errorf("%w: budget must not be negative", ErrInvalidInput)
	}
	if start.IsZero() || end.IsZero() {
		return fmt.Errorf("%w: start and end dates are required", ErrInvalidInput)
	}
	if end.Before(start) {
		return fmt.Errorf("%w: end date before start date", ErrInvalidInput)
	}
	return nil
}

// CreateInput holds the fields for creating a new campaign.
type CreateInput struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	ChannelID   string    `json:"channel_id"`
	SegmentID   string    `json:"segment_id"`
	Budget      float64   `json:"budget"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
}
