package segment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ignite/commerce-insights/internal/domain"
	"github.com/ignite/commerce-insights/internal/metrics"
	"github.com/ignite/commerce-insights/internal/pkg/distlock"
	"github.com/ignite/commerce-insights/internal/pkg/logger"
	"github.com/ignite/commerce-insights/internal/segmentation"
)

// Resolver turns criteria into member ids.
type Resolver interface {
	Resolve(ctx context.Context, c segmentation.Criteria, ref time.Time) ([]string, error)
}

// Locker hands out named locks.
type Locker interface {
	Lock(key string) distlock.DistLock
}

// Service implements segment business logic.
type Service struct {
	repo     Repository
	resolver Resolver
	locker   Locker
	now      func() time.Time
}

// NewService creates a segment service. locker may be nil, in which case
// concurrent creations are not serialized.
func NewService(repo Repository, resolver Resolver, locker Locker) *Service {
	return &Service{repo: repo, resolver: resolver, locker: locker, now: time.Now}
}

// CreateInput holds the fields for creating a new segment.
type CreateInput struct {
	Name        string                `json:"name"`
	Description string                `json:"description"`
	Criteria    segmentation.Criteria `json:"criteria"`
}

// Create resolves members as of ref and persists the segment with its
// membership. Nothing is persisted unless every step succeeds.
func (s *Service) Create(ctx context.Context, in CreateInput, ref time.Time) (*domain.Segment, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if err := in.Criteria.Validate(); err != nil {
		return nil, err
	}

	if s.locker != nil {
		lock := s.locker.Lock("segment:create:" + strings.ToLower(in.Name))
		ok, err := lock.Acquire(ctx)
		if err != nil {
			return nil, fmt.Errorf("create segment lock: %w", err)
		}
		if !ok {
			return nil, ErrCreateInProgress
		}
		defer func() {
			if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
				logger.Warn("segment create lock release failed", "name", in.Name, "error", err)
			}
		}()
	}

	ids, err := s.resolver.Resolve(ctx, in.Criteria, ref)
	if err != nil {
		metrics.SegmentOperations.WithLabelValues("create", "fetch_error").Inc()
		return nil, err
	}

	seg := &domain.Segment{
		ID:          uuid.New().String(),
		Name:        in.Name,
		Description: in.Description,
		MemberCount: len(ids),
		CreatedAt:   s.now().UTC(),
	}
	if err := s.repo.CreateWithMembers(ctx, seg, ids); err != nil {
		metrics.SegmentOperations.WithLabelValues("create", "error").Inc()
		return nil, fmt.Errorf("create segment: %w", err)
	}

	metrics.SegmentOperations.WithLabelValues("create", "ok").Inc()
	metrics.SegmentMembers.Observe(float64(len(ids)))
	logger.Info("segment created", "segment_id", seg.ID, "members", len(ids))
	return seg, nil
}

// Preview counts the customers matching c as of ref without persisting
// anything.
func (s *Service) Preview(ctx context.Context, c segmentation.Criteria, ref time.Time) (int, error) {
	if err := c.Validate(); err != nil {
		return 0, err
	}
	ids, err := s.resolver.Resolve(ctx, c, ref)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

// Get returns a single segment.
func (s *Service) Get(ctx context.Context, id string) (*domain.Segment, error) {
	return s.repo.Get(ctx, id)
}

// List returns every segment.
func (s *Service) List(ctx context.Context) ([]domain.Segment, error) {
	return s.repo.List(ctx)
}

// Update changes segment metadata.
func (s *Service) Update(ctx context.Context, id string, u UpdateFields) error {
	if u.Name != nil {
		name := strings.TrimSpace(*u.Name)
		if name == "" {
			return fmt.Errorf("%w: name cannot be empty", ErrInvalidInput)
		}
		u.Name = &name
	}
	if u.Name == nil && u.Description == nil {
		return nil
	}
	return s.repo.UpdateMeta(ctx, id, u)
}

// Delete removes a segment and its membership. Returns *ConflictError while
// campaigns reference it.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.DeleteWithMembers(ctx, id); err != nil {
		metrics.SegmentOperations.WithLabelValues("delete", "error").Inc()
		return err
	}
	metrics.SegmentOperations.WithLabelValues("delete", "ok").Inc()
	logger.Info("segment deleted", "segment_id", id)
	return nil
}

// Members returns the customers in a segment.
func (s *Service) Members(ctx context.Context, id string) ([]domain.Customer, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.Members(ctx, id)
}
