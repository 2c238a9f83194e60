package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/ignite/commerce-insights/internal/domain"
	"github.com/ignite/commerce-insights/internal/service/segment"
)

// SegmentRepo implements segment.Repository against PostgreSQL.
type SegmentRepo struct{ db *sql.DB }

// NewSegmentRepo creates a Postgres-backed segment repository.
func NewSegmentRepo(db *sql.DB) *SegmentRepo { return &SegmentRepo{db: db} }

const segmentSelect = `
		SELECT s.segment_id, s.name, COALESCE(s.description,''), s.created_at,
		       (SELECT COUNT(*) FROM customer_segments cs WHERE cs.segment_id = s.segment_id)
		FROM segments s`

func (r *SegmentRepo) Get(ctx context.Context, id string) (*domain.Segment, error) {
	s := &domain.Segment{}
	err := r.db.QueryRowContext(ctx, segmentSelect+` WHERE s.segment_id = $1`, id).
		Scan(&s.ID, &s.Name, &s.Description, &s.CreatedAt, &s.MemberCount)
	if err == sql.ErrNoRows {
		return nil, segment.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get segment: %w", err)
	}
	return s, nil
}

func (r *SegmentRepo) List(ctx context.Context) ([]domain.Segment, error) {
	rows, err := r.db.QueryContext(ctx, segmentSelect+` ORDER BY s.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list segments: %w", err)
	}
	defer rows.Close()

	var out []domain.Segment
	for rows.Next() {
		var s domain.Segment
		if err := rows.Scan(&s.ID, &s.Name, &s.Description, &s.CreatedAt, &s.MemberCount); err != nil {
			return nil, fmt.Errorf("scan segment: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// CreateWithMembers writes the segment row and all membership rows in one
// transaction.
func (r *SegmentRepo) CreateWithMembers(ctx context.Context, s *domain.Segment, customerIDs []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO segments (segment_id, name, description, created_at)
		VALUES ($1, $2, $3, $4)
	`, s.ID, s.Name, s.Description, s.CreatedAt); err != nil {
		return fmt.Errorf("insert segment: %w", err)
	}

	if len(customerIDs) > 0 {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO customer_segments (segment_id, customer_id)
			SELECT $1, unnest($2::text[])
			ON CONFLICT DO NOTHING
		`, s.ID, pq.Array(customerIDs)); err != nil {
			return fmt.Errorf("insert segment members: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit segment: %w", err)
	}
	s.MemberCount = len(customerIDs)
	return nil
}

func (r *SegmentRepo) UpdateMeta(ctx context.Context, id string, u segment.UpdateFields) error {
	a := &args{ph: Dollar}
	var sets []string
	if u.Name != nil {
		sets = append(sets, "name = "+a.add(*u.Name))
	}
	if u.Description != nil {
		sets = append(sets, "description = "+a.add(*u.Description))
	}
	if len(sets) == 0 {
		return nil
	}

	q := fmt.Sprintf("UPDATE segments SET %s WHERE segment_id = %s", strings.Join(sets, ", "), a.add(id))
	res, err := r.db.ExecContext(ctx, q, a.vals...)
	if err != nil {
		return fmt.Errorf("update segment: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return segment.ErrNotFound
	}
	return nil
}

// DeleteWithMembers locks the segment row, refuses when campaigns reference
// it, then removes memberships before the segment itself.
func (r *SegmentRepo) DeleteWithMembers(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var locked string
	err = tx.QueryRowContext(ctx, `SELECT segment_id FROM segments WHERE segment_id = $1 FOR UPDATE`, id).Scan(&locked)
	if err == sql.ErrNoRows {
		return segment.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("lock segment: %w", err)
	}

	rows, err := tx.QueryContext(ctx, `SELECT campaign_id FROM campaigns WHERE segment_id = $1 ORDER BY campaign_id`, id)
	if err != nil {
		return fmt.Errorf("referencing campaigns: %w", err)
	}
	var refs []string
	for rows.Next() {
		var cid string
		if err := rows.Scan(&cid); err != nil {
			rows.Close()
			return fmt.Errorf("scan campaign id: %w", err)
		}
		refs = append(refs, cid)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("referencing campaigns: %w", err)
	}
	if len(refs) > 0 {
		return &segment.ConflictError{SegmentID: id, CampaignIDs: refs}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM customer_segments WHERE segment_id = $1`, id); err != nil {
		return fmt.Errorf("delete segment members: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM segments WHERE segment_id = $1`, id); err != nil {
		if isForeignKeyViolation(err) {
			return &segment.ConflictError{SegmentID: id}
		}
		return fmt.Errorf("delete segment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}
	return nil
}

func (r *SegmentRepo) Members(ctx context.Context, id string) ([]domain.Customer, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.customer_id, COALESCE(c.name,''), COALESCE(c.phone,''), COALESCE(c.email,''),
		       COALESCE(c.gender,''), c.date_of_birth
		FROM customer_segments cs
		JOIN customers c ON c.customer_id = cs.customer_id
		WHERE cs.segment_id = $1
		ORDER BY c.customer_id
	`, id)
	if err != nil {
		return nil, fmt.Errorf("segment members: %w", err)
	}
	defer rows.Close()

	var out []domain.Customer
	for rows.Next() {
		var (
			c   domain.Customer
			dob sql.NullTime
		)
		if err := rows.Scan(&c.CustomerID, &c.Name, &c.Phone, &c.Email, &c.Gender, &dob); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		if dob.Valid {
			c.DateOfBirth = dob.Time
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
