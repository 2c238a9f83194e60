package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/ignite/commerce-insights/internal/domain"
	"github.com/ignite/commerce-insights/internal/service/campaign"
)

// foreign_key_violation
const pqForeignKeyViolation = "23503"

// CampaignRepo implements campaign.Repository against PostgreSQL.
type CampaignRepo struct{ db *sql.DB }

// NewCampaignRepo creates a Postgres-backed campaign repository.
func NewCampaignRepo(db *sql.DB) *CampaignRepo { return &CampaignRepo{db: db} }

const campaignColumns = `campaign_id, name, COALESCE(description,''), channel_id, segment_id,
		       budget, start_date, end_date, created_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCampaign(s rowScanner, c *domain.Campaign) error {
	var channelID, segmentID sql.NullString
	if err := s.Scan(&c.ID, &c.Name, &c.Description, &channelID, &segmentID,
		&c.Budget, &c.StartDate, &c.EndDate, &c.CreatedAt); err != nil {
		return err
	}
	if channelID.Valid {
		c.ChannelID = &channelID.String
	}
	if segmentID.Valid {
		c.SegmentID = &segmentID.String
	}
	return nil
}

func (r *CampaignRepo) Get(ctx context.Context, id string) (*domain.Campaign, error) {
	c := &domain.Campaign{}
	row := r.db.QueryRowContext(ctx, `SELECT `+campaignColumns+` FROM campaigns WHERE campaign_id = $1`, id)
	err := scanCampaign(row, c)
	if err == sql.ErrNoRows {
		return nil, campaign.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get campaign: %w", err)
	}
	return c, nil
}

func (r *CampaignRepo) List(ctx context.Context, f campaign.ListFilter) ([]domain.Campaign, int, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}

	a := &args{ph: Dollar}
	var conds []string
	if f.SegmentID != "" {
		conds = append(conds, "segment_id = "+a.add(f.SegmentID))
	}
	if f.ChannelID != "" {
		conds = append(conds, "channel_id = "+a.add(f.ChannelID))
	}
	filter := where(conds)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM campaigns`+filter, a.vals...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count campaigns: %w", err)
	}

	q := `SELECT ` + campaignColumns + ` FROM campaigns` + filter
	q += fmt.Sprintf(" ORDER BY start_date DESC LIMIT %s OFFSET %s", a.add(limit), a.add(f.Offset))

	rows, err := r.db.QueryContext(ctx, q, a.vals...)
	if err != nil {
		return nil, 0, fmt.Errorf("list campaigns: %w", err)
	}
	defer rows.Close()

	var out []domain.Campaign
	for rows.Next() {
		var c domain.Campaign
		if err := scanCampaign(rows, &c); err != nil {
			return nil, 0, fmt.Errorf("scan campaign: %w", err)
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

func (r *CampaignRepo) Create(ctx context.Context, c *domain.Campaign) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO campaigns
			(campaign_id, name, description, channel_id, segment_id, budget, start_date, end_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		RETURNING created_at
	`, c.ID, c.Name, c.Description, c.ChannelID, c.SegmentID,
		c.Budget, c.StartDate, c.EndDate).Scan(&c.CreatedAt)
	if isForeignKeyViolation(err) {
		if violatedConstraint(err) == "campaigns_channel_id_fkey" {
			return campaign.ErrUnknownChannel
		}
		return campaign.ErrUnknownSegment
	}
	if err != nil {
		return fmt.Errorf("create campaign: %w", err)
	}
	return nil
}

func (r *CampaignRepo) Update(ctx context.Context, id string, u campaign.UpdateFields) error {
	a := &args{ph: Dollar}
	var sets []string
	set := func(col string, val interface{}) {
		sets = append(sets, col+" = "+a.add(val))
	}

	if u.Name != nil {
		set("name", *u.Name)
	}
	if u.Description != nil {
		set("description", *u.Description)
	}
	if u.Budget != nil {
		set("budget", *u.Budget)
	}
	if u.StartDate != nil {
		set("start_date", *u.StartDate)
	}
	if u.EndDate != nil {
		set("end_date", *u.EndDate)
	}
	if len(sets) == 0 {
		return nil
	}

	q := fmt.Sprintf("UPDATE campaigns SET %s WHERE campaign_id = %s", strings.Join(sets, ", "), a.add(id))
	res, err := r.db.ExecContext(ctx, q, a.vals...)
	if err != nil {
		return fmt.Errorf("update campaign: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return campaign.ErrNotFound
	}
	return nil
}

func (r *CampaignRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM campaigns WHERE campaign_id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete campaign: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return campaign.ErrNotFound
	}
	return nil
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqForeignKeyViolation
}

func violatedConstraint(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Constraint
	}
	return ""
}
