package snowflake

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/snowflakedb/gosnowflake"

	"github.com/ignite/commerce-insights/internal/repository/postgres"
)

// Client provides read access to the analytics tables replicated into
// Snowflake. The tables mirror the operational schema, so the shared read
// queries run unchanged with positional parameters.
type Client struct {
	config Config
	db     *sql.DB
}

// DSN renders cfg as a gosnowflake data source name.
func DSN(cfg Config) (string, error) {
	return gosnowflake.DSN(&gosnowflake.Config{
		Account:   cfg.Account,
		User:      cfg.User,
		Password:  cfg.Password,
		Database:  cfg.Database,
		Schema:    cfg.Schema,
		Warehouse: cfg.Warehouse,
	})
}

// NewClient opens a pooled Snowflake connection.
func NewClient(cfg Config) (*Client, error) {
	dsn, err := DSN(cfg)
	if err != nil {
		return nil, fmt.Errorf("build snowflake dsn: %w", err)
	}

	db, err := sql.Open("snowflake", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open snowflake connection: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	return newClient(cfg, db), nil
}

func newClient(cfg Config, db *sql.DB) *Client {
	return &Client{config: cfg, db: db}
}

// Close closes the database connection
func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Ping tests the database connection
func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// Orders returns an order reader backed by the warehouse.
func (c *Client) Orders() *postgres.OrderRepo {
	return postgres.NewOrderRepo(c.db, postgres.Question)
}

// Customers returns a customer reader backed by the warehouse.
func (c *Client) Customers() *postgres.CustomerRepo {
	return postgres.NewCustomerRepo(c.db, postgres.Question)
}

// Insights returns a review/prediction/affinity reader backed by the
// warehouse.
func (c *Client) Insights() *postgres.InsightsRepo {
	return postgres.NewInsightsRepo(c.db)
}
