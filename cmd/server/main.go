package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/ignite/commerce-insights/internal/api"
	"github.com/ignite/commerce-insights/internal/cache"
	"github.com/ignite/commerce-insights/internal/config"
	"github.com/ignite/commerce-insights/internal/export"
	"github.com/ignite/commerce-insights/internal/ingest"
	"github.com/ignite/commerce-insights/internal/pkg/distlock"
	"github.com/ignite/commerce-insights/internal/pkg/logger"
	"github.com/ignite/commerce-insights/internal/repository/postgres"
	"github.com/ignite/commerce-insights/internal/segmentation"
	"github.com/ignite/commerce-insights/internal/service/campaign"
	"github.com/ignite/commerce-insights/internal/service/dashboard"
	"github.com/ignite/commerce-insights/internal/service/segment"
	"github.com/ignite/commerce-insights/internal/snowflake"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	applySnowflakeConnectionString(&cfg.Snowflake)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(logOptions(cfg.Log)); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg); err != nil {
		logger.Error("server exited", "error", err)
		logger.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := openDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()
	logger.Info("database connected")

	redisClient := connectRedis(ctx, cfg.Redis)
	if redisClient != nil {
		defer redisClient.Close()
	}

	var store cache.Store = cache.Nop{}
	if redisClient != nil {
		store = cache.NewRedisStore(redisClient, cfg.Cache.KeyPrefix, cfg.Cache.TTL())
	}

	// Read side: Postgres by default, the warehouse when configured.
	orders := postgres.NewOrderRepo(db, postgres.Dollar)
	customers := postgres.NewCustomerRepo(db, postgres.Dollar)
	sources := dashboard.Sources{
		Orders:    orders,
		Customers: customers,
		Insights:  postgres.NewInsightsRepo(db),
	}
	var segmentSource segmentation.CustomerSource = customers
	var warehouse api.Pinger

	if cfg.Analytics.Source == "snowflake" {
		sf, err := snowflake.NewClient(snowflake.Config{
			Account:   cfg.Snowflake.Account,
			User:      cfg.Snowflake.User,
			Password:  cfg.Snowflake.Password,
			Database:  cfg.Snowflake.Database,
			Schema:    cfg.Snowflake.Schema,
			Warehouse: cfg.Snowflake.Warehouse,
		})
		if err != nil {
			return fmt.Errorf("snowflake: %w", err)
		}
		defer sf.Close()
		sources = dashboard.Sources{Orders: sf.Orders(), Customers: sf.Customers(), Insights: sf.Insights()}
		segmentSource = sf.Customers()
		warehouse = sf
		logger.Info("analytics reads served from snowflake", "account", cfg.Snowflake.Account)
	}

	dashboardSvc := dashboard.NewService(sources, store, dashboard.Options{
		TopN:             cfg.Analytics.TopN,
		HistogramBuckets: cfg.Analytics.HistogramBuckets,
	})

	engine := segmentation.NewEngine(segmentSource, segmentation.Options{
		EnforceCustomerType: cfg.Segments.EnforceCustomerType,
	})
	locker := distlock.NewLocker(redisClient, db, cfg.Segments.CreateLockTTL())
	segmentSvc := segment.NewService(postgres.NewSegmentRepo(db), engine, locker)
	campaignSvc := campaign.NewService(postgres.NewCampaignRepo(db))

	deps := api.Deps{
		Dashboard: dashboardSvc,
		Segments:  segmentSvc,
		Campaigns: campaignSvc,
	}
	if ref, ok, _ := cfg.Analytics.ReferenceTime(); ok {
		deps.Reference = ref
		logger.Info("reference date pinned", "reference_date", cfg.Analytics.ReferenceDate)
	}

	var bucketCheck api.BucketHeader
	if cfg.Export.Enabled {
		uploader, s3Client, err := newUploader(ctx, cfg.Export)
		if err != nil {
			return fmt.Errorf("export: %w", err)
		}
		deps.Exporter = uploader
		bucketCheck = s3Client
		logger.Info("segment export enabled", "bucket", cfg.Export.Bucket, "manifest_table", cfg.Export.ManifestTable)
	}

	health := api.NewHealthChecker(db, redisClient, bucketCheck, cfg.Export.Bucket, warehouse)
	server := api.NewServer(cfg.Server, api.NewHandlers(deps), health)

	if cfg.Ingest.Enabled {
		log := logger.Named("ingest")
		reader, err := ingest.NewReader(cfg.Ingest, log)
		if err != nil {
			return err
		}
		consumer := ingest.NewConsumer(reader, orders, store, log)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("order consumer stopped", "error", err)
			}
		}()
		logger.Info("order ingestion started", "topic", cfg.Ingest.Topic, "group_id", cfg.Ingest.GroupID)
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", cfg.Server.Addr())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	select {
	case <-done:
		logger.Info("shutting down")
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout())
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

func openDatabase(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime())

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// connectRedis returns nil when Redis is unset or unreachable. Without it
// the dashboard is uncached and segment creation locks fall back to
// PostgreSQL advisory locks.
func connectRedis(ctx context.Context, cfg config.RedisConfig) *redis.Client {
	if cfg.URL == "" {
		logger.Info("redis not configured, dashboard cache disabled")
		return nil
	}

	var client *redis.Client
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		client = redis.NewClient(&redis.Options{Addr: cfg.URL})
	} else {
		client = redis.NewClient(opts)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis connection failed, falling back to advisory locks", "error", err)
		client.Close()
		return nil
	}
	logger.Info("redis connected")
	return client
}

func newUploader(ctx context.Context, cfg config.ExportConfig) (*export.Uploader, api.BucketHeader, error) {
	awsCfg, err := export.LoadAWSConfig(ctx, export.AWSOptions{
		Region:  cfg.Region,
		Profile: cfg.AWSProfile,
	})
	if err != nil {
		return nil, nil, err
	}
	keys, err := export.NewKeyRenderer(cfg.KeyTemplate)
	if err != nil {
		return nil, nil, err
	}
	s3Client, ddb := export.NewClients(awsCfg)
	return export.NewUploader(s3Client, ddb, cfg.Bucket, cfg.ManifestTable, keys), s3Client, nil
}

// applySnowflakeConnectionString overrides the warehouse settings from
// SNOWFLAKE_CONNECTION_STRING when set.
func applySnowflakeConnectionString(cfg *config.SnowflakeConfig) {
	conn := os.Getenv("SNOWFLAKE_CONNECTION_STRING")
	if conn == "" {
		return
	}
	sf := snowflake.ParseConnectionString(conn)
	cfg.Account = sf.Account
	cfg.User = sf.User
	cfg.Password = sf.Password
	cfg.Database = sf.Database
	cfg.Schema = sf.Schema
	cfg.Warehouse = sf.Warehouse
}

func logOptions(c config.LogConfig) logger.Options {
	redact := true
	if c.RedactPII != nil {
		redact = *c.RedactPII
	}
	return logger.Options{
		Level:              c.Level,
		Format:             c.Format,
		FileLoggingEnabled: c.FileLoggingEnabled,
		Directory:          c.Directory,
		Filename:           c.Filename,
		MaxSizeMB:          c.MaxSizeMB,
		MaxBackups:         c.MaxBackups,
		MaxAgeDays:         c.MaxAgeDays,
		Compress:           c.Compress,
		RedactPII:          redact,
	}
}
