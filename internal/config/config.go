package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ReferenceDateLayout is the accepted format for analytics.reference_date.
const ReferenceDateLayout = "2006-01-02"

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Cache     CacheConfig     `yaml:"cache"`
	Analytics AnalyticsConfig `yaml:"analytics"`
	Segments  SegmentsConfig  `yaml:"segments"`
	Export    ExportConfig    `yaml:"export"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Snowflake SnowflakeConfig `yaml:"snowflake"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port                   int      `yaml:"port"`
	Host                   string   `yaml:"host"`
	AllowedOrigins         []string `yaml:"allowed_origins"`
	ShutdownTimeoutSeconds int      `yaml:"shutdown_timeout_seconds"`
}

// Addr returns the listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ShutdownTimeout returns the graceful shutdown timeout as a duration
func (c ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

// DatabaseConfig holds PostgreSQL connection settings
type DatabaseConfig struct {
	URL                    string `yaml:"url"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// ConnMaxLifetime returns the connection lifetime as a duration
func (c DatabaseConfig) ConnMaxLifetime() time.Duration {
	return time.Duration(c.ConnMaxLifetimeMinutes) * time.Minute
}

// RedisConfig holds Redis connection settings. An empty URL disables
// caching and creation locks.
type RedisConfig struct {
	URL string `yaml:"url"`
}

// CacheConfig holds dashboard cache settings
type CacheConfig struct {
	TTLSeconds int    `yaml:"ttl_seconds"`
	KeyPrefix  string `yaml:"key_prefix"`
}

// TTL returns the cache entry lifetime as a duration
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// AnalyticsConfig holds dashboard computation settings
type AnalyticsConfig struct {
	// ReferenceDate pins "now" for every time-relative computation
	// (YYYY-MM-DD). Empty means each request uses the server clock.
	ReferenceDate    string `yaml:"reference_date"`
	TopN             int    `yaml:"top_n"`
	HistogramBuckets int    `yaml:"histogram_buckets"`
	Source           string `yaml:"source"` // "postgres" or "snowflake"
}

// ReferenceTime parses ReferenceDate. ok is false when unset.
func (c AnalyticsConfig) ReferenceTime() (t time.Time, ok bool, err error) {
	if c.ReferenceDate == "" {
		return time.Time{}, false, nil
	}
	t, err = time.Parse(ReferenceDateLayout, c.ReferenceDate)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%w: %q", ErrInvalidReferenceDate, c.ReferenceDate)
	}
	return t, true, nil
}

// SegmentsConfig holds segment builder settings
type SegmentsConfig struct {
	EnforceCustomerType bool `yaml:"enforce_customer_type"`
	CreateLockSeconds   int  `yaml:"create_lock_seconds"`
}

// CreateLockTTL returns the creation lock lifetime as a duration
func (c SegmentsConfig) CreateLockTTL() time.Duration {
	return time.Duration(c.CreateLockSeconds) * time.Second
}

// ExportConfig holds S3 export settings for segment CSVs
type ExportConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Bucket        string `yaml:"bucket"`
	Region        string `yaml:"region"`
	AWSProfile    string `yaml:"aws_profile"`
	ManifestTable string `yaml:"manifest_table"`
	KeyTemplate   string `yaml:"key_template"`
}

// IngestConfig holds Kafka order-event consumer settings
type IngestConfig struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
	GroupID string   `yaml:"group_id"`
}

// SnowflakeConfig holds Snowflake warehouse settings for analytics reads
type SnowflakeConfig struct {
	Account   string `yaml:"account"`
	User      string `yaml:"user"`
	Password  string `yaml:"password"`
	Database  string `yaml:"database"`
	Schema    string `yaml:"schema"`
	Warehouse string `yaml:"warehouse"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level              string `yaml:"level"`
	Format             string `yaml:"format"`
	FileLoggingEnabled bool   `yaml:"file_logging_enabled"`
	Directory          string `yaml:"directory"`
	Filename           string `yaml:"filename"`
	MaxSizeMB          int    `yaml:"max_size_mb"`
	MaxBackups         int    `yaml:"max_backups"`
	MaxAgeDays         int    `yaml:"max_age_days"`
	Compress           bool   `yaml:"compress"`
	RedactPII          *bool  `yaml:"redact_pii"`
}

// Load reads configuration from a YAML file and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.setDefaults()
	return &cfg, nil
}

func (cfg *Config) setDefaults() {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"http://localhost:5173", "http://localhost:8080"}
	}
	if cfg.Server.ShutdownTimeoutSeconds == 0 {
		cfg.Server.ShutdownTimeoutSeconds = 15
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 20
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetimeMinutes == 0 {
		cfg.Database.ConnMaxLifetimeMinutes = 30
	}
	if cfg.Cache.TTLSeconds == 0 {
		cfg.Cache.TTLSeconds = 300
	}
	if cfg.Cache.KeyPrefix == "" {
		cfg.Cache.KeyPrefix = "insights"
	}
	if cfg.Analytics.TopN == 0 {
		cfg.Analytics.TopN = 5
	}
	if cfg.Analytics.HistogramBuckets == 0 {
		cfg.Analytics.HistogramBuckets = 20
	}
	if cfg.Analytics.Source == "" {
		cfg.Analytics.Source = "postgres"
	}
	if cfg.Segments.CreateLockSeconds == 0 {
		cfg.Segments.CreateLockSeconds = 60
	}
	if cfg.Export.Region == "" {
		cfg.Export.Region = "us-west-2"
	}
	if cfg.Export.KeyTemplate == "" {
		cfg.Export.KeyTemplate = "segments/{{ segment.id }}/{{ generated_at }}.csv"
	}
	if cfg.Ingest.Topic == "" {
		cfg.Ingest.Topic = "orders"
	}
	if cfg.Ingest.GroupID == "" {
		cfg.Ingest.GroupID = "commerce-insights"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Directory == "" {
		cfg.Log.Directory = "log"
	}
	if cfg.Log.Filename == "" {
		cfg.Log.Filename = "insights.log"
	}
	if cfg.Log.MaxSizeMB == 0 {
		cfg.Log.MaxSizeMB = 100
	}
	if cfg.Log.MaxBackups == 0 {
		cfg.Log.MaxBackups = 3
	}
	if cfg.Log.MaxAgeDays == 0 {
		cfg.Log.MaxAgeDays = 7
	}
	if cfg.Log.RedactPII == nil {
		redact := true
		cfg.Log.RedactPII = &redact
	}
}

// LoadFromEnv loads configuration from file and overrides with environment variables
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("REFERENCE_DATE"); v != "" {
		cfg.Analytics.ReferenceDate = v
	}
	if v := os.Getenv("ANALYTICS_SOURCE"); v != "" {
		cfg.Analytics.Source = v
	}
	if v := os.Getenv("EXPORT_BUCKET"); v != "" {
		cfg.Export.Bucket = v
		cfg.Export.Enabled = true
	}
	if v := os.Getenv("AWS_REGION"); v != "" {
		cfg.Export.Region = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Ingest.Brokers = strings.Split(v, ",")
		cfg.Ingest.Enabled = true
	}
	if v := os.Getenv("SNOWFLAKE_ACCOUNT"); v != "" {
		cfg.Snowflake.Account = v
	}
	if v := os.Getenv("SNOWFLAKE_USER"); v != "" {
		cfg.Snowflake.User = v
	}
	if v := os.Getenv("SNOWFLAKE_PASSWORD"); v != "" {
		cfg.Snowflake.Password = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	return cfg, nil
}

// Validate checks cross-field constraints. It returns the first problem
// found.
func (cfg *Config) Validate() error {
	if cfg.Database.URL == "" {
		return ErrMissingDatabaseURL
	}
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPort, cfg.Server.Port)
	}
	if _, _, err := cfg.Analytics.ReferenceTime(); err != nil {
		return err
	}
	switch cfg.Analytics.Source {
	case "postgres":
	case "snowflake":
		if cfg.Snowflake.Account == "" || cfg.Snowflake.User == "" {
			return ErrMissingSnowflakeAccount
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSource, cfg.Analytics.Source)
	}
	if cfg.Export.Enabled && cfg.Export.Bucket == "" {
		return ErrMissingExportBucket
	}
	if cfg.Ingest.Enabled && len(cfg.Ingest.Brokers) == 0 {
		return ErrMissingKafkaBrokers
	}
	return nil
}
