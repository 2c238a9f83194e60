package config

import "errors"

// Sentinel errors returned by Validate.
var (
	ErrMissingDatabaseURL      = errors.New("database url is required")
	ErrInvalidPort             = errors.New("invalid server port")
	ErrInvalidReferenceDate    = errors.New("invalid analytics reference date")
	ErrUnknownSource           = errors.New("unknown analytics source")
	ErrMissingSnowflakeAccount = errors.New("snowflake account and user are required")
	ErrMissingExportBucket     = errors.New("export bucket is required when export is enabled")
	ErrMissingKafkaBrokers     = errors.New("kafka brokers are required when ingest is enabled")
)
