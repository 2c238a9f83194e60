package ingest

import "errors"

var (
	ErrInvalidKafkaConfig = errors.New("invalid Kafka configuration provided")
	ErrKafkaFetchFailed   = errors.New("failed to fetch message from Kafka")
	ErrInvalidEvent       = errors.New("invalid order event")
	ErrStoreFailed        = errors.New("failed to store order")
)
