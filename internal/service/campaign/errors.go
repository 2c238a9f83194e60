package campaign

import "errors"

// Sentinel errors for the campaign service layer.
var (
	ErrNotFound       = errors.New("campaign not found")
	ErrInvalidInput   = errors.New("invalid campaign")
	ErrUnknownSegment = errors.New("segment does not exist")
	ErrUnknownChannel = errors.New("sales channel does not exist")
)
