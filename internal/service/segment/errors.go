package segment

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the segment service layer.
var (
	ErrNotFound         = errors.New("segment not found")
	ErrInvalidInput     = errors.New("invalid segment")
	ErrCreateInProgress = errors.New("a segment with this name is already being created")
)

// ConflictError reports that a segment cannot be deleted because campaigns
// still reference it.
type ConflictError struct {
	SegmentID   string
	CampaignIDs []string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("segment %s is referenced by %d campaign(s): %s",
		e.SegmentID, len(e.CampaignIDs), strings.Join(e.CampaignIDs, ", "))
}
