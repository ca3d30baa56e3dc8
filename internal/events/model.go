package events

import (
	"fmt"
	"time"
)

// Event types accepted at the boundary. Nothing else persists.
const (
	TypeFire  = "fire"
	TypeFall  = "fall"
	TypeFight = "fight"
)

const (
	ModeLive    = "live"
	ModeOffline = "offline"
)

const (
	StatusPending    = "pending"
	StatusDispatched = "dispatched"
	StatusResolved   = "resolved"
)

const MaxNotesLength = 512

var eventTypes = map[string]bool{TypeFire: true, TypeFall: true, TypeFight: true}
var severities = map[string]bool{"low": true, "medium": true, "high": true}
var statuses = map[string]bool{StatusPending: true, StatusDispatched: true, StatusResolved: true}
var modes = map[string]bool{ModeLive: true, ModeOffline: true}

// PriorityForLabel is the single source of truth for the label mapping.
// When both representations arrive, the label wins and priority is
// recomputed from it.
var PriorityForLabel = map[string]int{
	"Low":    1,
	"Medium": 2,
	"High":   3,
}

var LabelForPriority = map[int]string{
	1: "Low",
	2: "Medium",
	3: "High",
}

// CreateRequest is the canonical, fully-validated creation request. All
// defaults are applied by the Validator; SnapshotData holds an unresolved
// data URI for the Snapshot Resolver, exclusive with SnapshotURL.
type CreateRequest struct {
	EventType     string
	Timestamp     time.Time
	CameraID      string
	Confidence    *float64
	Priority      int
	PriorityLabel string
	Location      string
	Severity      string
	Status        string
	Notes         string
	SnapshotURL   *string
	SnapshotData  string
	Mode          string
	FrameIndex    *int
}

// Timestamp layouts accepted at the boundary. Range bounds and the
// retention cutoff additionally accept a bare date.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTime parses an ISO-8601 timestamp or bare date.
func ParseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid ISO-8601 timestamp: %q", s)
}
