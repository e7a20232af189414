package hub

import (
	"time"
)

// Update types pushed to observers
const (
	UpdateTypeJobStatus = "job_status"
	UpdateTypeSystem    = "system"
)

// Update is one status message delivered to observers of an owner.
// Data carries event-specific fields (platform results, error details).
type Update struct {
	Type      string                 `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	JobID     string                 `json:"job_id,omitempty"`
	Status    string                 `json:"status,omitempty"`
	Progress  int                    `json:"progress,omitempty"`
	Message   string                 `json:"message,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// NewJobUpdate builds a job status update stamped with the current time
func NewJobUpdate(jobID, status string, progress int, message string) *Update {
	return &Update{
		Type:      UpdateTypeJobStatus,
		Timestamp: time.Now(),
		JobID:     jobID,
		Status:    status,
		Progress:  progress,
		Message:   message,
	}
}

// NewSystemUpdate builds a system-wide notice
func NewSystemUpdate(message string) *Update {
	return &Update{
		Type:      UpdateTypeSystem,
		Timestamp: time.Now(),
		Message:   message,
	}
}
