package queue

import (
	"encoding/json"
	"strings"
	"time"

	"clipforge/internal/pipeline"
)

// Status represents the lifecycle of a generation job.
type Status string

const (
	StatusPending    Status = "pending"
	StatusGenerating Status = "generating"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

var allStatuses = []Status{
	StatusPending,
	StatusGenerating,
	StatusCompleted,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// Job is one queued generation persisted in SQLite.
type Job struct {
	ID              int64
	Status          Status
	RequestJSON     string
	VideoURL        string
	ThumbnailURL    string
	DurationSeconds float64
	ImagesUsed      int
	ErrorMessage    string
	ProgressStage   string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Request decodes the stored generation request, applying defaults for any
// field the caller omitted.
func (j *Job) Request() (pipeline.Request, error) {
	req := pipeline.DefaultRequest()
	if err := json.Unmarshal([]byte(j.RequestJSON), &req); err != nil {
		return pipeline.Request{}, err
	}
	return req, nil
}

// Finished reports whether the job has reached a terminal status.
func (j *Job) Finished() bool {
	return j.Status == StatusCompleted || j.Status == StatusFailed
}

// HealthSummary describes aggregated job counts per lifecycle state.
type HealthSummary struct {
	Total      int
	Pending    int
	Generating int
	Completed  int
	Failed     int
}
