package integration

import (
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// TaskStatus
// ---------------------------------------------------------------------------

// TaskStatus represents the lifecycle state of a sync task
type TaskStatus string

const (
	// TaskStatusPending indicates the task was created but not started
	TaskStatusPending TaskStatus = "PENDING"
	// TaskStatusRunning indicates the task is executing
	TaskStatusRunning TaskStatus = "RUNNING"
	// TaskStatusCompleted indicates the task finished all pages
	TaskStatusCompleted TaskStatus = "COMPLETED"
	// TaskStatusFailed indicates the task aborted on a fatal error
	TaskStatusFailed TaskStatus = "FAILED"
)

// IsValid returns true if the status is valid
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusPending, TaskStatusRunning, TaskStatusCompleted, TaskStatusFailed:
		return true
	default:
		return false
	}
}

// String returns the string representation of TaskStatus
func (s TaskStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the status is final
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed
}

// ---------------------------------------------------------------------------
// RecordResult
// ---------------------------------------------------------------------------

// RecordAction describes what the upsert engine did with one record
type RecordAction string

const (
	// RecordActionCreated indicates a new destination product was created
	RecordActionCreated RecordAction = "CREATED"
	// RecordActionUpdated indicates an existing destination product was updated
	RecordActionUpdated RecordAction = "UPDATED"
	// RecordActionArchived indicates the destination product was archived
	RecordActionArchived RecordAction = "ARCHIVED"
	// RecordActionSkipped indicates the record required no destination write
	RecordActionSkipped RecordAction = "SKIPPED"
	// RecordActionFailed indicates the record could not be synced
	RecordActionFailed RecordAction = "FAILED"
)

// RecordResult is the outcome of syncing one source product
type RecordResult struct {
	// ProductID is the source product ID
	ProductID string `json:"product_id"`
	// ProductName is the source product name, for operator readability
	ProductName string `json:"product_name,omitempty"`
	// Action is what the upsert engine decided
	Action RecordAction `json:"action"`
	// Success is false only when the record itself failed
	Success bool `json:"success"`
	// Skipped marks records that needed no destination write
	Skipped bool `json:"skipped,omitempty"`
	// Error holds the record-level failure, if any
	Error string `json:"error,omitempty"`
	// FieldErrors holds failures of individual sub-steps (variant update,
	// one metafield, one inventory level) that did not fail the record
	FieldErrors []string `json:"field_errors,omitempty"`
}

// ---------------------------------------------------------------------------
// SyncTask
// ---------------------------------------------------------------------------

// SyncTask is one end-to-end sync run over a chosen filter. It is created by
// the orchestrator on trigger and mutated only by that run's own execution;
// completed and failed are final.
type SyncTask struct {
	// ID is the task identifier returned to the caller
	ID uuid.UUID
	// VendorID is the source vendor this run syncs
	VendorID string
	// Filter is the traversal context for the whole run
	Filter SyncFilter
	// Status is the lifecycle state
	Status TaskStatus
	// TotalRecords is the traversal's totalCount, known after the first page
	TotalRecords int
	// ProcessedRecords counts records handed to the upsert engine
	ProcessedRecords int
	// ProgressPercent is 0-100, updated after every record
	ProgressPercent int
	// LastCursor is the cursor checkpoint after the last successful page
	LastCursor string
	// Results holds one entry per processed record, in traversal order
	Results []RecordResult
	// Error holds the fatal error when Status is FAILED
	Error string
	// CreatedAt is when the task was accepted
	CreatedAt time.Time
	// StartedAt is when execution began
	StartedAt *time.Time
	// FinishedAt is when the task reached a terminal state
	FinishedAt *time.Time
}

// NewSyncTask creates a pending task for a vendor and filter
func NewSyncTask(vendorID string, filter SyncFilter) *SyncTask {
	return &SyncTask{
		ID:        uuid.New(),
		VendorID:  vendorID,
		Filter:    filter,
		Status:    TaskStatusPending,
		Results:   make([]RecordResult, 0),
		CreatedAt: time.Now(),
	}
}

// Start transitions the task to running
func (t *SyncTask) Start(now time.Time) error {
	if t.Status != TaskStatusPending {
		return ErrTaskTerminal
	}
	t.Status = TaskStatusRunning
	t.StartedAt = &now
	return nil
}

// RecordProcessed appends one record result and advances the progress
// counters. Progress is monotonically non-decreasing.
func (t *SyncTask) RecordProcessed(result RecordResult) {
	t.Results = append(t.Results, result)
	t.ProcessedRecords++
	if t.TotalRecords > 0 {
		pct := t.ProcessedRecords * 100 / t.TotalRecords
		if pct > 100 {
			pct = 100
		}
		if pct > t.ProgressPercent {
			t.ProgressPercent = pct
		}
	}
}

// Checkpoint records the cursor reached after a successful page
func (t *SyncTask) Checkpoint(cursor string) {
	t.LastCursor = cursor
}

// Complete transitions the task to completed. Partial success (some failed
// record results) still completes; only fatal errors fail the task.
func (t *SyncTask) Complete(now time.Time) error {
	if t.Status != TaskStatusRunning {
		return ErrTaskTerminal
	}
	t.Status = TaskStatusCompleted
	t.ProgressPercent = 100
	t.FinishedAt = &now
	return nil
}

// Fail transitions the task to failed with the fatal error
func (t *SyncTask) Fail(now time.Time, cause error) error {
	if t.Status.IsTerminal() {
		return ErrTaskTerminal
	}
	t.Status = TaskStatusFailed
	if cause != nil {
		t.Error = cause.Error()
	}
	t.FinishedAt = &now
	return nil
}

// FailedRecordCount returns the number of record-level failures
func (t *SyncTask) FailedRecordCount() int {
	n := 0
	for _, r := range t.Results {
		if !r.Success {
			n++
		}
	}
	return n
}
