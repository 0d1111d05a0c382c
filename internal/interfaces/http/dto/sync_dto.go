package dto

import (
	"time"

	"github.com/shopsync/backend/internal/domain/integration"
)

// maxResultsInResponse caps how many per-record results a status response
// carries; full history stays in storage
const maxResultsInResponse = 20

// StartSyncRequest represents the request to start a sync task
type StartSyncRequest struct {
	VendorID    string   `json:"vendor_id" binding:"required"`
	Mode        string   `json:"mode" binding:"required"`
	CategoryIDs []string `json:"category_ids"`
	ProductIDs  []string `json:"product_ids"`
}

// ToFilter converts the request to a domain sync filter
func (r StartSyncRequest) ToFilter() integration.SyncFilter {
	return integration.SyncFilter{
		Mode:        integration.FilterMode(r.Mode),
		CategoryIDs: r.CategoryIDs,
		ProductIDs:  r.ProductIDs,
	}
}

// TaskResponse represents a sync task in API responses
type TaskResponse struct {
	ID               string                     `json:"id"`
	VendorID         string                     `json:"vendor_id"`
	Status           string                     `json:"status"`
	Filter           integration.SyncFilter     `json:"filter"`
	TotalRecords     int                        `json:"total_records"`
	ProcessedRecords int                        `json:"processed_records"`
	ProgressPercent  int                        `json:"progress_percent"`
	FailedRecords    int                        `json:"failed_records"`
	Results          []integration.RecordResult `json:"results"`
	Error            string                     `json:"error,omitempty"`
	CreatedAt        time.Time                  `json:"created_at"`
	StartedAt        *time.Time                 `json:"started_at,omitempty"`
	FinishedAt       *time.Time                 `json:"finished_at,omitempty"`
}

// NewTaskResponse converts a domain task, keeping only the newest results
func NewTaskResponse(task *integration.SyncTask) TaskResponse {
	results := task.Results
	if len(results) > maxResultsInResponse {
		results = results[len(results)-maxResultsInResponse:]
	}

	return TaskResponse{
		ID:               task.ID.String(),
		VendorID:         task.VendorID,
		Status:           task.Status.String(),
		Filter:           task.Filter,
		TotalRecords:     task.TotalRecords,
		ProcessedRecords: task.ProcessedRecords,
		ProgressPercent:  task.ProgressPercent,
		FailedRecords:    task.FailedRecordCount(),
		Results:          results,
		Error:            task.Error,
		CreatedAt:        task.CreatedAt,
		StartedAt:        task.StartedAt,
		FinishedAt:       task.FinishedAt,
	}
}

// TaskSummaryResponse represents a task in list responses, without results
type TaskSummaryResponse struct {
	ID               string     `json:"id"`
	Status           string     `json:"status"`
	TotalRecords     int        `json:"total_records"`
	ProcessedRecords int        `json:"processed_records"`
	ProgressPercent  int        `json:"progress_percent"`
	FailedRecords    int        `json:"failed_records"`
	Error            string     `json:"error,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	FinishedAt       *time.Time `json:"finished_at,omitempty"`
}

// NewTaskSummaryResponse converts a domain task to its list representation
func NewTaskSummaryResponse(task *integration.SyncTask) TaskSummaryResponse {
	return TaskSummaryResponse{
		ID:               task.ID.String(),
		Status:           task.Status.String(),
		TotalRecords:     task.TotalRecords,
		ProcessedRecords: task.ProcessedRecords,
		ProgressPercent:  task.ProgressPercent,
		FailedRecords:    task.FailedRecordCount(),
		Error:            task.Error,
		CreatedAt:        task.CreatedAt,
		FinishedAt:       task.FinishedAt,
	}
}

// ConnectionResponse reports a stored vendor credential without exposing it
type ConnectionResponse struct {
	VendorID  string    `json:"vendor_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// WebhookRequest represents an inbound product event from the source platform
type WebhookRequest struct {
	Event     string `json:"event"`
	VendorID  string `json:"vendor_id"`
	ProductID string `json:"product_id"`
}
