package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopsync/backend/internal/domain/integration"
)

// SyncTaskModel is the persistence model for the SyncTask domain entity.
// Filter and Results are serialized as JSON so the schema stays stable as
// record result fields evolve.
type SyncTaskModel struct {
	ID               uuid.UUID              `gorm:"type:uuid;primary_key"`
	VendorID         string                 `gorm:"type:varchar(100);not null;index:idx_sync_tasks_vendor_status,priority:1"`
	Status           integration.TaskStatus `gorm:"type:varchar(20);not null;index:idx_sync_tasks_vendor_status,priority:2"`
	FilterJSON       string                 `gorm:"type:text;column:filter"`
	TotalRecords     int                    `gorm:"not null;default:0"`
	ProcessedRecords int                    `gorm:"not null;default:0"`
	ProgressPercent  int                    `gorm:"not null;default:0"`
	LastCursor       string                 `gorm:"type:text"`
	ResultsJSON      string                 `gorm:"type:text;column:results"`
	Error            string                 `gorm:"type:text"`
	CreatedAt        time.Time              `gorm:"not null"`
	StartedAt        *time.Time
	FinishedAt       *time.Time
}

// TableName returns the table name for GORM
func (SyncTaskModel) TableName() string {
	return "sync_tasks"
}

// ToDomain converts the persistence model to a domain SyncTask
func (m *SyncTaskModel) ToDomain() *integration.SyncTask {
	task := &integration.SyncTask{
		ID:               m.ID,
		VendorID:         m.VendorID,
		Status:           m.Status,
		TotalRecords:     m.TotalRecords,
		ProcessedRecords: m.ProcessedRecords,
		ProgressPercent:  m.ProgressPercent,
		LastCursor:       m.LastCursor,
		Results:          make([]integration.RecordResult, 0),
		Error:            m.Error,
		CreatedAt:        m.CreatedAt,
		StartedAt:        m.StartedAt,
		FinishedAt:       m.FinishedAt,
	}

	if m.FilterJSON != "" {
		var filter integration.SyncFilter
		if err := json.Unmarshal([]byte(m.FilterJSON), &filter); err == nil {
			task.Filter = filter
		}
	}

	if m.ResultsJSON != "" {
		var results []integration.RecordResult
		if err := json.Unmarshal([]byte(m.ResultsJSON), &results); err == nil {
			task.Results = results
		}
	}

	return task
}

// FromDomain populates the persistence model from a domain SyncTask
func (m *SyncTaskModel) FromDomain(t *integration.SyncTask) {
	m.ID = t.ID
	m.VendorID = t.VendorID
	m.Status = t.Status
	m.TotalRecords = t.TotalRecords
	m.ProcessedRecords = t.ProcessedRecords
	m.ProgressPercent = t.ProgressPercent
	m.LastCursor = t.LastCursor
	m.Error = t.Error
	m.CreatedAt = t.CreatedAt
	m.StartedAt = t.StartedAt
	m.FinishedAt = t.FinishedAt

	if jsonBytes, err := json.Marshal(t.Filter); err == nil {
		m.FilterJSON = string(jsonBytes)
	}

	if len(t.Results) > 0 {
		if jsonBytes, err := json.Marshal(t.Results); err == nil {
			m.ResultsJSON = string(jsonBytes)
		}
	} else {
		m.ResultsJSON = "[]"
	}
}

// SyncTaskModelFromDomain creates a new persistence model from a domain SyncTask
func SyncTaskModelFromDomain(t *integration.SyncTask) *SyncTaskModel {
	m := &SyncTaskModel{}
	m.FromDomain(t)
	return m
}
