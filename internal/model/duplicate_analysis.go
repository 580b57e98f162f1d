package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Analysis lifecycle. Transitions are owned exclusively by the worker that
// runs the analysis: pending → processing → completed | failed.
const (
	AnalysisPending    = "pending"
	AnalysisProcessing = "processing"
	AnalysisCompleted  = "completed"
	AnalysisFailed     = "failed"
)

// VendorDuplicateAnalysis records one deduplication run: its parameters,
// status, counters, and (once completed) the ordered match results blob.
// A failed run never carries partial results.
type VendorDuplicateAnalysis struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Threshold float64   `gorm:"not null"`
	Limit     int       `gorm:"column:match_limit;not null"`
	Status    string    `gorm:"not null;default:'pending';index"`

	Results json.RawMessage `gorm:"type:jsonb"`

	TotalVendors    int   `gorm:"not null;default:0"`
	Comparisons     int64 `gorm:"not null;default:0"`
	DuplicatesFound int   `gorm:"not null;default:0"`

	ErrorMessage *string
	// NotifyEmail, when set, receives a completion notification.
	NotifyEmail *string

	StartedAt   *time.Time
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (VendorDuplicateAnalysis) TableName() string { return "vendor_duplicate_analyses" }
