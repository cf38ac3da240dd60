package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

type IngestRunStatus string

const (
	IngestRunStatusRunning   IngestRunStatus = "running"
	IngestRunStatusCompleted IngestRunStatus = "completed"
	IngestRunStatusFailed    IngestRunStatus = "failed"
)

// FileOutcomeResult is the terminal state of one candidate file within
// a run.
type FileOutcomeResult string

const (
	FileOutcomeLoaded  FileOutcomeResult = "loaded"
	FileOutcomeSkipped FileOutcomeResult = "skipped"
	FileOutcomeFailed  FileOutcomeResult = "failed"
)

// FileOutcome records what happened to one discovered file, kept on the
// run record so a run can be reconstructed without log access.
type FileOutcome struct {
	Filename    string            `json:"filename"`
	FileURL     string            `json:"file_url"`
	ContentHash string            `json:"content_hash,omitempty"`
	RawFileID   *int              `json:"raw_file_id,omitempty"`
	Outcome     FileOutcomeResult `json:"outcome"`
	Items       int               `json:"items,omitempty"`
	Error       *string           `json:"error,omitempty"`
}

// IngestRun is the audit record for one pipeline run over one chain.
type IngestRun struct {
	BaseUUIDModel

	Chain  string          `gorm:"not null;index"                       json:"chain"`
	Status IngestRunStatus `gorm:"not null;default:'running'"           json:"status"`

	StartedAt  time.Time  `gorm:"not null" json:"started_at"`
	FinishedAt *time.Time `           json:"finished_at,omitempty"`

	FilesDiscovered int   `json:"files_discovered"`
	FilesLoaded     int   `json:"files_loaded"`
	FilesSkipped    int   `json:"files_skipped"`
	FilesFailed     int   `json:"files_failed"`
	ItemsLoaded     int64 `json:"items_loaded"`

	FileOutcomes datatypes.JSON `json:"file_outcomes,omitempty"`
	Error        *string        `json:"error,omitempty"`
}

func (IngestRun) TableName() string {
	return "ingest_runs"
}

// SetFileOutcomes serializes per-file outcomes onto the JSON column.
func (r *IngestRun) SetFileOutcomes(outcomes []FileOutcome) error {
	data, err := json.Marshal(outcomes)
	if err != nil {
		return err
	}
	r.FileOutcomes = datatypes.JSON(data)
	return nil
}

// GetFileOutcomes deserializes the per-file outcomes, returning an
// empty slice when none were recorded.
func (r *IngestRun) GetFileOutcomes() ([]FileOutcome, error) {
	if len(r.FileOutcomes) == 0 {
		return []FileOutcome{}, nil
	}
	var outcomes []FileOutcome
	if err := json.Unmarshal(r.FileOutcomes, &outcomes); err != nil {
		return nil, err
	}
	return outcomes, nil
}
