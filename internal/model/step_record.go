package model

import (
	"time"
)

// StepRecordStatus is the result of a wizard step commit attempt.
type StepRecordStatus string

const (
	StepRecordStatusCommitted StepRecordStatus = "committed"
	StepRecordStatusFailed    StepRecordStatus = "failed"
)

// StepRecord is the history entry of a wizard step commit attempt.
type StepRecord struct {
	ID        string
	ClusterID string
	Sequence  int
	StepIndex int
	StepName  string
	Status    StepRecordStatus
	Error     string
	CreatedAt time.Time
}
