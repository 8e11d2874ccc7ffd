// Package wizard has the onboarding wizard step contract and the orchestrator that
// keeps the wizard cursor in sync with the server side procedure.
package wizard

import (
	"context"

	"github.com/slok/nodeinit/internal/model"
)

// Data is the value a step hands over to the next one.
type Data struct {
	ClusterID string
	NodeJobID string
	JobID     string
	Nodes     []model.Node
}

// Step is a single wizard step.
type Step interface {
	Name() string
	// Commit validates the step input, submits it to the server and returns the
	// input of the next step. On error the step input must be kept untouched.
	Commit(ctx context.Context) (Data, error)
}

// Mounter is implemented by steps that need setup when they become the current one.
type Mounter interface {
	Mount(ctx context.Context, in Data) error
	Unmount()
}

// JobStatus is the status of the server job a step is waiting on.
type JobStatus struct {
	NodeJobID string
	State     model.JobExecState
	// Terminal is true when the job reached a stable state.
	Terminal bool
	// Degraded is true when the job status can't be fetched repeatedly.
	Degraded bool
	Progress *model.JobProgress
}

// JobHost is implemented by steps that gate on a server job.
type JobHost interface {
	JobStatus() JobStatus
	// Retry restarts the job of the step and returns the new node job ID.
	Retry(ctx context.Context) (string, error)
	// Wait blocks until the job status polling finishes.
	Wait(ctx context.Context) error
}

// StepStatus is the display status of a step in the step list.
type StepStatus string

const (
	StepStatusWait    StepStatus = "wait"
	StepStatusProcess StepStatus = "process"
	StepStatusFinish  StepStatus = "finish"
	StepStatusError   StepStatus = "error"
)

// StepView is a step of the full onboarding sequence as shown to the user.
type StepView struct {
	Index  int
	Label  string
	Status StepStatus
}

// Snapshot is the wizard state at a point in time.
type Snapshot struct {
	Session  model.Session
	StepName string
	Steps    []StepView
	// Job is set when the current step gates on a job.
	Job *JobStatus
}

func copyNodes(nodes []model.Node) []model.Node {
	if nodes == nil {
		return nil
	}
	c := make([]model.Node, len(nodes))
	copy(c, nodes)
	return c
}
