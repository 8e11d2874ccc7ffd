package procedure

import (
	"fmt"

	"github.com/slok/nodeinit/internal/model"
)

// Severity is the badge severity used to render a state.
type Severity string

const (
	SeveritySuccess    Severity = "success"
	SeverityProcessing Severity = "processing"
	SeverityError      Severity = "error"
)

// Display is how an execution state is rendered.
type Display struct {
	Label    string
	Severity Severity
}

var displays = map[model.ExecState]Display{
	model.ExecStateStarted:          {Label: "node.started", Severity: SeveritySuccess},
	model.ExecStateResolved:         {Label: "node.resolved", Severity: SeveritySuccess},
	model.ExecStateActive:           {Label: "node.active", Severity: SeveritySuccess},
	model.ExecStateDetecting:        {Label: "node.detecting", Severity: SeverityProcessing},
	model.ExecStateInactive:         {Label: "node.inactive", Severity: SeverityError},
	model.ExecStateCheckOK:          {Label: "node.check_ok", Severity: SeveritySuccess},
	model.ExecStateChecking:         {Label: "node.checking", Severity: SeverityProcessing},
	model.ExecStateCheckError:       {Label: "node.check_error", Severity: SeverityError},
	model.ExecStatePushing:          {Label: "node.pushing", Severity: SeverityProcessing},
	model.ExecStatePushOK:           {Label: "node.push_ok", Severity: SeveritySuccess},
	model.ExecStatePushError:        {Label: "node.push_ok", Severity: SeverityError},
	model.ExecStateStartWorkerOK:    {Label: "node.start_worker_ok", Severity: SeveritySuccess},
	model.ExecStateStartingWorker:   {Label: "node.starting_worker", Severity: SeverityProcessing},
	model.ExecStateStartWorkerError: {Label: "node.start_worker_error", Severity: SeverityError},
	model.ExecStateUnselected:       {Label: "service.unselected", Severity: SeverityError},
	model.ExecStateSelected:         {Label: "service.selected", Severity: SeveritySuccess},
	model.ExecStateDeployed:         {Label: "service.deployed", Severity: SeveritySuccess},
	model.ExecStateUndeployed:       {Label: "service.undeployed", Severity: SeverityError},
	model.ExecStateSelectedAddition: {Label: "service.selected_addition", Severity: SeveritySuccess},
	model.ExecStateDeploying:        {Label: "service.deploying", Severity: SeverityProcessing},
	model.ExecStateStarting:         {Label: "service.starting", Severity: SeverityProcessing},
	model.ExecStateStopping:         {Label: "service.stopping", Severity: SeverityProcessing},
	model.ExecStateStopped:          {Label: "service.stopped", Severity: SeverityError},
	model.ExecStateRestarting:       {Label: "service.restarting", Severity: SeverityProcessing},
	model.ExecStateDecommissioning:  {Label: "service.decommissioning", Severity: SeverityProcessing},
	model.ExecStateDecommissioned:   {Label: "service.decommissioned", Severity: SeverityError},
	model.ExecStateChanging:         {Label: "service.changing", Severity: SeverityProcessing},
	model.ExecStateRemoved:          {Label: "service.removed", Severity: SeverityError},
}

// DisplayOf returns the display descriptor of an execution state.
func DisplayOf(state model.ExecState) (Display, error) {
	d, ok := displays[state]
	if !ok {
		return Display{}, fmt.Errorf("exec state %q: %w", state, model.ErrUnknownState)
	}

	return d, nil
}

// Stop states of the pollers, node states and job states mixed like the backend reports them.
var stableStates = []string{
	string(model.ExecStateResolved),
	string(model.ExecStateActive),
	string(model.ExecStateInactive),
	string(model.ExecStateCheckOK),
	string(model.ExecStateCheckError),
	string(model.ExecStatePushOK),
	string(model.ExecStatePushError),
	string(model.ExecStateStartWorkerOK),
	string(model.ExecStateStartWorkerError),
	string(model.ExecStateUnselected),
	string(model.JobExecStateError),
	string(model.JobExecStateOK),
}

// StableStates returns the states after which no further progress is expected.
func StableStates() []string {
	s := make([]string, len(stableStates))
	copy(s, stableStates)
	return s
}

// IsStable returns true if the state is a stable state.
func IsStable(state string) bool {
	for _, s := range stableStates {
		if s == state {
			return true
		}
	}
	return false
}
