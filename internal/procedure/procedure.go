// Package procedure maps backend reported procedure and execution states to wizard
// steps and display descriptors.
//
// All the lookups fail closed: a value missing from the tables returns
// model.ErrUnknownState instead of a default, so contract drift with the backend
// is surfaced.
package procedure

import (
	"fmt"

	"github.com/slok/nodeinit/internal/model"
)

// DeployOverviewStep is the display only step that has no backend procedure state.
const DeployOverviewStep = 10

var stepIndexes = map[model.ProcedureState]int{
	model.ProcedureStateBeforeParse:     0,
	model.ProcedureStateParseHostname:   1,
	model.ProcedureStateDetect:          2,
	model.ProcedureStateCheck:           3,
	model.ProcedureStateDispatch:        4,
	model.ProcedureStateStartWorker:     5,
	model.ProcedureStateAddNodeDone:     6,
	model.ProcedureStateSelectService:   7,
	model.ProcedureStateSelectComponent: 8,
	model.ProcedureStatePreConfig:       9,
	model.ProcedureStateDeploying:       11,
}

// StepIndexOf returns the wizard step ordinal of a procedure state.
func StepIndexOf(state model.ProcedureState) (int, error) {
	idx, ok := stepIndexes[state]
	if !ok {
		return 0, fmt.Errorf("procedure state %q: %w", state, model.ErrUnknownState)
	}

	return idx, nil
}

// StepInfo describes a step of the onboarding sequence.
type StepInfo struct {
	Index int
	// Label is the i18n label key of the step.
	Label string
}

var steps = []StepInfo{
	{Index: 0, Label: "node.parseHostname"},
	{Index: 1, Label: "node.chooseHostname"},
	{Index: 2, Label: "node.detect"},
	{Index: 3, Label: "node.check"},
	{Index: 4, Label: "node.dispatch"},
	{Index: 5, Label: "node.startWorker"},
	{Index: 6, Label: "node.add"},
	{Index: 7, Label: "service.selectService"},
	{Index: 8, Label: "service.selectComponent"},
	{Index: 9, Label: "service.preConfig"},
	{Index: DeployOverviewStep, Label: "service.deployOverview"},
	{Index: 11, Label: "service.deployStep"},
	{Index: 12, Label: "service.deploySuccess"},
}

// Steps returns the full ordered onboarding display sequence.
func Steps() []StepInfo {
	s := make([]StepInfo, len(steps))
	copy(s, steps)
	return s
}
