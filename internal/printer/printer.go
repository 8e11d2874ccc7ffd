package printer

import (
	"github.com/slok/nodeinit/internal/model"
	"github.com/slok/nodeinit/internal/wizard"
)

// Printer knows how to print onboarding information in different formats.
type Printer interface {
	PrintWizardStatus(snap wizard.Snapshot, history []model.StepRecord) error
	PrintJobProgress(p model.JobProgress, degraded bool) error
	PrintMessage(msg string) error
}
