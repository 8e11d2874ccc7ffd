package steps

import (
	"context"
	"fmt"
	"sync"

	"github.com/slok/nodeinit/internal/model"
	"github.com/slok/nodeinit/internal/wizard"
)

// DoneStep is the terminal step shown once the nodes have been added.
type DoneStep struct {
	mu   sync.Mutex
	data wizard.Data
}

// NewDoneStep returns a new done step.
func NewDoneStep() *DoneStep { return &DoneStep{} }

func (s *DoneStep) Name() string { return "done" }

func (s *DoneStep) Mount(_ context.Context, in wizard.Data) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = in
	s.data.Nodes = copyNodes(in.Nodes)
	return nil
}

func (s *DoneStep) Unmount() {}

// Nodes returns the onboarded nodes.
func (s *DoneStep) Nodes() []model.Node {
	s.mu.Lock()
	defer s.mu.Unlock()

	return copyNodes(s.data.Nodes)
}

func (s *DoneStep) Commit(context.Context) (wizard.Data, error) {
	return wizard.Data{}, fmt.Errorf("node onboarding already finished: %w", model.ErrStepValidation)
}
