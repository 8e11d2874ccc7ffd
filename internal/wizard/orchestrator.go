package wizard

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/slok/nodeinit/internal/client"
	"github.com/slok/nodeinit/internal/log"
	"github.com/slok/nodeinit/internal/model"
	"github.com/slok/nodeinit/internal/procedure"
	"github.com/slok/nodeinit/internal/session"
)

// OrchestratorConfig is the configuration of the wizard orchestrator.
type OrchestratorConfig struct {
	Client  client.Client
	Session *session.Session
	// Steps are the node onboarding steps in order, the last one is the terminal step
	// used for every cursor beyond the node onboarding sequence.
	Steps  []Step
	Logger log.Logger
}

func (c *OrchestratorConfig) defaults() error {
	if c.Client == nil {
		return fmt.Errorf("client is required")
	}

	if c.Session == nil {
		return fmt.Errorf("session is required")
	}

	if c.Session.ClusterID() == "" {
		return fmt.Errorf("session cluster is required")
	}

	if len(c.Steps) == 0 {
		return fmt.Errorf("at least one step is required")
	}

	for i, s := range c.Steps {
		if s == nil {
			return fmt.Errorf("step %d is missing", i)
		}
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "wizard.Orchestrator", "cluster": c.Session.ClusterID()})

	return nil
}

// Orchestrator drives the wizard steps and keeps the cursor aligned with the server procedure.
type Orchestrator struct {
	cli     client.Client
	session *session.Session
	steps   []Step
	logger  log.Logger

	mu      sync.Mutex
	mounted Mounter
}

// NewOrchestrator returns a new orchestrator. Resume must be called before using it.
func NewOrchestrator(cfg OrchestratorConfig) (*Orchestrator, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Orchestrator{
		cli:     cfg.Client,
		session: cfg.Session,
		steps:   cfg.Steps,
		logger:  cfg.Logger,
	}, nil
}

// Resume loads the cluster procedure from the server and moves the wizard to the
// step it's at. A cluster without procedure starts from the first step.
func (o *Orchestrator) Resume(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	clusterID := o.session.ClusterID()
	proc, err := o.cli.GetProcedure(ctx, clusterID)
	if err != nil {
		if !errors.Is(err, model.ErrNotFound) {
			return fmt.Errorf("could not get procedure: %w", err)
		}

		o.logger.Infof("No procedure found, starting from the first step")
		o.unmount()
		o.session.SetCursor(0)
		o.session.ClearJobs()
		o.session.SetSelectedNodes(nil)

		return o.mountCurrent(ctx, Data{ClusterID: clusterID})
	}

	idx, err := procedure.StepIndexOf(proc.State)
	if err != nil {
		return fmt.Errorf("could not resume wizard: %w", err)
	}

	o.unmount()
	o.session.SetCursor(idx)
	o.session.SetNodeJobID(proc.NodeJobID)
	o.session.SetJobID(proc.JobID)
	o.session.SetSelectedNodes(proc.Nodes)
	o.logger.Infof("Resumed on step %d (%s)", idx, proc.State)

	return o.mountCurrent(ctx, Data{
		ClusterID: clusterID,
		NodeJobID: proc.NodeJobID,
		JobID:     proc.JobID,
		Nodes:     copyNodes(proc.Nodes),
	})
}

// Advance commits the current step and moves to the next one. When the commit
// fails nothing changes and the error is returned.
func (o *Orchestrator) Advance(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	cursor := o.session.Cursor()
	step := o.current()

	out, err := step.Commit(ctx)
	if err != nil {
		o.refresh()
		return fmt.Errorf("could not commit step %q: %w", step.Name(), err)
	}

	if out.ClusterID == "" {
		out.ClusterID = o.session.ClusterID()
	}

	o.unmount()
	o.session.SetCursor(cursor + 1)
	o.session.SetNodeJobID(out.NodeJobID)
	o.session.SetJobID(out.JobID)
	o.session.SetSelectedNodes(out.Nodes)
	o.logger.Infof("Step %q committed, moving to step %d", step.Name(), cursor+1)

	return o.mountCurrent(ctx, out)
}

// Previous moves back to the previous step. Only local steps can be revisited,
// once a server job exists going back is refused.
func (o *Orchestrator) Previous(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.canGoBack() {
		return fmt.Errorf("can't go back from step %d: %w", o.session.Cursor(), model.ErrNotValid)
	}

	o.unmount()
	o.session.SetCursor(o.session.Cursor() - 1)

	return o.mountCurrent(ctx, Data{
		ClusterID: o.session.ClusterID(),
		Nodes:     o.session.SelectedNodes(),
	})
}

// Retry restarts the job of the current step.
func (o *Orchestrator) Retry(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	step := o.current()
	jh, ok := step.(JobHost)
	if !ok {
		return fmt.Errorf("step %q has no job to retry: %w", step.Name(), model.ErrNotValid)
	}

	id, err := jh.Retry(ctx)
	if err != nil {
		o.refresh()
		return fmt.Errorf("could not retry step %q: %w", step.Name(), err)
	}

	o.session.SetNodeJobID(id)
	o.refresh()
	o.logger.Infof("Step %q retried with node job %s", step.Name(), id)

	return nil
}

// Wait blocks until the job of the current step stops polling. Steps without
// job return right away.
func (o *Orchestrator) Wait(ctx context.Context) error {
	o.mu.Lock()
	step := o.current()
	o.mu.Unlock()

	jh, ok := step.(JobHost)
	if !ok {
		return nil
	}

	if err := jh.Wait(ctx); err != nil {
		return err
	}

	o.Refresh()
	return nil
}

// Refresh recomputes the page disable flags from the current step state and stores them.
func (o *Orchestrator) Refresh() model.PageDisabled {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.refresh()
}

// Cursor returns the wizard cursor, the ordinal of the full onboarding sequence.
func (o *Orchestrator) Cursor() int { return o.session.Cursor() }

// Current returns the step rendered for the current cursor.
func (o *Orchestrator) Current() Step {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.current()
}

// Terminal returns true when the wizard is on its last step.
func (o *Orchestrator) Terminal() bool {
	return o.currentIndex() == len(o.steps)-1
}

// StepList returns the full onboarding sequence with the status of each step.
func (o *Orchestrator) StepList() []StepView {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.stepList()
}

// Snapshot returns the current wizard state.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()

	snap := Snapshot{
		Session:  o.session.Snapshot(),
		StepName: o.current().Name(),
		Steps:    o.stepList(),
	}
	if jh, ok := o.current().(JobHost); ok {
		st := jh.JobStatus()
		snap.Job = &st
	}

	return snap
}

// stepList must be called with the lock held.
func (o *Orchestrator) stepList() []StepView {
	cursor := o.session.Cursor()
	failed := false
	if jh, ok := o.current().(JobHost); ok {
		failed = jh.JobStatus().State == model.JobExecStateError
	}

	infos := procedure.Steps()
	views := make([]StepView, 0, len(infos))
	for _, info := range infos {
		v := StepView{Index: info.Index, Label: info.Label}
		switch {
		case info.Index < cursor:
			v.Status = StepStatusFinish
		case info.Index == cursor && failed:
			v.Status = StepStatusError
		case info.Index == cursor:
			v.Status = StepStatusProcess
		default:
			v.Status = StepStatusWait
		}
		views = append(views, v)
	}

	return views
}

// Close unmounts the current step.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.unmount()
}

func (o *Orchestrator) currentIndex() int {
	cursor := o.session.Cursor()
	last := len(o.steps) - 1
	if cursor > last {
		return last
	}
	if cursor < 0 {
		return 0
	}
	return cursor
}

func (o *Orchestrator) current() Step { return o.steps[o.currentIndex()] }

func (o *Orchestrator) canGoBack() bool {
	idx := o.currentIndex()
	if idx == 0 || idx == len(o.steps)-1 {
		return false
	}

	return o.session.NodeJobID() == "" && o.session.JobID() == ""
}

// mountCurrent must be called with the lock held.
func (o *Orchestrator) mountCurrent(ctx context.Context, in Data) error {
	defer o.refresh()

	step := o.current()
	m, ok := step.(Mounter)
	if !ok {
		return nil
	}

	if err := m.Mount(ctx, in); err != nil {
		return fmt.Errorf("could not mount step %q: %w", step.Name(), err)
	}
	o.mounted = m

	return nil
}

// unmount must be called with the lock held.
func (o *Orchestrator) unmount() {
	if o.mounted == nil {
		return
	}

	o.mounted.Unmount()
	o.mounted = nil
}

// refresh must be called with the lock held.
func (o *Orchestrator) refresh() model.PageDisabled {
	pd := model.PageDisabled{
		Next:   o.currentIndex() == len(o.steps)-1,
		Retry:  true,
		Prev:   !o.canGoBack(),
		Cancel: true,
	}

	if jh, ok := o.current().(JobHost); ok {
		st := jh.JobStatus()
		pd.Next = !(st.Terminal && st.State == model.JobExecStateOK)
		pd.Retry = st.State != model.JobExecStateError
		pd.Cancel = st.Terminal
	}

	o.session.SetPageDisabled(pd)

	return pd
}
