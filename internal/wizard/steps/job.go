package steps

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/slok/nodeinit/internal/client"
	"github.com/slok/nodeinit/internal/log"
	"github.com/slok/nodeinit/internal/model"
	"github.com/slok/nodeinit/internal/poll"
	"github.com/slok/nodeinit/internal/procedure"
	"github.com/slok/nodeinit/internal/wizard"
)

const defaultSSHPort = 22

// NodeJobFunc starts a node job and returns its ID.
type NodeJobFunc func(ctx context.Context, req client.NodeJobRequest) (string, error)

// JobStepConfig is the configuration of a step that gates on a node job.
type JobStepConfig struct {
	Name   string
	Client client.Client
	// Retry starts again the job the step waits on.
	Retry NodeJobFunc
	// Next submits the work of the next step once the job finished successfully.
	Next NodeJobFunc
	// Filter selects the nodes carried to the next step, all nodes are kept by default.
	Filter   func(progress model.JobProgress, nodes []model.Node) []model.Node
	Interval time.Duration
	Logger   log.Logger
}

func (c *JobStepConfig) defaults() error {
	if c.Name == "" {
		return fmt.Errorf("name is required")
	}

	if c.Client == nil {
		return fmt.Errorf("client is required")
	}

	if c.Retry == nil {
		return fmt.Errorf("retry func is required")
	}

	if c.Next == nil {
		return fmt.Errorf("next func is required")
	}

	if c.Filter == nil {
		c.Filter = func(_ model.JobProgress, nodes []model.Node) []model.Node { return nodes }
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "steps.JobStep", "step": c.Name})

	return nil
}

// JobStep is a wizard step that polls the node job started by the previous step
// and only commits once the job finished successfully.
type JobStep struct {
	name   string
	cli    client.Client
	retry  NodeJobFunc
	next   NodeJobFunc
	filter func(model.JobProgress, []model.Node) []model.Node
	poller *poll.Poller[model.JobProgress]
	logger log.Logger

	mu   sync.Mutex
	data wizard.Data
}

// NewJobStep returns a new job step.
func NewJobStep(cfg JobStepConfig) (*JobStep, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	s := &JobStep{
		name:   cfg.Name,
		cli:    cfg.Client,
		retry:  cfg.Retry,
		next:   cfg.Next,
		filter: cfg.Filter,
		logger: cfg.Logger,
	}

	p, err := poll.NewPoller(poll.Config[model.JobProgress]{
		Fetch:      s.fetch,
		StateOf:    func(p model.JobProgress) string { return string(p.OverallState()) },
		StopStates: procedure.StableStates(),
		Interval:   cfg.Interval,
		Logger:     cfg.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create poller: %w", err)
	}
	s.poller = p

	return s, nil
}

func (s *JobStep) Name() string { return s.name }

// Mount starts polling the node job of the input and waits for the first fetch.
func (s *JobStep) Mount(ctx context.Context, in wizard.Data) error {
	if in.NodeJobID == "" {
		return fmt.Errorf("node job id is required: %w", model.ErrNotValid)
	}

	s.mu.Lock()
	s.data = in
	s.data.Nodes = copyNodes(in.Nodes)
	s.mu.Unlock()

	s.poller.Start(ctx)
	s.logger.Debugf("Polling node job %s", in.NodeJobID)

	if err := s.poller.WaitFirst(ctx); err != nil {
		s.poller.Stop()
		return fmt.Errorf("could not get node job progress: %w", err)
	}

	return nil
}

// Unmount stops polling, the latest progress is kept.
func (s *JobStep) Unmount() { s.poller.Stop() }

// Commit submits the next step work when the job finished successfully.
func (s *JobStep) Commit(ctx context.Context) (wizard.Data, error) {
	st := s.JobStatus()
	if st.Progress == nil || !st.Terminal {
		return wizard.Data{}, fmt.Errorf("node job %s still running: %w", st.NodeJobID, model.ErrStepNotReady)
	}

	if st.State == model.JobExecStateError {
		return wizard.Data{}, fmt.Errorf("node job %s failed: %w", st.NodeJobID, model.ErrJobExecution)
	}

	s.mu.Lock()
	data := s.data
	s.mu.Unlock()

	nodes := s.filter(*st.Progress, copyNodes(data.Nodes))
	if len(nodes) == 0 {
		return wizard.Data{}, fmt.Errorf("no nodes left to continue: %w", model.ErrStepValidation)
	}

	id, err := s.next(ctx, client.NodeJobRequest{
		ClusterID: data.ClusterID,
		SSHPort:   sshPort(nodes),
		Nodes:     nodes,
	})
	if err != nil {
		return wizard.Data{}, fmt.Errorf("could not submit nodes: %w", err)
	}

	return wizard.Data{
		ClusterID: data.ClusterID,
		NodeJobID: id,
		JobID:     data.JobID,
		Nodes:     nodes,
	}, nil
}

// Retry starts the job again over the same nodes and polls the new one.
func (s *JobStep) Retry(ctx context.Context) (string, error) {
	st := s.JobStatus()
	if st.State != model.JobExecStateError {
		return "", fmt.Errorf("node job %s has not failed: %w", st.NodeJobID, model.ErrNotValid)
	}

	s.mu.Lock()
	data := s.data
	s.mu.Unlock()

	id, err := s.retry(ctx, client.NodeJobRequest{
		ClusterID: data.ClusterID,
		SSHPort:   sshPort(data.Nodes),
		Nodes:     copyNodes(data.Nodes),
	})
	if err != nil {
		return "", fmt.Errorf("could not restart node job: %w", err)
	}

	s.mu.Lock()
	s.data.NodeJobID = id
	s.mu.Unlock()

	s.poller.Start(ctx)
	s.logger.Infof("Node job %s restarted as %s", data.NodeJobID, id)

	if err := s.poller.WaitFirst(ctx); err != nil {
		s.logger.Warningf("Restarted node job %s progress unknown: %s", id, err)
	}

	return id, nil
}

// Wait blocks until the job polling finishes.
func (s *JobStep) Wait(ctx context.Context) error { return s.poller.Wait(ctx) }

// JobStatus returns the status of the polled job.
func (s *JobStep) JobStatus() wizard.JobStatus {
	s.mu.Lock()
	id := s.data.NodeJobID
	s.mu.Unlock()

	pst := s.poller.Status()
	st := wizard.JobStatus{
		NodeJobID: id,
		State:     model.JobExecStateRunning,
		Terminal:  pst.Terminal,
		Degraded:  pst.Degraded,
	}

	if p, ok := s.poller.Latest(); ok {
		st.Progress = &p
		st.State = p.OverallState()
	}

	return st
}

func (s *JobStep) fetch(ctx context.Context) (model.JobProgress, error) {
	s.mu.Lock()
	id := s.data.NodeJobID
	s.mu.Unlock()

	p, err := s.cli.GetNodeJobProgress(ctx, id)
	if err != nil {
		return model.JobProgress{}, fmt.Errorf("could not get node job progress: %w", err)
	}

	return *p, nil
}

func sshPort(nodes []model.Node) int {
	for _, n := range nodes {
		if n.SSHPort > 0 {
			return n.SSHPort
		}
	}

	return defaultSSHPort
}

func copyNodes(nodes []model.Node) []model.Node {
	if nodes == nil {
		return nil
	}
	c := make([]model.Node, len(nodes))
	copy(c, nodes)
	return c
}
