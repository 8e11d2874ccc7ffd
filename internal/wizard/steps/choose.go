package steps

import (
	"context"
	"fmt"
	"sync"

	"github.com/slok/nodeinit/internal/client"
	"github.com/slok/nodeinit/internal/model"
	"github.com/slok/nodeinit/internal/wizard"
)

// ChooseStep selects the parsed nodes that will be onboarded and starts their detection.
type ChooseStep struct {
	cli client.Client

	mu        sync.Mutex
	clusterID string
	jobID     string
	available []model.Node
	selected  []string
}

// NewChooseStep returns a new choose step.
func NewChooseStep(cli client.Client) (*ChooseStep, error) {
	if cli == nil {
		return nil, fmt.Errorf("client is required")
	}

	return &ChooseStep{cli: cli}, nil
}

func (s *ChooseStep) Name() string { return "choose" }

func (s *ChooseStep) Mount(_ context.Context, in wizard.Data) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clusterID = in.ClusterID
	s.jobID = in.JobID
	s.available = copyNodes(in.Nodes)
	s.selected = nil
	return nil
}

func (s *ChooseStep) Unmount() {}

// Available returns the nodes that can be selected.
func (s *ChooseStep) Available() []model.Node {
	s.mu.Lock()
	defer s.mu.Unlock()

	return copyNodes(s.available)
}

// Select sets the selected nodes by hostname, it's validated on commit.
func (s *ChooseStep) Select(hostnames ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.selected = append([]string(nil), hostnames...)
}

// SelectAll selects every available node.
func (s *ChooseStep) SelectAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.selected = make([]string, 0, len(s.available))
	for _, n := range s.available {
		s.selected = append(s.selected, n.Hostname)
	}
}

// Commit starts the detection of the selected nodes.
func (s *ChooseStep) Commit(ctx context.Context) (wizard.Data, error) {
	s.mu.Lock()
	clusterID, jobID := s.clusterID, s.jobID
	available := copyNodes(s.available)
	selected := append([]string(nil), s.selected...)
	s.mu.Unlock()

	if len(selected) == 0 {
		return wizard.Data{}, fmt.Errorf("at least one node must be selected: %w", model.ErrStepValidation)
	}

	byHostname := make(map[string]model.Node, len(available))
	for _, n := range available {
		byHostname[n.Hostname] = n
	}

	nodes := make([]model.Node, 0, len(selected))
	seen := map[string]struct{}{}
	for _, h := range selected {
		n, ok := byHostname[h]
		if !ok {
			return wizard.Data{}, fmt.Errorf("unknown node %q: %w", h, model.ErrStepValidation)
		}
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		nodes = append(nodes, n)
	}

	id, err := s.cli.Detect(ctx, client.NodeJobRequest{
		ClusterID: clusterID,
		SSHPort:   sshPort(nodes),
		Nodes:     nodes,
	})
	if err != nil {
		return wizard.Data{}, fmt.Errorf("could not start node detection: %w", err)
	}

	return wizard.Data{ClusterID: clusterID, NodeJobID: id, JobID: jobID, Nodes: nodes}, nil
}
