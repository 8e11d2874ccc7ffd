package steps

import (
	"context"
	"fmt"
	"sync"

	"github.com/slok/nodeinit/internal/client"
	"github.com/slok/nodeinit/internal/model"
	"github.com/slok/nodeinit/internal/wizard"
)

// ParseStep registers the hostname patterns of the nodes to onboard.
type ParseStep struct {
	cli client.Client

	mu        sync.Mutex
	clusterID string
	req       model.ParseRequest
}

// NewParseStep returns a new parse step.
func NewParseStep(cli client.Client) (*ParseStep, error) {
	if cli == nil {
		return nil, fmt.Errorf("client is required")
	}

	return &ParseStep{cli: cli}, nil
}

func (s *ParseStep) Name() string { return "parse" }

func (s *ParseStep) Mount(_ context.Context, in wizard.Data) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clusterID = in.ClusterID
	return nil
}

func (s *ParseStep) Unmount() {}

// SetRequest sets the step input, it's validated on commit.
func (s *ParseStep) SetRequest(req model.ParseRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req.Hostnames = append([]string(nil), req.Hostnames...)
	s.req = req
}

// Request returns the step input.
func (s *ParseStep) Request() model.ParseRequest {
	s.mu.Lock()
	defer s.mu.Unlock()

	req := s.req
	req.Hostnames = append([]string(nil), s.req.Hostnames...)
	return req
}

// Commit parses the hostnames on the server and returns the resolved nodes.
func (s *ParseStep) Commit(ctx context.Context) (wizard.Data, error) {
	req := s.Request()

	s.mu.Lock()
	if req.ClusterID == "" {
		req.ClusterID = s.clusterID
	}
	s.mu.Unlock()

	if err := req.Validate(); err != nil {
		return wizard.Data{}, fmt.Errorf("invalid request: %w", err)
	}

	nodes, err := s.cli.ParseHostnames(ctx, client.ParseHostnamesRequest{
		ClusterID: req.ClusterID,
		Hostnames: req.Hostnames,
		SSHPort:   req.SSHPort,
	})
	if err != nil {
		return wizard.Data{}, fmt.Errorf("could not parse hostnames: %w", err)
	}

	if len(nodes) == 0 {
		return wizard.Data{}, fmt.Errorf("hostnames didn't resolve to any node: %w", model.ErrStepValidation)
	}

	for i := range nodes {
		if nodes[i].SSHPort == 0 {
			nodes[i].SSHPort = req.SSHPort
		}
	}

	return wizard.Data{ClusterID: req.ClusterID, Nodes: nodes}, nil
}
