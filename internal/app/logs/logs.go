package logs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/slok/nodeinit/internal/client"
	"github.com/slok/nodeinit/internal/log"
	"github.com/slok/nodeinit/internal/logtail"
	"github.com/slok/nodeinit/internal/model"
)

// ServiceConfig is the configuration for the logs service.
type ServiceConfig struct {
	Client client.Client
	Logger log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Client == nil {
		return fmt.Errorf("client is required")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Logs"})

	return nil
}

// Service gets the job logs of a node.
type Service struct {
	cli    client.Client
	logger log.Logger
}

// NewService creates a new logs service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		cli:    cfg.Client,
		logger: cfg.Logger,
	}, nil
}

// Request represents the logs request parameters.
type Request struct {
	// ClusterID is used to get the node job of the current procedure when no job is set,
	// and to resolve nodes by hostname.
	ClusterID string
	// Node is the node ID or hostname.
	Node      string
	JobID     string
	NodeJobID string
	// Follow tails the log until the node finishes.
	Follow bool
	// Reverse shows the newest fragments first while following.
	Reverse  bool
	Interval time.Duration
	// OnFragment is called for every new log fragment while following.
	OnFragment func(fragment string)
}

// Response is the node log.
type Response struct {
	NodeID  string
	Content string
	Done    bool
}

// Run gets the node log, when following it blocks until the log is done.
func (s *Service) Run(ctx context.Context, req Request) (*Response, error) {
	logReq, err := s.logRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	if !req.Follow {
		chunk, err := s.cli.GetLog(ctx, logReq)
		if err != nil {
			return nil, fmt.Errorf("could not get log: %w", err)
		}

		return &Response{NodeID: logReq.NodeID, Content: chunk.Content, Done: chunk.Done}, nil
	}

	tailer, err := logtail.NewTailer(logtail.TailerConfig{
		Client:      s.cli,
		Request:     logReq,
		AppendToEnd: !req.Reverse,
		Interval:    req.Interval,
		OnFragment:  req.OnFragment,
		Logger:      s.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create log tailer: %w", err)
	}

	tailer.Start(ctx)
	defer tailer.Stop()

	if err := tailer.Wait(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return nil, err
	}

	return &Response{
		NodeID:  logReq.NodeID,
		Content: tailer.Buffer().String(),
		Done:    tailer.Status().Terminal,
	}, nil
}

func (s *Service) logRequest(ctx context.Context, req Request) (client.LogRequest, error) {
	if req.Node == "" {
		return client.LogRequest{}, fmt.Errorf("node is required: %w", model.ErrNotValid)
	}

	logReq := client.LogRequest{ClusterID: req.ClusterID, NodeID: req.Node}
	switch {
	case req.NodeJobID != "":
		logReq.JobID, logReq.Kind = req.NodeJobID, model.JobKindNode
	case req.JobID != "":
		logReq.JobID, logReq.Kind = req.JobID, model.JobKindCluster
	}

	if req.ClusterID == "" {
		if logReq.JobID == "" {
			return client.LogRequest{}, fmt.Errorf("a cluster, job or node job id is required: %w", model.ErrNotValid)
		}
		return logReq, nil
	}

	proc, err := s.cli.GetProcedure(ctx, req.ClusterID)
	if err != nil {
		return client.LogRequest{}, fmt.Errorf("could not get procedure: %w", err)
	}

	if logReq.JobID == "" {
		switch {
		case proc.NodeJobID != "":
			logReq.JobID, logReq.Kind = proc.NodeJobID, model.JobKindNode
		case proc.JobID != "":
			logReq.JobID, logReq.Kind = proc.JobID, model.JobKindCluster
		default:
			return client.LogRequest{}, fmt.Errorf("cluster %s has no job running: %w", req.ClusterID, model.ErrNotFound)
		}
	}

	for _, n := range proc.Nodes {
		if n.ID == req.Node || n.Hostname == req.Node {
			logReq.NodeID = n.ID
			return logReq, nil
		}
	}

	return client.LogRequest{}, fmt.Errorf("node %s is not part of cluster %s procedure: %w", req.Node, req.ClusterID, model.ErrNotFound)
}
