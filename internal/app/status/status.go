package status

import (
	"context"
	"fmt"
	"time"

	"github.com/slok/nodeinit/internal/client"
	"github.com/slok/nodeinit/internal/log"
	"github.com/slok/nodeinit/internal/model"
	"github.com/slok/nodeinit/internal/session"
	"github.com/slok/nodeinit/internal/storage"
	"github.com/slok/nodeinit/internal/wizard"
	"github.com/slok/nodeinit/internal/wizard/steps"
)

// ServiceConfig is the configuration for the status service.
type ServiceConfig struct {
	Client       client.Client
	Repository   storage.Repository
	PollInterval time.Duration
	Logger       log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Client == nil {
		return fmt.Errorf("client is required")
	}

	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Status"})

	return nil
}

// Service resumes the onboarding wizard of a cluster and reports where it is.
type Service struct {
	cli          client.Client
	repo         storage.Repository
	pollInterval time.Duration
	logger       log.Logger
}

// NewService creates a new status service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		cli:          cfg.Client,
		repo:         cfg.Repository,
		pollInterval: cfg.PollInterval,
		logger:       cfg.Logger,
	}, nil
}

// Request represents the status request parameters.
type Request struct {
	ClusterID string
	// History includes the step commit history of the cluster.
	History bool
}

// Response is the wizard status.
type Response struct {
	Snapshot wizard.Snapshot
	History  []model.StepRecord
}

// Run resumes the wizard from the server procedure, stores the resulting session
// and returns it.
func (s *Service) Run(ctx context.Context, req Request) (*Response, error) {
	if req.ClusterID == "" {
		return nil, fmt.Errorf("cluster id is required: %w", model.ErrNotValid)
	}
	s.logger.Debugf("getting wizard status for cluster: %s", req.ClusterID)

	sess, err := session.Load(ctx, s.repo, req.ClusterID)
	if err != nil {
		return nil, err
	}

	ss, err := steps.NewOnboarding(steps.Config{Client: s.cli, Interval: s.pollInterval, Logger: s.logger})
	if err != nil {
		return nil, fmt.Errorf("could not create wizard steps: %w", err)
	}

	orch, err := wizard.NewOrchestrator(wizard.OrchestratorConfig{
		Client:  s.cli,
		Session: sess,
		Steps:   ss,
		Logger:  s.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create wizard: %w", err)
	}
	defer orch.Close()

	if err := orch.Resume(ctx); err != nil {
		return nil, fmt.Errorf("could not resume wizard: %w", err)
	}

	resp := &Response{Snapshot: orch.Snapshot()}
	if err := s.repo.SaveSession(ctx, resp.Snapshot.Session); err != nil {
		return nil, fmt.Errorf("could not save session: %w", err)
	}

	if req.History {
		resp.History, err = s.repo.ListStepRecords(ctx, req.ClusterID)
		if err != nil {
			return nil, fmt.Errorf("could not list step history: %w", err)
		}
	}

	return resp, nil
}
