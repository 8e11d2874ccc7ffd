package next

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

// ServiceConfig is the configuration for the next service.
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
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Next"})

	return nil
}

// Service moves the onboarding wizard of a cluster one step forward.
type Service struct {
	cli          client.Client
	repo         storage.Repository
	pollInterval time.Duration
	logger       log.Logger
}

// NewService creates a new next service.
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

// Request represents the next request parameters.
type Request struct {
	ClusterID string
	// Parse is the input of the parse step.
	Parse *model.ParseRequest
	// Select are the hostnames selected on the choose step.
	Select []string
	// SelectAll selects all the parsed nodes on the choose step.
	SelectAll bool
	// Retry restarts the failed job of the current step instead of moving forward.
	Retry bool
	// Wait blocks until the job of the step the wizard ends on finishes.
	Wait bool
}

// Response is the result of moving the wizard.
type Response struct {
	// Step is the name of the committed (or retried) step.
	Step     string
	Snapshot wizard.Snapshot
}

// Run resumes the wizard from the server procedure and commits the current step.
// Steps that gate on a job wait until the job finishes before committing.
func (s *Service) Run(ctx context.Context, req Request) (*Response, error) {
	if req.ClusterID == "" {
		return nil, fmt.Errorf("cluster id is required: %w", model.ErrNotValid)
	}

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

	step := orch.Current()
	if req.Retry {
		return s.retry(ctx, orch, sess, step, req.Wait)
	}

	switch st := step.(type) {
	case *steps.ParseStep:
		if req.Parse != nil {
			st.SetRequest(*req.Parse)
		}
	case *steps.ChooseStep:
		if req.SelectAll {
			st.SelectAll()
		} else {
			st.Select(req.Select...)
		}
	}

	if err := orch.Wait(ctx); err != nil {
		return nil, fmt.Errorf("could not wait for step %q job: %w", step.Name(), err)
	}

	cursor := orch.Cursor()
	advanceErr := orch.Advance(ctx)

	// A moved cursor means the step was committed even if the next step could not be mounted.
	rec := model.StepRecord{
		ClusterID: req.ClusterID,
		StepIndex: cursor,
		StepName:  step.Name(),
		Status:    model.StepRecordStatusCommitted,
	}
	if orch.Cursor() == cursor {
		rec.Status = model.StepRecordStatusFailed
	}
	if advanceErr != nil {
		rec.Error = advanceErr.Error()
	}
	if err := s.repo.AddStepRecord(ctx, rec); err != nil {
		return nil, fmt.Errorf("could not store step history: %w", err)
	}

	if err := s.repo.SaveSession(ctx, sess.Snapshot()); err != nil {
		return nil, fmt.Errorf("could not save session: %w", err)
	}

	if advanceErr != nil {
		return nil, advanceErr
	}
	s.logger.Infof("step %q committed on cluster %s", step.Name(), req.ClusterID)

	if req.Wait {
		if err := orch.Wait(ctx); err != nil {
			return nil, fmt.Errorf("could not wait for the next step job: %w", err)
		}
		if err := s.repo.SaveSession(ctx, sess.Snapshot()); err != nil {
			return nil, fmt.Errorf("could not save session: %w", err)
		}
	}

	return &Response{Step: step.Name(), Snapshot: orch.Snapshot()}, nil
}

func (s *Service) retry(ctx context.Context, orch *wizard.Orchestrator, sess *session.Session, step wizard.Step, wait bool) (*Response, error) {
	retryErr := orch.Retry(ctx)
	if err := s.repo.SaveSession(ctx, sess.Snapshot()); err != nil {
		return nil, fmt.Errorf("could not save session: %w", err)
	}
	if retryErr != nil {
		return nil, retryErr
	}
	s.logger.Infof("step %q job restarted as %s", step.Name(), sess.NodeJobID())

	if wait {
		if err := orch.Wait(ctx); err != nil {
			return nil, fmt.Errorf("could not wait for step %q job: %w", step.Name(), err)
		}
		if err := s.repo.SaveSession(ctx, sess.Snapshot()); err != nil {
			return nil, fmt.Errorf("could not save session: %w", err)
		}
	}

	return &Response{Step: step.Name(), Snapshot: orch.Snapshot()}, nil
}
