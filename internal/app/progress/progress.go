package progress

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/slok/nodeinit/internal/client"
	"github.com/slok/nodeinit/internal/log"
	"github.com/slok/nodeinit/internal/model"
	"github.com/slok/nodeinit/internal/poll"
	"github.com/slok/nodeinit/internal/procedure"
)

// ServiceConfig is the configuration for the progress service.
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
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Progress"})

	return nil
}

// Service gets the execution progress of onboarding and deployment jobs.
type Service struct {
	cli    client.Client
	logger log.Logger
}

// NewService creates a new progress service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		cli:    cfg.Client,
		logger: cfg.Logger,
	}, nil
}

// Request represents the progress request parameters. Only one of the IDs is used,
// with a cluster the job of its current procedure is used.
type Request struct {
	ClusterID string
	JobID     string
	NodeJobID string
	// Watch polls the job until it finishes.
	Watch    bool
	Interval time.Duration
	// OnProgress is called with every progress update while watching.
	OnProgress func(model.JobProgress)
}

// Response is the latest known job progress.
type Response struct {
	Progress model.JobProgress
	// Degraded is true when the progress could not be updated for a while.
	Degraded bool
}

// Run gets the job progress, when watching it blocks until the job reaches a stable state.
func (s *Service) Run(ctx context.Context, req Request) (*Response, error) {
	fetch, err := s.fetcher(ctx, req)
	if err != nil {
		return nil, err
	}

	if !req.Watch {
		p, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		return &Response{Progress: p}, nil
	}

	onProgress := req.OnProgress
	if onProgress == nil {
		onProgress = func(model.JobProgress) {}
	}

	poller, err := poll.NewPoller(poll.Config[model.JobProgress]{
		Fetch:      fetch,
		StateOf:    func(p model.JobProgress) string { return string(p.OverallState()) },
		StopStates: procedure.StableStates(),
		Interval:   req.Interval,
		OnResult:   onProgress,
		Logger:     s.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create poller: %w", err)
	}

	poller.Start(ctx)
	defer poller.Stop()

	waitErr := poller.Wait(ctx)
	p, ok := poller.Latest()
	if !ok {
		if waitErr != nil {
			return nil, waitErr
		}
		if lastErr := poller.Status().LastErr; lastErr != nil {
			return nil, fmt.Errorf("no progress received: %w", lastErr)
		}
		return nil, fmt.Errorf("no progress received")
	}

	return &Response{Progress: p, Degraded: poller.Status().Degraded}, nil
}

func (s *Service) fetcher(ctx context.Context, req Request) (func(context.Context) (model.JobProgress, error), error) {
	jobID, nodeJobID := req.JobID, req.NodeJobID

	switch {
	case nodeJobID != "" || jobID != "":
	case req.ClusterID != "":
		proc, err := s.cli.GetProcedure(ctx, req.ClusterID)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return nil, fmt.Errorf("cluster %s has no onboarding procedure: %w", req.ClusterID, model.ErrNotFound)
			}
			return nil, fmt.Errorf("could not get procedure: %w", err)
		}
		jobID, nodeJobID = proc.JobID, proc.NodeJobID
		if jobID == "" && nodeJobID == "" {
			return nil, fmt.Errorf("cluster %s has no job running: %w", req.ClusterID, model.ErrNotFound)
		}
	default:
		return nil, fmt.Errorf("a cluster, job or node job id is required: %w", model.ErrNotValid)
	}

	if nodeJobID != "" {
		s.logger.Debugf("getting node job %s progress", nodeJobID)
		return func(ctx context.Context) (model.JobProgress, error) {
			p, err := s.cli.GetNodeJobProgress(ctx, nodeJobID)
			if err != nil {
				return model.JobProgress{}, fmt.Errorf("could not get node job progress: %w", err)
			}
			return *p, nil
		}, nil
	}

	s.logger.Debugf("getting job %s progress", jobID)
	return func(ctx context.Context) (model.JobProgress, error) {
		p, err := s.cli.GetJobProgress(ctx, jobID)
		if err != nil {
			return model.JobProgress{}, fmt.Errorf("could not get job progress: %w", err)
		}
		return *p, nil
	}, nil
}
