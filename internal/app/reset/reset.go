package reset

import (
	"context"
	"fmt"

	"github.com/slok/nodeinit/internal/log"
	"github.com/slok/nodeinit/internal/model"
	"github.com/slok/nodeinit/internal/storage"
)

// ServiceConfig is the configuration for the reset service.
type ServiceConfig struct {
	Repository storage.Repository
	Logger     log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Reset"})

	return nil
}

// Service forgets the local wizard session of a cluster. The server procedure is not touched.
type Service struct {
	repo   storage.Repository
	logger log.Logger
}

// NewService creates a new reset service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		repo:   cfg.Repository,
		logger: cfg.Logger,
	}, nil
}

// Request represents the reset request parameters.
type Request struct {
	ClusterID string
}

// Run deletes the stored session and step history of the cluster.
func (s *Service) Run(ctx context.Context, req Request) error {
	if req.ClusterID == "" {
		return fmt.Errorf("cluster id is required: %w", model.ErrNotValid)
	}

	if err := s.repo.DeleteSession(ctx, req.ClusterID); err != nil {
		return fmt.Errorf("could not delete session: %w", err)
	}
	s.logger.Infof("Session of cluster %s deleted", req.ClusterID)

	return nil
}
