package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/slok/nodeinit/internal/log"
	"github.com/slok/nodeinit/internal/model"
)

// RepositoryConfig is the configuration for the memory repository.
type RepositoryConfig struct {
	Logger log.Logger
}

func (c *RepositoryConfig) defaults() error {
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.Memory"})
	return nil
}

// Repository is an in-memory implementation of storage.Repository.
type Repository struct {
	sessions    map[string]model.Session
	stepRecords map[string][]model.StepRecord
	mu          sync.RWMutex
	logger      log.Logger
}

// NewRepository creates a new memory repository.
func NewRepository(cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Repository{
		sessions:    make(map[string]model.Session),
		stepRecords: make(map[string][]model.StepRecord),
		logger:      cfg.Logger,
	}, nil
}

// GetSession retrieves the wizard session of a cluster.
func (r *Repository) GetSession(ctx context.Context, clusterID string) (*model.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[clusterID]
	if !ok {
		return nil, fmt.Errorf("session of cluster %s: %w", clusterID, model.ErrNotFound)
	}

	s.SelectedNodes = copyNodes(s.SelectedNodes)
	return &s, nil
}

// SaveSession creates or replaces the wizard session of a cluster.
func (r *Repository) SaveSession(ctx context.Context, s model.Session) error {
	if s.ClusterID == "" {
		return fmt.Errorf("cluster id is required: %w", model.ErrNotValid)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = time.Now().UTC()
	}
	s.SelectedNodes = copyNodes(s.SelectedNodes)
	r.sessions[s.ClusterID] = s
	r.logger.Debugf("Saved session of cluster %s at cursor %d", s.ClusterID, s.Cursor)

	return nil
}

// DeleteSession deletes the wizard session of a cluster and its step history.
func (r *Repository) DeleteSession(ctx context.Context, clusterID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[clusterID]; !ok {
		return fmt.Errorf("session of cluster %s: %w", clusterID, model.ErrNotFound)
	}

	delete(r.sessions, clusterID)
	delete(r.stepRecords, clusterID)
	r.logger.Debugf("Deleted session of cluster %s", clusterID)

	return nil
}

// AddStepRecord appends a step commit attempt to the history of a cluster.
func (r *Repository) AddStepRecord(ctx context.Context, rec model.StepRecord) error {
	if rec.ClusterID == "" {
		return fmt.Errorf("cluster id is required: %w", model.ErrNotValid)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rec.ID = ulid.Make().String()
	rec.Sequence = len(r.stepRecords[rec.ClusterID]) + 1
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	r.stepRecords[rec.ClusterID] = append(r.stepRecords[rec.ClusterID], rec)

	return nil
}

// ListStepRecords returns the step history of a cluster in sequence order.
func (r *Repository) ListStepRecords(ctx context.Context, clusterID string) ([]model.StepRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	recs := r.stepRecords[clusterID]
	if len(recs) == 0 {
		return nil, nil
	}

	res := make([]model.StepRecord, len(recs))
	copy(res, recs)
	return res, nil
}

func copyNodes(nodes []model.Node) []model.Node {
	if nodes == nil {
		return nil
	}
	c := make([]model.Node, len(nodes))
	copy(c, nodes)
	return c
}
