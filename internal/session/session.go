// Package session has the shared onboarding wizard state read and written by the
// orchestrator, its steps and the commands that print it.
//
// All mutations go through named methods so the writers are easy to audit, and
// the state is mutex guarded because steps poll from their own goroutines.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/slok/nodeinit/internal/model"
	"github.com/slok/nodeinit/internal/storage"
)

// Session is the wizard session of a single cluster.
type Session struct {
	mu            sync.RWMutex
	clusterID     string
	nodeJobID     string
	jobID         string
	cursor        int
	selectedNodes []model.Node
	pageDisabled  model.PageDisabled
	updatedAt     time.Time
	now           func() time.Time
}

// New returns a new empty session for a cluster.
func New(clusterID string) *Session {
	return &Session{
		clusterID:    clusterID,
		pageDisabled: model.DefaultPageDisabled(),
		now:          time.Now,
	}
}

// FromModel rebuilds a session from its persisted form.
func FromModel(m model.Session) *Session {
	return &Session{
		clusterID:     m.ClusterID,
		nodeJobID:     m.NodeJobID,
		jobID:         m.JobID,
		cursor:        m.Cursor,
		selectedNodes: copyNodes(m.SelectedNodes),
		pageDisabled:  m.PageDisabled,
		updatedAt:     m.UpdatedAt,
		now:           time.Now,
	}
}

// Load returns the stored session of a cluster, or a new one if there is none.
func Load(ctx context.Context, repo storage.Repository, clusterID string) (*Session, error) {
	m, err := repo.GetSession(ctx, clusterID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return New(clusterID), nil
		}
		return nil, fmt.Errorf("could not get session: %w", err)
	}

	return FromModel(*m), nil
}

// Snapshot returns a copy of the session state.
func (s *Session) Snapshot() model.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return model.Session{
		ClusterID:     s.clusterID,
		NodeJobID:     s.nodeJobID,
		JobID:         s.jobID,
		Cursor:        s.cursor,
		SelectedNodes: copyNodes(s.selectedNodes),
		PageDisabled:  s.pageDisabled,
		UpdatedAt:     s.updatedAt,
	}
}

func (s *Session) ClusterID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clusterID
}

func (s *Session) Cursor() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cursor
}

func (s *Session) NodeJobID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nodeJobID
}

func (s *Session) JobID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.jobID
}

func (s *Session) SelectedNodes() []model.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyNodes(s.selectedNodes)
}

func (s *Session) PageDisabled() model.PageDisabled {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pageDisabled
}

// SetCluster changes the target cluster, the rest of the state belongs to the
// previous cluster so it's reset.
func (s *Session) SetCluster(clusterID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.clusterID == clusterID {
		return
	}

	s.clusterID = clusterID
	s.nodeJobID = ""
	s.jobID = ""
	s.cursor = 0
	s.selectedNodes = nil
	s.pageDisabled = model.DefaultPageDisabled()
	s.touch()
}

func (s *Session) SetCursor(cursor int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursor = cursor
	s.touch()
}

func (s *Session) SetNodeJobID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodeJobID = id
	s.touch()
}

func (s *Session) SetJobID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobID = id
	s.touch()
}

func (s *Session) SetSelectedNodes(nodes []model.Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedNodes = copyNodes(nodes)
	s.touch()
}

func (s *Session) SetPageDisabled(pd model.PageDisabled) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pageDisabled = pd
	s.touch()
}

// ClearJobs forgets the node job and job IDs.
func (s *Session) ClearJobs() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodeJobID = ""
	s.jobID = ""
	s.touch()
}

// touch must be called with the lock held.
func (s *Session) touch() {
	s.updatedAt = s.now().UTC()
}

func copyNodes(nodes []model.Node) []model.Node {
	if nodes == nil {
		return nil
	}
	c := make([]model.Node, len(nodes))
	copy(c, nodes)
	return c
}
