package storage

import (
	"context"

	"github.com/slok/nodeinit/internal/model"
)

//go:generate mockery --case underscore --output storagemock --outpkg storagemock --name Repository --structname MockRepository

// Repository is the interface for wizard session persistence.
type Repository interface {
	// GetSession returns model.ErrNotFound when the cluster has no session stored.
	GetSession(ctx context.Context, clusterID string) (*model.Session, error)
	// SaveSession creates or replaces the session of a cluster.
	SaveSession(ctx context.Context, s model.Session) error
	// DeleteSession deletes the session of a cluster and its step history.
	DeleteSession(ctx context.Context, clusterID string) error

	// AddStepRecord appends a step commit attempt to the cluster history, ID and sequence are assigned.
	AddStepRecord(ctx context.Context, r model.StepRecord) error
	// ListStepRecords returns the cluster history in sequence order.
	ListStepRecords(ctx context.Context, clusterID string) ([]model.StepRecord, error)
}
