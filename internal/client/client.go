// Package client has the contract of the cluster master API used by the onboarding wizard.
package client

import (
	"context"
	"fmt"

	"github.com/slok/nodeinit/internal/model"
)

const (
	// CodeOK is the response code of a successful call.
	CodeOK = "00000"
	// CodeNotFound is the response code used when there is no job for the target yet.
	CodeNotFound = "D1001"
)

// APIError is an error response returned by the master API.
type APIError struct {
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %s: %s", e.Code, e.Message)
}

// ParseHostnamesRequest asks the backend to expand and register hostname patterns.
type ParseHostnamesRequest struct {
	ClusterID string
	Hostnames []string
	SSHPort   int
}

// NodeJobRequest starts (or finishes) a node job over a set of nodes.
type NodeJobRequest struct {
	ClusterID string
	SSHPort   int
	Nodes     []model.Node
}

// LogRequest asks for the log of a node inside a job from an offset.
type LogRequest struct {
	ClusterID string
	NodeID    string
	JobID     string
	Kind      model.JobKind
	Offset    int64
}

//go:generate mockery --case underscore --output clientmock --outpkg clientmock --name Client --structname MockClient

// Client is the master API client.
type Client interface {
	// GetProcedure returns the onboarding procedure of a cluster.
	// It returns model.ErrNotFound when the cluster has no procedure yet.
	GetProcedure(ctx context.Context, clusterID string) (*model.Procedure, error)
	GetJobProgress(ctx context.Context, jobID string) (*model.JobProgress, error)
	GetNodeJobProgress(ctx context.Context, nodeJobID string) (*model.JobProgress, error)

	ParseHostnames(ctx context.Context, req ParseHostnamesRequest) ([]model.Node, error)
	// Detect, Check, Dispatch and StartWorker start a node job and return its ID.
	Detect(ctx context.Context, req NodeJobRequest) (string, error)
	Check(ctx context.Context, req NodeJobRequest) (string, error)
	Dispatch(ctx context.Context, req NodeJobRequest) (string, error)
	StartWorker(ctx context.Context, req NodeJobRequest) (string, error)
	AddNodes(ctx context.Context, req NodeJobRequest) error

	GetLog(ctx context.Context, req LogRequest) (*model.LogChunk, error)
}
