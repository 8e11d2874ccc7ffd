package io

import (
	"context"
	"fmt"
	"io/fs"

	"gopkg.in/yaml.v3"

	"github.com/slok/nodeinit/internal/model"
)

const defaultSSHPort = 22

// NodesYAMLRepository loads the hostname parse input from YAML files.
type NodesYAMLRepository struct {
	fs fs.FS
}

// NewNodesYAMLRepository creates a new YAML nodes repository.
func NewNodesYAMLRepository(filesystem fs.FS) *NodesYAMLRepository {
	return &NodesYAMLRepository{fs: filesystem}
}

// GetParseRequest loads a nodes file and returns a validated parse request.
// The cluster ID is used when the file doesn't set one.
func (r *NodesYAMLRepository) GetParseRequest(ctx context.Context, path, clusterID string) (model.ParseRequest, error) {
	data, err := fs.ReadFile(r.fs, path)
	if err != nil {
		return model.ParseRequest{}, fmt.Errorf("reading nodes file: %w", err)
	}

	if ctx.Err() != nil {
		return model.ParseRequest{}, ctx.Err()
	}

	var cfg NodesConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return model.ParseRequest{}, fmt.Errorf("parsing YAML: %w", err)
	}

	req := cfg.toModel(clusterID)
	if err := req.Validate(); err != nil {
		return model.ParseRequest{}, fmt.Errorf("invalid nodes file: %w", err)
	}

	return req, nil
}

// NodesConfig represents the YAML structure of a nodes file.
type NodesConfig struct {
	ClusterID string   `yaml:"cluster_id"`
	SSHPort   int      `yaml:"ssh_port"`
	Hostnames []string `yaml:"hostnames"`
}

func (c NodesConfig) toModel(clusterID string) model.ParseRequest {
	req := model.ParseRequest{
		ClusterID: c.ClusterID,
		Hostnames: c.Hostnames,
		SSHPort:   c.SSHPort,
	}

	if req.ClusterID == "" {
		req.ClusterID = clusterID
	}

	if req.SSHPort == 0 {
		req.SSHPort = defaultSSHPort
	}

	return req
}
