// Package fake has a simulated master API. Jobs advance one step on every
// progress request so the whole onboarding can be driven without a cluster.
package fake

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/slok/nodeinit/internal/client"
	"github.com/slok/nodeinit/internal/log"
	"github.com/slok/nodeinit/internal/model"
)

// Job names.
const (
	JobDetect      = "detect"
	JobCheck       = "check"
	JobDispatch    = "dispatch"
	JobStartWorker = "start-worker"
)

type jobKind struct {
	procedure model.ProcedureState
	steps     []string
	running   model.ExecState
	ok        model.ExecState
	failed    model.ExecState
}

var jobKinds = map[string]jobKind{
	JobDetect: {
		procedure: model.ProcedureStateDetect,
		steps:     []string{"ssh-connect", "os-release", "resources"},
		running:   model.ExecStateDetecting,
		ok:        model.ExecStateActive,
		failed:    model.ExecStateInactive,
	},
	JobCheck: {
		procedure: model.ProcedureStateCheck,
		steps:     []string{"cpu", "memory", "disk", "network"},
		running:   model.ExecStateChecking,
		ok:        model.ExecStateCheckOK,
		failed:    model.ExecStateCheckError,
	},
	JobDispatch: {
		procedure: model.ProcedureStateDispatch,
		steps:     []string{"push-packages", "push-scripts"},
		running:   model.ExecStatePushing,
		ok:        model.ExecStatePushOK,
		failed:    model.ExecStatePushError,
	},
	JobStartWorker: {
		procedure: model.ProcedureStateStartWorker,
		steps:     []string{"install-worker", "start-worker", "register"},
		running:   model.ExecStateStartingWorker,
		ok:        model.ExecStateStartWorkerOK,
		failed:    model.ExecStateStartWorkerError,
	},
}

// ClientConfig is the configuration of the fake master API.
type ClientConfig struct {
	// FailOn makes the job of a hostname fail once, it maps hostnames to job names.
	FailOn map[string]string
	Logger log.Logger
}

func (c *ClientConfig) defaults() error {
	for h, j := range c.FailOn {
		if _, ok := jobKinds[j]; !ok {
			return fmt.Errorf("unknown job %q for host %q", j, h)
		}
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "client.Fake"})

	return nil
}

type nodeJob struct {
	id      string
	name    string
	cluster string
	nodes   []*nodeRun
}

type nodeRun struct {
	node   model.Node
	step   int
	fail   bool
	logBuf strings.Builder
}

type cluster struct {
	procedure model.Procedure
	nodes     map[string]model.Node
}

// Client is a fake implementation of client.Client.
type Client struct {
	failOn map[string]string
	logger log.Logger

	mu       sync.Mutex
	clusters map[string]*cluster
	jobs     map[string]*nodeJob
}

// NewClient returns a new fake master API without clusters.
func NewClient(cfg ClientConfig) (*Client, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	failOn := make(map[string]string, len(cfg.FailOn))
	for h, j := range cfg.FailOn {
		failOn[h] = j
	}

	return &Client{
		failOn:   failOn,
		logger:   cfg.Logger,
		clusters: map[string]*cluster{},
		jobs:     map[string]*nodeJob{},
	}, nil
}

var _ client.Client = &Client{}

func notFound(msg string) error {
	return fmt.Errorf("%w: %w", model.ErrNotFound, &client.APIError{Code: client.CodeNotFound, Message: msg})
}

func (c *Client) GetProcedure(_ context.Context, clusterID string) (*model.Procedure, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cl, ok := c.clusters[clusterID]
	if !ok {
		return nil, notFound(fmt.Sprintf("cluster %s has no procedure", clusterID))
	}

	p := cl.procedure
	p.Nodes = make([]model.Node, 0, len(cl.procedure.Nodes))
	for _, n := range cl.procedure.Nodes {
		p.Nodes = append(p.Nodes, cl.nodes[n.ID])
	}

	return &p, nil
}

// GetJobProgress always fails, cluster jobs are not simulated.
func (c *Client) GetJobProgress(_ context.Context, jobID string) (*model.JobProgress, error) {
	return nil, notFound(fmt.Sprintf("job %s not found", jobID))
}

// GetNodeJobProgress returns the node job progress and advances it one step.
func (c *Client) GetNodeJobProgress(_ context.Context, nodeJobID string) (*model.JobProgress, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	j, ok := c.jobs[nodeJobID]
	if !ok {
		return nil, notFound(fmt.Sprintf("node job %s not found", nodeJobID))
	}

	kind := jobKinds[j.name]
	p := &model.JobProgress{JobID: j.id, Kind: model.JobKindNode}
	for _, r := range j.nodes {
		c.advance(j, r, kind)
		p.Nodes = append(p.Nodes, progressOf(r, kind))
	}
	p.State = model.UnionJobExecState(p.NodeStates()...)

	return p, nil
}

// advance must be called with the lock held.
func (c *Client) advance(j *nodeJob, r *nodeRun, kind jobKind) {
	if r.step >= len(kind.steps) {
		return
	}

	name := kind.steps[r.step]
	r.step++

	state := model.JobExecStateOK
	nodeState := kind.running
	switch {
	case r.step == len(kind.steps) && r.fail:
		state = model.JobExecStateError
		nodeState = kind.failed
	case r.step == len(kind.steps):
		nodeState = kind.ok
	}
	fmt.Fprintf(&r.logBuf, "[%s] %s %s: %s\n", j.name, r.node.Hostname, name, state)

	r.node.State = nodeState
	if cl, ok := c.clusters[j.cluster]; ok {
		n := cl.nodes[r.node.ID]
		n.State = nodeState
		cl.nodes[r.node.ID] = n
	}
}

func progressOf(r *nodeRun, kind jobKind) model.NodeExecProgress {
	np := model.NodeExecProgress{
		NodeID:   r.node.ID,
		Hostname: r.node.Hostname,
		Percent:  float64(r.step) * 100 / float64(len(kind.steps)),
		State:    model.JobExecStateRunning,
	}

	for i, name := range kind.steps {
		st := model.JobExecStateNotExist
		if i < r.step {
			st = model.JobExecStateOK
		}
		if i == len(kind.steps)-1 && r.step == len(kind.steps) && r.fail {
			st = model.JobExecStateError
		}
		np.Steps = append(np.Steps, model.ExecStep{Index: i + 1, Name: name, State: st})
	}

	if r.step == len(kind.steps) {
		np.State = model.JobExecStateOK
		if r.fail {
			np.State = model.JobExecStateError
		}
	}

	return np
}

func (c *Client) ParseHostnames(_ context.Context, req client.ParseHostnamesRequest) ([]model.Node, error) {
	if req.ClusterID == "" {
		return nil, &client.APIError{Code: "P1001", Message: "cluster id is required"}
	}

	var hostnames []string
	for _, pattern := range req.Hostnames {
		hs, err := ExpandHostnames(pattern)
		if err != nil {
			return nil, &client.APIError{Code: "P1002", Message: err.Error()}
		}
		hostnames = append(hostnames, hs...)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	cl := &cluster{
		procedure: model.Procedure{ClusterID: req.ClusterID, State: model.ProcedureStateParseHostname},
		nodes:     map[string]model.Node{},
	}

	seen := map[string]struct{}{}
	nodes := make([]model.Node, 0, len(hostnames))
	for _, h := range hostnames {
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		n := model.Node{
			ID:       ulid.Make().String(),
			Hostname: h,
			IP:       fmt.Sprintf("10.0.%d.%d", len(nodes)/250, len(nodes)%250+1),
			SSHPort:  req.SSHPort,
			State:    model.ExecStateResolved,
		}
		cl.nodes[n.ID] = n
		nodes = append(nodes, n)
	}
	cl.procedure.Nodes = nodes
	c.clusters[req.ClusterID] = cl
	c.logger.Infof("Parsed %d hostnames for cluster %s", len(nodes), req.ClusterID)

	res := make([]model.Node, len(nodes))
	copy(res, nodes)
	return res, nil
}

func (c *Client) Detect(_ context.Context, req client.NodeJobRequest) (string, error) {
	return c.startJob(JobDetect, req)
}

func (c *Client) Check(_ context.Context, req client.NodeJobRequest) (string, error) {
	return c.startJob(JobCheck, req)
}

func (c *Client) Dispatch(_ context.Context, req client.NodeJobRequest) (string, error) {
	return c.startJob(JobDispatch, req)
}

func (c *Client) StartWorker(_ context.Context, req client.NodeJobRequest) (string, error) {
	return c.startJob(JobStartWorker, req)
}

func (c *Client) AddNodes(_ context.Context, req client.NodeJobRequest) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	cl, ok := c.clusters[req.ClusterID]
	if !ok {
		return notFound(fmt.Sprintf("cluster %s has no procedure", req.ClusterID))
	}

	cl.procedure.State = model.ProcedureStateAddNodeDone
	cl.procedure.NodeJobID = ""
	cl.procedure.Nodes = onlyKnown(cl, req.Nodes)
	c.logger.Infof("Added %d nodes to cluster %s", len(cl.procedure.Nodes), req.ClusterID)

	return nil
}

func (c *Client) GetLog(_ context.Context, req client.LogRequest) (*model.LogChunk, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	j, ok := c.jobs[req.JobID]
	if !ok {
		return nil, notFound(fmt.Sprintf("node job %s not found", req.JobID))
	}

	kind := jobKinds[j.name]
	for _, r := range j.nodes {
		if r.node.ID != req.NodeID {
			continue
		}

		content := r.logBuf.String()
		offset := req.Offset
		if offset < 0 || offset > int64(len(content)) {
			offset = int64(len(content))
		}

		return &model.LogChunk{
			NodeID:  req.NodeID,
			Content: content[offset:],
			Offset:  int64(len(content)),
			Done:    r.step >= len(kind.steps),
		}, nil
	}

	return nil, notFound(fmt.Sprintf("node %s not in node job %s", req.NodeID, req.JobID))
}

func (c *Client) startJob(name string, req client.NodeJobRequest) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cl, ok := c.clusters[req.ClusterID]
	if !ok {
		return "", notFound(fmt.Sprintf("cluster %s has no procedure", req.ClusterID))
	}

	nodes := onlyKnown(cl, req.Nodes)
	if len(nodes) == 0 {
		return "", &client.APIError{Code: "N1001", Message: "no known nodes on request"}
	}

	j := &nodeJob{id: ulid.Make().String(), name: name, cluster: req.ClusterID}
	for _, n := range nodes {
		r := &nodeRun{node: n}
		if c.failOn[n.Hostname] == name {
			r.fail = true
			delete(c.failOn, n.Hostname)
		}
		j.nodes = append(j.nodes, r)
	}
	c.jobs[j.id] = j

	cl.procedure.State = jobKinds[name].procedure
	cl.procedure.NodeJobID = j.id
	cl.procedure.Nodes = nodes
	c.logger.Infof("Started %s node job %s with %d nodes", name, j.id, len(nodes))

	return j.id, nil
}

// onlyKnown must be called with the lock held.
func onlyKnown(cl *cluster, nodes []model.Node) []model.Node {
	res := make([]model.Node, 0, len(nodes))
	for _, n := range nodes {
		if known, ok := cl.nodes[n.ID]; ok {
			res = append(res, known)
		}
	}
	return res
}
