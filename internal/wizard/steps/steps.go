// Package steps has the node onboarding wizard steps.
package steps

import (
	"context"
	"fmt"
	"time"

	"github.com/slok/nodeinit/internal/client"
	"github.com/slok/nodeinit/internal/log"
	"github.com/slok/nodeinit/internal/model"
	"github.com/slok/nodeinit/internal/procedure"
	"github.com/slok/nodeinit/internal/wizard"
)

// Config is the configuration of the node onboarding steps.
type Config struct {
	Client client.Client
	// Interval is the job status polling interval.
	Interval time.Duration
	Logger   log.Logger
}

func (c *Config) defaults() error {
	if c.Client == nil {
		return fmt.Errorf("client is required")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}

	return nil
}

// NewOnboarding returns the node onboarding steps in order: parse, choose, detect,
// check, dispatch, start worker and done.
func NewOnboarding(cfg Config) ([]wizard.Step, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	parse, err := NewParseStep(cfg.Client)
	if err != nil {
		return nil, err
	}

	choose, err := NewChooseStep(cfg.Client)
	if err != nil {
		return nil, err
	}

	cli := cfg.Client
	jobSteps := []JobStepConfig{
		{Name: "detect", Retry: cli.Detect, Next: cli.Check, Filter: reachableNodes},
		{Name: "check", Retry: cli.Check, Next: cli.Dispatch},
		{Name: "dispatch", Retry: cli.Dispatch, Next: cli.StartWorker},
		{Name: "start-worker", Retry: cli.StartWorker, Next: addNodes(cli)},
	}

	steps := []wizard.Step{parse, choose}
	for _, jcfg := range jobSteps {
		jcfg.Client = cli
		jcfg.Interval = cfg.Interval
		jcfg.Logger = cfg.Logger
		s, err := NewJobStep(jcfg)
		if err != nil {
			return nil, fmt.Errorf("could not create %s step: %w", jcfg.Name, err)
		}
		steps = append(steps, s)
	}

	return append(steps, NewDoneStep()), nil
}

func addNodes(cli client.Client) NodeJobFunc {
	return func(ctx context.Context, req client.NodeJobRequest) (string, error) {
		return "", cli.AddNodes(ctx, req)
	}
}

// reachableNodes drops the nodes that failed detection or are known to be in an error state.
func reachableNodes(p model.JobProgress, nodes []model.Node) []model.Node {
	failed := map[string]struct{}{}
	for _, np := range p.Nodes {
		if np.State == model.JobExecStateError || np.Failed() {
			failed[np.NodeID] = struct{}{}
		}
	}

	res := make([]model.Node, 0, len(nodes))
	for _, n := range nodes {
		if _, ok := failed[n.ID]; ok {
			continue
		}
		if d, err := procedure.DisplayOf(n.State); err == nil && d.Severity == procedure.SeverityError {
			continue
		}
		res = append(res, n)
	}

	return res
}
