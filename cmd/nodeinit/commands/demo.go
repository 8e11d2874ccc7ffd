package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/nodeinit/internal/app/next"
	"github.com/slok/nodeinit/internal/app/status"
	"github.com/slok/nodeinit/internal/client/fake"
	"github.com/slok/nodeinit/internal/model"
	"github.com/slok/nodeinit/internal/storage/memory"
)

const demoStepDone = "done"

type DemoCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	clusterID  string
	hostnames  []string
	sshPort    int
	failOn     []string
	maxRetries int
	format     string
}

// NewDemoCommand returns the demo command.
func NewDemoCommand(rootCmd *RootCommand, app *kingpin.Application) *DemoCommand {
	c := &DemoCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("demo", "Run a whole onboarding against a simulated master API.")
	c.Cmd.Flag("cluster-id", "Cluster ID.").Default("demo").StringVar(&c.clusterID)
	c.Cmd.Flag("hostname", "Hostname pattern to onboard (e.g. node[01-03]). Can be repeated.").Default("node[01-03]").StringsVar(&c.hostnames)
	c.Cmd.Flag("ssh-port", "SSH port of the nodes.").Default("22").IntVar(&c.sshPort)
	c.Cmd.Flag("fail-on", "Make a node job fail once for a host (HOSTNAME=JOB). Can be repeated.").StringsVar(&c.failOn)
	c.Cmd.Flag("max-retries", "Retries of a failed job before giving up.").Default("1").IntVar(&c.maxRetries)
	c.Cmd.Flag("format", "Output format (table, json).").Default(formatTable).EnumVar(&c.format, formatTable, formatJSON)

	return c
}

func (c DemoCommand) Name() string { return c.Cmd.FullCommand() }

func (c DemoCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	failOn, err := parseFailOn(c.failOn)
	if err != nil {
		return fmt.Errorf("invalid --fail-on value: %w", err)
	}

	cli, err := fake.NewClient(fake.ClientConfig{FailOn: failOn, Logger: logger})
	if err != nil {
		return fmt.Errorf("could not create fake master API: %w", err)
	}

	repo, err := memory.NewRepository(memory.RepositoryConfig{Logger: logger})
	if err != nil {
		return fmt.Errorf("could not create repository: %w", err)
	}

	nextSvc, err := next.NewService(next.ServiceConfig{
		Client:       cli,
		Repository:   repo,
		PollInterval: c.rootCmd.PollInterval,
		Logger:       logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	statusSvc, err := status.NewService(status.ServiceConfig{
		Client:       cli,
		Repository:   repo,
		PollInterval: c.rootCmd.PollInterval,
		Logger:       logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	p := c.rootCmd.newPrinter(c.format)
	say := func(format string, a ...any) {
		if c.format != formatTable {
			return
		}
		if err := p.PrintMessage(fmt.Sprintf(format, a...)); err != nil {
			logger.Warningf("Could not print message: %s", err)
		}
	}

	reqs := []next.Request{
		{ClusterID: c.clusterID, Parse: &model.ParseRequest{ClusterID: c.clusterID, Hostnames: c.hostnames, SSHPort: c.sshPort}},
		{ClusterID: c.clusterID, SelectAll: true},
	}

	retries := 0
	for i := 0; ; i++ {
		req := next.Request{ClusterID: c.clusterID}
		if i < len(reqs) {
			req = reqs[i]
		}

		resp, err := nextSvc.Run(ctx, req)
		switch {
		case errors.Is(err, model.ErrJobExecution) && retries < c.maxRetries:
			retries++
			say("Job failed, retrying (%d/%d)", retries, c.maxRetries)
			resp, err = nextSvc.Run(ctx, next.Request{ClusterID: c.clusterID, Retry: true, Wait: true})
			if err != nil {
				return fmt.Errorf("could not retry job: %w", err)
			}
			say("Step %s job restarted as %s", resp.Step, resp.Snapshot.Session.NodeJobID)
			continue
		case err != nil:
			return fmt.Errorf("could not move wizard: %w", err)
		}

		say("Step %s committed, now on %s", resp.Step, resp.Snapshot.StepName)
		if resp.Snapshot.StepName == demoStepDone {
			break
		}
	}

	resp, err := statusSvc.Run(ctx, status.Request{ClusterID: c.clusterID, History: true})
	if err != nil {
		return fmt.Errorf("could not get wizard status: %w", err)
	}

	if err := p.PrintWizardStatus(resp.Snapshot, resp.History); err != nil {
		return fmt.Errorf("could not print status: %w", err)
	}

	return nil
}

// parseFailOn parses HOSTNAME=JOB entries.
func parseFailOn(specs []string) (map[string]string, error) {
	res := make(map[string]string, len(specs))
	for _, spec := range specs {
		host, job, ok := strings.Cut(spec, "=")
		host, job = strings.TrimSpace(host), strings.TrimSpace(job)
		if !ok || host == "" || job == "" {
			return nil, fmt.Errorf("%q must be HOSTNAME=JOB", spec)
		}
		res[host] = job
	}

	return res, nil
}
