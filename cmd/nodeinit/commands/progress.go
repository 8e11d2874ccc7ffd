package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/nodeinit/internal/app/progress"
	"github.com/slok/nodeinit/internal/model"
)

type ProgressCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	clusterID string
	jobID     string
	nodeJobID string
	watch     bool
	format    string
}

// NewProgressCommand returns the progress command.
func NewProgressCommand(rootCmd *RootCommand, app *kingpin.Application) *ProgressCommand {
	c := &ProgressCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("progress", "Show the per node progress of the active job.")
	c.Cmd.Flag("cluster-id", "Cluster ID, its current job is used when no job is set.").StringVar(&c.clusterID)
	c.Cmd.Flag("job-id", "Cluster job ID.").StringVar(&c.jobID)
	c.Cmd.Flag("node-job-id", "Node job ID.").StringVar(&c.nodeJobID)
	c.Cmd.Flag("watch", "Keep showing the progress until the job finishes.").Short('w').BoolVar(&c.watch)
	c.Cmd.Flag("format", "Output format (table, json).").Default(formatTable).EnumVar(&c.format, formatTable, formatJSON)

	return c
}

func (c ProgressCommand) Name() string { return c.Cmd.FullCommand() }

func (c ProgressCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	cli, err := c.rootCmd.newClient()
	if err != nil {
		return err
	}

	svc, err := progress.NewService(progress.ServiceConfig{
		Client: cli,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	p := c.rootCmd.newPrinter(c.format)
	var onProgress func(model.JobProgress)
	if c.watch && c.format == formatTable {
		onProgress = func(jp model.JobProgress) {
			if err := p.PrintJobProgress(jp, false); err != nil {
				logger.Warningf("Could not print progress: %s", err)
			}
		}
	}

	resp, err := svc.Run(ctx, progress.Request{
		ClusterID:  c.clusterID,
		JobID:      c.jobID,
		NodeJobID:  c.nodeJobID,
		Watch:      c.watch,
		Interval:   c.rootCmd.PollInterval,
		OnProgress: onProgress,
	})
	if err != nil {
		return fmt.Errorf("could not get job progress: %w", err)
	}

	// The last watched update was already printed unless the job got stuck on errors.
	if onProgress != nil && !resp.Degraded {
		return nil
	}

	if err := p.PrintJobProgress(resp.Progress, resp.Degraded); err != nil {
		return fmt.Errorf("could not print progress: %w", err)
	}

	return nil
}
