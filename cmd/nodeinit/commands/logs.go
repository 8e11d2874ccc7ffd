package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/nodeinit/internal/app/logs"
	"github.com/slok/nodeinit/internal/printer"
)

type LogsCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	clusterID string
	node      string
	jobID     string
	nodeJobID string
	follow    bool
	reverse   bool
}

// NewLogsCommand returns the logs command.
func NewLogsCommand(rootCmd *RootCommand, app *kingpin.Application) *LogsCommand {
	c := &LogsCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("logs", "Show the job log of a node.")
	c.Cmd.Arg("node", "Node ID, or hostname when the cluster is set.").Required().StringVar(&c.node)
	c.Cmd.Flag("cluster-id", "Cluster ID, its current job is used when no job is set.").StringVar(&c.clusterID)
	c.Cmd.Flag("job-id", "Cluster job ID.").StringVar(&c.jobID)
	c.Cmd.Flag("node-job-id", "Node job ID.").StringVar(&c.nodeJobID)
	c.Cmd.Flag("follow", "Follow the log until the node finishes.").Short('f').BoolVar(&c.follow)
	c.Cmd.Flag("reverse", "Show the newest log fragments first, only when following.").BoolVar(&c.reverse)

	return c
}

func (c LogsCommand) Name() string { return c.Cmd.FullCommand() }

func (c LogsCommand) Run(ctx context.Context) error {
	cli, err := c.rootCmd.newClient()
	if err != nil {
		return err
	}

	svc, err := logs.NewService(logs.ServiceConfig{
		Client: cli,
		Logger: c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	// In order fragments are streamed, reversed logs are printed once finished.
	streamed := c.follow && !c.reverse
	var onFragment func(string)
	if streamed {
		onFragment = func(f string) { _, _ = io.WriteString(c.rootCmd.Stdout, f) }
	}

	resp, err := svc.Run(ctx, logs.Request{
		ClusterID:  c.clusterID,
		Node:       c.node,
		JobID:      c.jobID,
		NodeJobID:  c.nodeJobID,
		Follow:     c.follow,
		Reverse:    c.reverse,
		Interval:   c.rootCmd.PollInterval,
		OnFragment: onFragment,
	})
	if err != nil {
		return fmt.Errorf("could not get node log: %w", err)
	}

	if !streamed {
		if _, err := io.WriteString(c.rootCmd.Stdout, resp.Content); err != nil {
			return fmt.Errorf("could not print log: %w", err)
		}
	}

	// The footer goes to stderr so the log can be piped untouched.
	if c.follow {
		if _, err := io.WriteString(c.rootCmd.Stderr, logFooter(resp)); err != nil {
			return fmt.Errorf("could not print log footer: %w", err)
		}
	}

	return nil
}

func logFooter(resp *logs.Response) string {
	state := "still running"
	if resp.Done {
		state = "finished"
	}

	return fmt.Sprintf("--- node %s log: %s, %s\n", resp.NodeID, printer.FormatBytes(int64(len(resp.Content))), state)
}
