package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/nodeinit/internal/app/status"
)

type StatusCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	clusterID string
	history   bool
	format    string
}

// NewStatusCommand returns the status command.
func NewStatusCommand(rootCmd *RootCommand, app *kingpin.Application) *StatusCommand {
	c := &StatusCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("status", "Resume the onboarding wizard of a cluster and show where it is.")
	c.Cmd.Flag("cluster-id", "Cluster ID.").Required().StringVar(&c.clusterID)
	c.Cmd.Flag("history", "Show the step commit history.").BoolVar(&c.history)
	c.Cmd.Flag("format", "Output format (table, json).").Default(formatTable).EnumVar(&c.format, formatTable, formatJSON)

	return c
}

func (c StatusCommand) Name() string { return c.Cmd.FullCommand() }

func (c StatusCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	cli, err := c.rootCmd.newClient()
	if err != nil {
		return err
	}

	repo, err := c.rootCmd.newRepository(ctx)
	if err != nil {
		return err
	}
	defer repo.Close()

	svc, err := status.NewService(status.ServiceConfig{
		Client:       cli,
		Repository:   repo,
		PollInterval: c.rootCmd.PollInterval,
		Logger:       logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	resp, err := svc.Run(ctx, status.Request{
		ClusterID: c.clusterID,
		History:   c.history,
	})
	if err != nil {
		return fmt.Errorf("could not get wizard status: %w", err)
	}

	if err := c.rootCmd.newPrinter(c.format).PrintWizardStatus(resp.Snapshot, resp.History); err != nil {
		return fmt.Errorf("could not print status: %w", err)
	}

	return nil
}
