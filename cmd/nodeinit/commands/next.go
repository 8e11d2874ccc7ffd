package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/nodeinit/internal/app/next"
	"github.com/slok/nodeinit/internal/model"
	storageio "github.com/slok/nodeinit/internal/storage/io"
)

type NextCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	clusterID   string
	requestFile string
	selected    []string
	selectAll   bool
	retry       bool
	wait        bool
	format      string
}

// NewNextCommand returns the next command.
func NewNextCommand(rootCmd *RootCommand, app *kingpin.Application) *NextCommand {
	c := &NextCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("next", "Commit the current wizard step and move to the next one.")
	c.Cmd.Flag("cluster-id", "Cluster ID.").Required().StringVar(&c.clusterID)
	c.Cmd.Flag("request", "YAML file with the hostnames to onboard, used on the parse step.").Short('f').StringVar(&c.requestFile)
	c.Cmd.Flag("select", "Hostname selected on the choose step. Can be repeated.").StringsVar(&c.selected)
	c.Cmd.Flag("all", "Select all the parsed nodes on the choose step.").BoolVar(&c.selectAll)
	c.Cmd.Flag("retry", "Restart the failed job of the current step instead of moving forward.").BoolVar(&c.retry)
	c.Cmd.Flag("wait", "Wait until the job of the new step finishes.").BoolVar(&c.wait)
	c.Cmd.Flag("format", "Output format (table, json).").Default(formatTable).EnumVar(&c.format, formatTable, formatJSON)

	return c
}

func (c NextCommand) Name() string { return c.Cmd.FullCommand() }

func (c NextCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	var parseReq *model.ParseRequest
	if c.requestFile != "" {
		abs, err := filepath.Abs(c.requestFile)
		if err != nil {
			return fmt.Errorf("invalid request file path: %w", err)
		}

		repo := storageio.NewNodesYAMLRepository(os.DirFS(filepath.Dir(abs)))
		req, err := repo.GetParseRequest(ctx, filepath.Base(abs), c.clusterID)
		if err != nil {
			return fmt.Errorf("could not load request file: %w", err)
		}
		parseReq = &req
	}

	cli, err := c.rootCmd.newClient()
	if err != nil {
		return err
	}

	repo, err := c.rootCmd.newRepository(ctx)
	if err != nil {
		return err
	}
	defer repo.Close()

	svc, err := next.NewService(next.ServiceConfig{
		Client:       cli,
		Repository:   repo,
		PollInterval: c.rootCmd.PollInterval,
		Logger:       logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	resp, err := svc.Run(ctx, next.Request{
		ClusterID: c.clusterID,
		Parse:     parseReq,
		Select:    c.selected,
		SelectAll: c.selectAll,
		Retry:     c.retry,
		Wait:      c.wait,
	})
	if err != nil {
		return fmt.Errorf("could not move wizard: %w", err)
	}

	if err := c.rootCmd.newPrinter(c.format).PrintWizardStatus(resp.Snapshot, nil); err != nil {
		return fmt.Errorf("could not print status: %w", err)
	}

	return nil
}
