package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	"k8s.io/client-go/util/homedir"

	"github.com/slok/nodeinit/internal/client"
	clienthttp "github.com/slok/nodeinit/internal/client/http"
	"github.com/slok/nodeinit/internal/log"
	"github.com/slok/nodeinit/internal/printer"
	"github.com/slok/nodeinit/internal/storage/sqlite"
)

const (
	// LoggerTypeDefault is the logger default type.
	LoggerTypeDefault = "default"
	// LoggerTypeJSON is the logger json type.
	LoggerTypeJSON = "json"

	formatTable = "table"
	formatJSON  = "json"

	// EnvFileFlag is the flag that sets the dotenv file loaded before parsing.
	EnvFileFlag = "env-file"
	// DefaultEnvFile is loaded when present and no env file is set.
	DefaultEnvFile = ".env"
)

// Command represents an application command, all commands that want to be executed
// should implement and setup on main.
type Command interface {
	Name() string
	Run(ctx context.Context) error
}

// RootCommand represents the root command configuration and global configuration
// for all the commands.
type RootCommand struct {
	// Global flags.
	Debug        bool
	NoLog        bool
	NoColor      bool
	LoggerType   string
	DBPath       string
	APIURL       string
	APITimeout   time.Duration
	PollInterval time.Duration
	EnvFile      string

	// Global instances.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger log.Logger
}

// NewRootCommand initializes the main root configuration.
func NewRootCommand(app *kingpin.Application) *RootCommand {
	c := &RootCommand{}

	app.Flag("debug", "Enable debug mode.").BoolVar(&c.Debug)
	app.Flag("no-log", "Disable logger.").BoolVar(&c.NoLog)
	app.Flag("no-color", "Disable logger color.").BoolVar(&c.NoColor)
	app.Flag("logger", "Selects the logger type.").Default(LoggerTypeDefault).EnumVar(&c.LoggerType, LoggerTypeDefault, LoggerTypeJSON)

	defaultDBPath := filepath.Join(homedir.HomeDir(), ".nodeinit", "nodeinit.db")
	app.Flag("db-path", "Path to the SQLite database file with the wizard sessions.").Default(defaultDBPath).StringVar(&c.DBPath)
	app.Flag("api-url", "Base URL of the cluster master API.").StringVar(&c.APIURL)
	app.Flag("api-timeout", "Timeout of every master API request.").Default("10s").DurationVar(&c.APITimeout)
	app.Flag("poll-interval", "Interval between job progress requests.").Default("1s").DurationVar(&c.PollInterval)
	app.Flag(EnvFileFlag, "Dotenv file loaded before reading the NODEINIT_* environment variables.").StringVar(&c.EnvFile)

	return c
}

// newClient returns the master API client.
func (r RootCommand) newClient() (client.Client, error) {
	if r.APIURL == "" {
		return nil, fmt.Errorf("--api-url is required")
	}

	cli, err := clienthttp.NewClient(clienthttp.ClientConfig{
		BaseURL: r.APIURL,
		Timeout: r.APITimeout,
		Logger:  r.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create master API client: %w", err)
	}

	return cli, nil
}

// newRepository returns the SQLite session repository.
func (r RootCommand) newRepository(ctx context.Context) (*sqlite.Repository, error) {
	repo, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{
		DBPath: r.DBPath,
		Logger: r.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create repository: %w", err)
	}

	return repo, nil
}

func (r RootCommand) newPrinter(format string) printer.Printer {
	if format == formatJSON {
		return printer.NewJSONPrinter(r.Stdout)
	}

	return printer.NewTablePrinter(r.Stdout)
}

// LoadEnvFile loads the dotenv file set on the arguments, or the default one when present.
// Already set environment variables are not overridden.
func LoadEnvFile(args []string) error {
	path, ok := envFileFromArgs(args)
	if !ok {
		if _, err := os.Stat(DefaultEnvFile); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil
			}
			return fmt.Errorf("could not check %s file: %w", DefaultEnvFile, err)
		}
		path = DefaultEnvFile
	}

	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("could not load env file %s: %w", path, err)
	}

	return nil
}

// envFileFromArgs gets the env file flag value before kingpin parses the arguments,
// environment variable defaults are resolved while parsing.
func envFileFromArgs(args []string) (string, bool) {
	flag := "--" + EnvFileFlag
	for i, arg := range args {
		switch {
		case arg == "--":
			return "", false
		case arg == flag && i+1 < len(args):
			return args[i+1], true
		case strings.HasPrefix(arg, flag+"="):
			return strings.TrimPrefix(arg, flag+"="), true
		}
	}

	return "", false
}
