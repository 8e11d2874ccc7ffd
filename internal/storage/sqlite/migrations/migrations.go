// Package migrations has the embedded schema of the wizard session database.
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/slok/nodeinit/internal/log"
)

//go:embed sql/*.sql
var files embed.FS

// MigratorConfig is the configuration of the schema migrator.
type MigratorConfig struct {
	DB     *sql.DB
	Logger log.Logger
}

func (c *MigratorConfig) defaults() error {
	if c.DB == nil {
		return fmt.Errorf("db is required")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "sqlite.Migrator"})

	return nil
}

// Migrator applies the sessions and step history schema.
type Migrator struct {
	db     *sql.DB
	logger log.Logger
}

// NewMigrator returns a new migrator.
func NewMigrator(cfg MigratorConfig) (*Migrator, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Migrator{db: cfg.DB, logger: cfg.Logger}, nil
}

// Up migrates the schema to the latest version and returns it.
func (m *Migrator) Up() (uint, error) {
	return m.run(func(mg *migrate.Migrate) error { return mg.Up() })
}

// Down drops the whole schema.
func (m *Migrator) Down() error {
	_, err := m.run(func(mg *migrate.Migrate) error { return mg.Down() })
	return err
}

func (m *Migrator) run(op func(*migrate.Migrate) error) (version uint, err error) {
	src, err := iofs.New(files, "sql")
	if err != nil {
		return 0, fmt.Errorf("could not load migration files: %w", err)
	}
	defer func() {
		if cerr := src.Close(); cerr != nil {
			m.logger.Warningf("Could not close migration files: %s", cerr)
		}
	}()

	// The driver shares the repository connection pool, so the migrate instance is not closed.
	driver, err := sqlite.WithInstance(m.db, &sqlite.Config{})
	if err != nil {
		return 0, fmt.Errorf("could not create migration driver: %w", err)
	}

	mg, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return 0, fmt.Errorf("could not create migrator: %w", err)
	}

	if err := op(mg); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, fmt.Errorf("could not migrate schema: %w", err)
	}

	version, dirty, err := mg.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		return 0, nil
	case err != nil:
		return 0, fmt.Errorf("could not get schema version: %w", err)
	case dirty:
		return version, fmt.Errorf("schema version %d is dirty", version)
	}
	m.logger.Debugf("Schema at version %d", version)

	return version, nil
}
