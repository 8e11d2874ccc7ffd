package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/slok/nodeinit/internal/log"
	"github.com/slok/nodeinit/internal/model"
	"github.com/slok/nodeinit/internal/storage/sqlite/migrations"
)

// RepositoryConfig is the configuration for the SQLite repository.
type RepositoryConfig struct {
	DBPath string
	Logger log.Logger
}

func (c *RepositoryConfig) defaults() error {
	if c.DBPath == "" {
		return fmt.Errorf("db path is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.SQLite"})
	return nil
}

// Repository is a SQLite implementation of storage.Repository.
type Repository struct {
	db     *sql.DB
	logger log.Logger
}

// NewRepository creates a new SQLite repository.
func NewRepository(ctx context.Context, cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	dir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("could not create db directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", cfg.DBPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}

	migrator, err := migrations.NewMigrator(migrations.MigratorConfig{DB: db, Logger: cfg.Logger})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("could not create migrator: %w", err)
	}
	version, err := migrator.Up()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("could not run migrations: %w", err)
	}

	cfg.Logger.Debugf("SQLite repository initialized at %s with schema version %d", cfg.DBPath, version)

	return &Repository{db: db, logger: cfg.Logger}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error { return r.db.Close() }

// GetSession retrieves the wizard session of a cluster.
func (r *Repository) GetSession(ctx context.Context, clusterID string) (*model.Session, error) {
	query := `
		SELECT
			cluster_id, node_job_id, job_id, cursor, selected_nodes,
			next_disabled, retry_disabled, prev_disabled, cancel_disabled,
			updated_at
		FROM sessions
		WHERE cluster_id = ?
	`

	var (
		s         model.Session
		nodesJSON string
		updatedAt int64
	)
	err := r.db.QueryRowContext(ctx, query, clusterID).Scan(
		&s.ClusterID,
		&s.NodeJobID,
		&s.JobID,
		&s.Cursor,
		&nodesJSON,
		&s.PageDisabled.Next,
		&s.PageDisabled.Retry,
		&s.PageDisabled.Prev,
		&s.PageDisabled.Cancel,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("session of cluster %s: %w", clusterID, model.ErrNotFound)
		}
		return nil, fmt.Errorf("could not query session: %w", err)
	}

	if err := json.Unmarshal([]byte(nodesJSON), &s.SelectedNodes); err != nil {
		return nil, fmt.Errorf("could not decode selected nodes: %w", err)
	}
	if len(s.SelectedNodes) == 0 {
		s.SelectedNodes = nil
	}
	s.UpdatedAt = time.Unix(updatedAt, 0).UTC()

	return &s, nil
}

// SaveSession creates or replaces the wizard session of a cluster.
func (r *Repository) SaveSession(ctx context.Context, s model.Session) error {
	if s.ClusterID == "" {
		return fmt.Errorf("cluster id is required: %w", model.ErrNotValid)
	}

	nodes := s.SelectedNodes
	if nodes == nil {
		nodes = []model.Node{}
	}
	nodesJSON, err := json.Marshal(nodes)
	if err != nil {
		return fmt.Errorf("could not encode selected nodes: %w", err)
	}

	updatedAt := s.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO sessions (
			cluster_id, node_job_id, job_id, cursor, selected_nodes,
			next_disabled, retry_disabled, prev_disabled, cancel_disabled,
			updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (cluster_id) DO UPDATE SET
			node_job_id = excluded.node_job_id,
			job_id = excluded.job_id,
			cursor = excluded.cursor,
			selected_nodes = excluded.selected_nodes,
			next_disabled = excluded.next_disabled,
			retry_disabled = excluded.retry_disabled,
			prev_disabled = excluded.prev_disabled,
			cancel_disabled = excluded.cancel_disabled,
			updated_at = excluded.updated_at
	`

	_, err = r.db.ExecContext(
		ctx,
		query,
		s.ClusterID,
		s.NodeJobID,
		s.JobID,
		s.Cursor,
		string(nodesJSON),
		s.PageDisabled.Next,
		s.PageDisabled.Retry,
		s.PageDisabled.Prev,
		s.PageDisabled.Cancel,
		updatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("could not save session: %w", err)
	}

	r.logger.Debugf("Saved session of cluster %s at cursor %d", s.ClusterID, s.Cursor)
	return nil
}

// DeleteSession deletes the wizard session of a cluster and its step history.
func (r *Repository) DeleteSession(ctx context.Context, clusterID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE cluster_id = ?`, clusterID)
	if err != nil {
		return fmt.Errorf("could not delete session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("session of cluster %s: %w", clusterID, model.ErrNotFound)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM step_records WHERE cluster_id = ?`, clusterID); err != nil {
		return fmt.Errorf("could not delete step records: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}

	r.logger.Debugf("Deleted session of cluster %s", clusterID)
	return nil
}
