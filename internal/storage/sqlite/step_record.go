package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/slok/nodeinit/internal/model"
)

// AddStepRecord appends a step commit attempt to the history of a cluster.
func (r *Repository) AddStepRecord(ctx context.Context, rec model.StepRecord) error {
	if rec.ClusterID == "" {
		return fmt.Errorf("cluster id is required: %w", model.ErrNotValid)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var maxSeq int
	query := `SELECT COALESCE(MAX(sequence), 0) FROM step_records WHERE cluster_id = ?`
	if err := tx.QueryRowContext(ctx, query, rec.ClusterID).Scan(&maxSeq); err != nil {
		return fmt.Errorf("could not get max sequence: %w", err)
	}

	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	insertQuery := `
		INSERT INTO step_records (id, cluster_id, sequence, step_index, step_name, status, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = tx.ExecContext(ctx, insertQuery,
		ulid.Make().String(),
		rec.ClusterID,
		maxSeq+1,
		rec.StepIndex,
		rec.StepName,
		rec.Status,
		rec.Error,
		createdAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("could not insert step record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}

	r.logger.Debugf("Added step record %q (%s) for cluster %s", rec.StepName, rec.Status, rec.ClusterID)
	return nil
}

// ListStepRecords returns the step history of a cluster in sequence order.
func (r *Repository) ListStepRecords(ctx context.Context, clusterID string) ([]model.StepRecord, error) {
	query := `
		SELECT id, cluster_id, sequence, step_index, step_name, status, error, created_at
		FROM step_records
		WHERE cluster_id = ?
		ORDER BY sequence ASC
	`

	rows, err := r.db.QueryContext(ctx, query, clusterID)
	if err != nil {
		return nil, fmt.Errorf("could not query step records: %w", err)
	}
	defer rows.Close()

	var records []model.StepRecord
	for rows.Next() {
		var rec model.StepRecord
		var createdAt int64
		err := rows.Scan(
			&rec.ID,
			&rec.ClusterID,
			&rec.Sequence,
			&rec.StepIndex,
			&rec.StepName,
			&rec.Status,
			&rec.Error,
			&createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("could not scan step record: %w", err)
		}
		rec.CreatedAt = time.Unix(createdAt, 0).UTC()
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return records, nil
}
