package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/futig/mcq-reasoner/internal/entity"
)

var _ CheckpointStore = &CheckpointPostgres{}

// CheckpointPostgres stores run results as rows keyed by (run_key, qid).
// Row order is kept in the position column.
type CheckpointPostgres struct {
	db *pgxpool.Pool
}

func NewCheckpointPostgres(db *pgxpool.Pool) *CheckpointPostgres {
	return &CheckpointPostgres{db: db}
}

const selectRunResults = `
SELECT qid, predicted, ground_truth, correct, elapsed
FROM run_results
WHERE run_key = $1
ORDER BY position`

func (r *CheckpointPostgres) Load(ctx context.Context, key entity.RunKey) ([]entity.InferenceResult, error) {
	rows, err := r.db.Query(ctx, selectRunResults, key.String())
	if err != nil {
		return nil, fmt.Errorf("query run results: %w", err)
	}

	results, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.InferenceResult, error) {
		var res entity.InferenceResult
		err := row.Scan(&res.QID, &res.Predicted, &res.GroundTruth, &res.Correct, &res.Time)
		return res, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan run results: %w", err)
	}
	return results, nil
}

// Save replaces every row of the run inside one transaction
func (r *CheckpointPostgres) Save(ctx context.Context, key entity.RunKey, results []entity.InferenceResult) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	runKey := key.String()
	if _, err := tx.Exec(ctx, `DELETE FROM run_results WHERE run_key = $1`, runKey); err != nil {
		return fmt.Errorf("clear run results: %w", err)
	}

	rows := make([][]any, len(results))
	for i, res := range results {
		rows[i] = []any{runKey, i, res.QID, res.Predicted, res.GroundTruth, res.Correct, res.Time}
	}

	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"run_results"},
		[]string{"run_key", "position", "qid", "predicted", "ground_truth", "correct", "elapsed"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("copy run results: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit run results: %w", err)
	}
	return nil
}

// Ping checks the pool, used by the health endpoint
func (r *CheckpointPostgres) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}
