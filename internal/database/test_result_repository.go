package database

import (
	"context"

	"github.com/pkg/errors"

	"github.com/example/wordmaster/pkg/models"
)

// PutTestResult inserts a completed test result
func (s *Store) PutTestResult(ctx context.Context, result models.TestResult) error {
	row, err := newTestResultRow(result)
	if err != nil {
		return errors.Wrap(err, "encode test result")
	}
	query := `
		INSERT INTO test_results (
			id, learner_id, test_id, level, score, max_score,
			accuracy, time_spent_ms, passed, completed_at, weak_areas
		) VALUES (
			:id, :learner_id, :test_id, :level, :score, :max_score,
			:accuracy, :time_spent_ms, :passed, :completed_at, :weak_areas
		)
	`
	if _, err := s.db.NamedExecContext(ctx, query, row); err != nil {
		return errors.Wrap(err, "put test result")
	}
	return nil
}

// GetTestResults returns all test results for a learner, newest first
func (s *Store) GetTestResults(ctx context.Context, learnerID string) ([]models.TestResult, error) {
	var rows []testResultRow
	query := s.rebind("SELECT * FROM test_results WHERE learner_id = ? ORDER BY completed_at DESC")
	if err := s.db.SelectContext(ctx, &rows, query, learnerID); err != nil {
		return nil, errors.Wrap(err, "list test results")
	}
	results := make([]models.TestResult, 0, len(rows))
	for _, row := range rows {
		r, err := row.model()
		if err != nil {
			return nil, errors.Wrapf(err, "decode test result %s", row.ID)
		}
		results = append(results, r)
	}
	return results, nil
}

// PruneTestResults keeps the newest keep results of a learner and deletes
// the rest. It returns the number of deleted rows.
func (s *Store) PruneTestResults(ctx context.Context, learnerID string, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	query := s.rebind(`
		DELETE FROM test_results
		WHERE learner_id = ? AND id NOT IN (
			SELECT id FROM test_results
			WHERE learner_id = ?
			ORDER BY completed_at DESC
			LIMIT ?
		)
	`)
	res, err := s.db.ExecContext(ctx, query, learnerID, learnerID, keep)
	if err != nil {
		return 0, errors.Wrap(err, "prune test results")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "prune test results")
	}
	return n, nil
}
