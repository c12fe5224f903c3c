package database

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/example/wordmaster/pkg/models"
)

// GetLearnerProfile returns a learner's profile, or nil if none was stored
func (s *Store) GetLearnerProfile(ctx context.Context, learnerID string) (*models.Profile, error) {
	var row profileRow
	query := s.rebind("SELECT * FROM learner_profiles WHERE id = ?")
	err := s.db.GetContext(ctx, &row, query, learnerID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "get learner profile")
	}
	p, err := row.model()
	if err != nil {
		return nil, errors.Wrap(err, "decode learner profile")
	}
	return &p, nil
}

// PutLearnerProfile inserts or replaces a learner's profile
func (s *Store) PutLearnerProfile(ctx context.Context, p models.Profile) error {
	row, err := newProfileRow(p)
	if err != nil {
		return errors.Wrap(err, "encode learner profile")
	}
	query := `
		INSERT INTO learner_profiles (
			id, username, level, experience, streak, achievements,
			statistics, daily_goal, created_at, last_active_at
		) VALUES (
			:id, :username, :level, :experience, :streak, :achievements,
			:statistics, :daily_goal, :created_at, :last_active_at
		)
		ON CONFLICT (id) DO UPDATE SET
			username = excluded.username,
			level = excluded.level,
			experience = excluded.experience,
			streak = excluded.streak,
			achievements = excluded.achievements,
			statistics = excluded.statistics,
			daily_goal = excluded.daily_goal,
			last_active_at = excluded.last_active_at
	`
	if _, err := s.db.NamedExecContext(ctx, query, row); err != nil {
		return errors.Wrap(err, "put learner profile")
	}
	return nil
}

// ListLearners returns the ids of every learner with a profile or test results
func (s *Store) ListLearners(ctx context.Context) ([]string, error) {
	var ids []string
	query := `
		SELECT id FROM learner_profiles
		UNION
		SELECT DISTINCT learner_id FROM test_results
		ORDER BY 1
	`
	if err := s.db.SelectContext(ctx, &ids, query); err != nil {
		return nil, errors.Wrap(err, "list learners")
	}
	return ids, nil
}

// DeleteLearnerData removes all study records and test results of a learner
// and resets the profile to level 1. Id, username and daily goal survive.
func (s *Store) DeleteLearnerData(ctx context.Context, learnerID string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin reset")
	}
	defer tx.Rollback()

	for _, query := range []string{
		"DELETE FROM study_records WHERE learner_id = ?",
		"DELETE FROM test_results WHERE learner_id = ?",
		`UPDATE learner_profiles
		 SET level = 1, experience = 0, streak = 0, achievements = '[]', statistics = '{}', last_active_at = 0
		 WHERE id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, tx.Rebind(query), learnerID); err != nil {
			return errors.Wrap(err, "reset learner data")
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit reset")
	}
	return nil
}
