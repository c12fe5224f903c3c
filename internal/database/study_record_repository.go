package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"github.com/example/wordmaster/pkg/models"
)

// GetRecord returns the learner's record for a word, or nil if the word was
// never reviewed.
func (s *Store) GetRecord(ctx context.Context, learnerID, wordID string) (*models.StudyRecord, error) {
	var row studyRecordRow
	query := s.rebind("SELECT * FROM study_records WHERE learner_id = ? AND word_id = ?")
	err := s.db.GetContext(ctx, &row, query, learnerID, wordID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "get study record")
	}
	rec := row.model()
	return &rec, nil
}

// PutRecord inserts or replaces the record of a (learner, word) pair. The
// stored id of an existing record is kept.
func (s *Store) PutRecord(ctx context.Context, rec models.StudyRecord) error {
	query := `
		INSERT INTO study_records (
			id, learner_id, word_id, mastery_score, review_count, correct_count,
			last_review_at, next_review_at, study_time_ms, created_at
		) VALUES (
			:id, :learner_id, :word_id, :mastery_score, :review_count, :correct_count,
			:last_review_at, :next_review_at, :study_time_ms, :created_at
		)
		ON CONFLICT (learner_id, word_id) DO UPDATE SET
			mastery_score = excluded.mastery_score,
			review_count = excluded.review_count,
			correct_count = excluded.correct_count,
			last_review_at = excluded.last_review_at,
			next_review_at = excluded.next_review_at,
			study_time_ms = excluded.study_time_ms
	`
	if _, err := s.db.NamedExecContext(ctx, query, newStudyRecordRow(rec)); err != nil {
		return errors.Wrap(err, "put study record")
	}
	return nil
}

// GetRecordsByLearner returns every record of a learner ordered by word id
func (s *Store) GetRecordsByLearner(ctx context.Context, learnerID string) ([]models.StudyRecord, error) {
	var rows []studyRecordRow
	query := s.rebind("SELECT * FROM study_records WHERE learner_id = ? ORDER BY word_id")
	if err := s.db.SelectContext(ctx, &rows, query, learnerID); err != nil {
		return nil, errors.Wrap(err, "list study records")
	}
	records := make([]models.StudyRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.model())
	}
	return records, nil
}

// GetDueRecords returns the learner's records due at now, most overdue first
func (s *Store) GetDueRecords(ctx context.Context, learnerID string, now time.Time) ([]models.StudyRecord, error) {
	var rows []studyRecordRow
	query := s.rebind(`
		SELECT * FROM study_records
		WHERE learner_id = ? AND next_review_at <= ?
		ORDER BY next_review_at ASC
	`)
	if err := s.db.SelectContext(ctx, &rows, query, learnerID, toMillis(now)); err != nil {
		return nil, errors.Wrap(err, "list due records")
	}
	records := make([]models.StudyRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.model())
	}
	return records, nil
}
