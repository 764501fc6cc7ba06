package store

import (
	"database/sql"
	"errors"
	"time"
)

// PracticeSession represents one practice run stored in the database.
type PracticeSession struct {
	ID              string
	PieceName       string
	StartedAt       time.Time
	EndedAt         sql.NullTime
	DurationSeconds sql.NullInt64
	PostureScore    sql.NullFloat64
	BowAccuracy     sql.NullFloat64
	Notes           string
}

// SessionRepository provides CRUD operations for practice sessions.
type SessionRepository struct {
	db *sql.DB
}

// Sessions returns the practice session repository for this store.
func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{db: s.db}
}

// Create inserts a new practice session.
func (r *SessionRepository) Create(ps *PracticeSession) error {
	if ps.StartedAt.IsZero() {
		ps.StartedAt = time.Now()
	}

	_, err := r.db.Exec(
		`INSERT INTO practice_sessions (id, piece_name, started_at, notes)
		 VALUES (?, ?, ?, ?)`,
		ps.ID, ps.PieceName, ps.StartedAt, ps.Notes,
	)
	return err
}

// End closes a session, recording its end time, duration and scores.
// The duration is derived in Go from the stored start time; the driver
// persists timestamps as RFC 3339 strings, which SQLite's date functions
// do not parse.
func (r *SessionRepository) End(id string, postureScore, bowAccuracy float64) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var startedAt time.Time
	err = tx.QueryRow(
		`SELECT started_at FROM practice_sessions WHERE id = ? AND ended_at IS NULL`,
		id,
	).Scan(&startedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	ended := time.Now()

	_, err = tx.Exec(
		`UPDATE practice_sessions
		 SET ended_at = ?, duration_seconds = ?, posture_score = ?, bow_accuracy = ?
		 WHERE id = ?`,
		ended, int64(ended.Sub(startedAt).Seconds()), postureScore, bowAccuracy, id,
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// GetByID retrieves a practice session by its ID.
func (r *SessionRepository) GetByID(id string) (*PracticeSession, error) {
	ps := &PracticeSession{}

	err := r.db.QueryRow(
		`SELECT id, piece_name, started_at, ended_at, duration_seconds,
		        posture_score, bow_accuracy, notes
		 FROM practice_sessions WHERE id = ?`,
		id,
	).Scan(&ps.ID, &ps.PieceName, &ps.StartedAt, &ps.EndedAt,
		&ps.DurationSeconds, &ps.PostureScore, &ps.BowAccuracy, &ps.Notes)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return ps, nil
}

// List retrieves up to limit practice sessions, newest first.
// A non-positive limit returns all sessions.
func (r *SessionRepository) List(limit int) ([]*PracticeSession, error) {
	query := `SELECT id, piece_name, started_at, ended_at, duration_seconds,
	                 posture_score, bow_accuracy, notes
	          FROM practice_sessions ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*PracticeSession
	for rows.Next() {
		ps := &PracticeSession{}
		if err := rows.Scan(&ps.ID, &ps.PieceName, &ps.StartedAt, &ps.EndedAt,
			&ps.DurationSeconds, &ps.PostureScore, &ps.BowAccuracy, &ps.Notes); err != nil {
			return nil, err
		}
		sessions = append(sessions, ps)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}

// Delete removes a practice session and its events.
func (r *SessionRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM practice_sessions WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
