package store

import (
	"database/sql"
	"encoding/json"
	"time"
)

// Event represents a practice event stored in the database.
type Event struct {
	ID        int64           `json:"id"`
	SessionID string          `json:"session_id"`
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"created_at"`
}

// EventRepository provides append and query operations for practice
// events.
type EventRepository struct {
	db *sql.DB
}

// Events returns the practice event repository for this store.
func (s *Store) Events() *EventRepository {
	return &EventRepository{db: s.db}
}

// Append inserts a single event for a session.
func (r *EventRepository) Append(sessionID, eventType string, data json.RawMessage) error {
	if data == nil {
		data = json.RawMessage("{}")
	}

	_, err := r.db.Exec(
		`INSERT INTO practice_events (session_id, event_type, data) VALUES (?, ?, ?)`,
		sessionID, eventType, string(data),
	)
	return err
}

// AppendBatch inserts multiple events for a session in one transaction.
// The pipeline buffers events and flushes them between frames so event
// writes never sit on the per-frame path.
func (r *EventRepository) AppendBatch(sessionID string, events []Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO practice_events (session_id, event_type, data, created_at) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range events {
		data := e.Data
		if data == nil {
			data = json.RawMessage("{}")
		}
		at := e.CreatedAt
		if at.IsZero() {
			at = time.Now()
		}
		if _, err := stmt.Exec(sessionID, e.Type, string(data), at); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ListBySession retrieves all events for a session in insertion order.
func (r *EventRepository) ListBySession(sessionID string) ([]Event, error) {
	rows, err := r.db.Query(
		`SELECT id, session_id, event_type, data, created_at
		 FROM practice_events
		 WHERE session_id = ?
		 ORDER BY id`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var data string
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Type, &data, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Data = json.RawMessage(data)
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}

// CountBySession returns the number of events of each type for a session.
func (r *EventRepository) CountBySession(sessionID string) (map[string]int, error) {
	rows, err := r.db.Query(
		`SELECT event_type, COUNT(*) FROM practice_events
		 WHERE session_id = ? GROUP BY event_type`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var t string
		var n int
		if err := rows.Scan(&t, &n); err != nil {
			return nil, err
		}
		counts[t] = n
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return counts, nil
}
