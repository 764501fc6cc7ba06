package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/askumar/violincoach/internal/calibration"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// Profile represents a persisted calibration profile. Data holds the
// JSON-encoded calibration record.
type Profile struct {
	ID        string
	Name      string
	Active    bool
	Data      []byte
	CreatedAt time.Time
}

// Record decodes the profile's calibration record. Incomplete records
// are rejected wholesale: a profile that fails to decode is treated as
// no calibration at all.
func (p *Profile) Record() (*calibration.Record, error) {
	return calibration.DecodeRecord(p.Data)
}

// ProfileRepository provides CRUD operations for calibration profiles.
type ProfileRepository struct {
	db *sql.DB
}

// Profiles returns the calibration profile repository for this store.
func (s *Store) Profiles() *ProfileRepository {
	return &ProfileRepository{db: s.db}
}

// Create inserts a new calibration profile.
func (r *ProfileRepository) Create(p *Profile) error {
	p.CreatedAt = time.Now()

	_, err := r.db.Exec(
		`INSERT INTO calibration_profiles (id, name, active, data, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.Name, boolToInt(p.Active), string(p.Data), p.CreatedAt,
	)
	return err
}

// GetByID retrieves a profile by its ID.
func (r *ProfileRepository) GetByID(id string) (*Profile, error) {
	p := &Profile{}
	var active int
	var data string

	err := r.db.QueryRow(
		`SELECT id, name, active, data, created_at
		 FROM calibration_profiles WHERE id = ?`,
		id,
	).Scan(&p.ID, &p.Name, &active, &data, &p.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	p.Active = active != 0
	p.Data = []byte(data)
	return p, nil
}

// GetActive retrieves the active profile.
// Returns nil, nil when no profile is active.
func (r *ProfileRepository) GetActive() (*Profile, error) {
	p := &Profile{}
	var active int
	var data string

	err := r.db.QueryRow(
		`SELECT id, name, active, data, created_at
		 FROM calibration_profiles WHERE active = 1
		 ORDER BY created_at DESC LIMIT 1`,
	).Scan(&p.ID, &p.Name, &active, &data, &p.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // No calibration yet
		}
		return nil, err
	}

	p.Active = active != 0
	p.Data = []byte(data)
	return p, nil
}

// List retrieves all profiles, newest first.
func (r *ProfileRepository) List() ([]*Profile, error) {
	rows, err := r.db.Query(
		`SELECT id, name, active, data, created_at
		 FROM calibration_profiles ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []*Profile
	for rows.Next() {
		p := &Profile{}
		var active int
		var data string

		if err := rows.Scan(&p.ID, &p.Name, &active, &data, &p.CreatedAt); err != nil {
			return nil, err
		}

		p.Active = active != 0
		p.Data = []byte(data)
		profiles = append(profiles, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return profiles, nil
}

// Activate marks the given profile active and deactivates all others in
// a single transaction.
func (r *ProfileRepository) Activate(id string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE calibration_profiles SET active = 0`); err != nil {
		return err
	}

	result, err := tx.Exec(`UPDATE calibration_profiles SET active = 1 WHERE id = ?`, id)
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

	return tx.Commit()
}

// Delete removes a profile by its ID.
func (r *ProfileRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM calibration_profiles WHERE id = ?`, id)
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

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
