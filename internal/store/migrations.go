package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Practice sessions table - one row per practice run
		`CREATE TABLE IF NOT EXISTS practice_sessions (
			id TEXT PRIMARY KEY,
			piece_name TEXT NOT NULL DEFAULT 'Twinkle Twinkle Little Star',
			started_at DATETIME NOT NULL,
			ended_at DATETIME,
			duration_seconds INTEGER,
			posture_score REAL,
			bow_accuracy REAL,
			notes TEXT NOT NULL DEFAULT ''
		)`,

		// Practice events table - timestamped events within a session
		`CREATE TABLE IF NOT EXISTS practice_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL REFERENCES practice_sessions(id) ON DELETE CASCADE,
			event_type TEXT NOT NULL,
			data TEXT NOT NULL DEFAULT '{}',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Calibration profiles table - persisted calibration records
		`CREATE TABLE IF NOT EXISTS calibration_profiles (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			active INTEGER NOT NULL DEFAULT 0,
			data TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Settings table - application settings as key-value pairs
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		// Indexes for better query performance
		`CREATE INDEX IF NOT EXISTS idx_practice_events_session_id ON practice_events(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_practice_sessions_started_at ON practice_sessions(started_at)`,
		`CREATE INDEX IF NOT EXISTS idx_calibration_profiles_active ON calibration_profiles(active)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
