package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Rounds table - one row per judged rock-paper-scissors round
		`CREATE TABLE IF NOT EXISTS rounds (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			game_id TEXT NOT NULL,
			round INTEGER NOT NULL,
			player TEXT NOT NULL,
			computer TEXT NOT NULL,
			result TEXT NOT NULL CHECK(result IN ('win', 'lose', 'draw')),
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Challenges table - one row per completed action challenge
		`CREATE TABLE IF NOT EXISTS challenges (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			action TEXT NOT NULL,
			progress REAL NOT NULL,
			score INTEGER NOT NULL,
			completed_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Indexes for the per-game and per-session lookups
		`CREATE INDEX IF NOT EXISTS idx_rounds_game_id ON rounds(game_id)`,
		`CREATE INDEX IF NOT EXISTS idx_challenges_session_id ON challenges(session_id)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
