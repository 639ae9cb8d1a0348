package store

import (
	"fmt"
	"time"

	"github.com/ayusman/camplay/internal/action"
	"github.com/ayusman/camplay/internal/game"
)

// Round is a persisted rock-paper-scissors round.
type Round struct {
	ID        int64     `json:"id"`
	GameID    string    `json:"game_id"`
	Round     int       `json:"round"`
	Player    string    `json:"player"`
	Computer  string    `json:"computer"`
	Result    string    `json:"result"`
	CreatedAt time.Time `json:"created_at"`
}

// Challenge is a persisted action challenge completion.
type Challenge struct {
	ID          int64     `json:"id"`
	SessionID   string    `json:"session_id"`
	Action      string    `json:"action"`
	Progress    float64   `json:"progress"`
	Score       int       `json:"score"`
	CompletedAt time.Time `json:"completed_at"`
}

// RecordRound stores one judged round.
func (s *Store) RecordRound(rec game.RoundRecord) error {
	_, err := s.db.Exec(
		`INSERT INTO rounds (game_id, round, player, computer, result) VALUES (?, ?, ?, ?, ?)`,
		rec.GameID, rec.Round, string(rec.Player), string(rec.Computer), string(rec.Result),
	)
	if err != nil {
		return fmt.Errorf("failed to record round: %w", err)
	}
	return nil
}

// RecordChallenge stores one completed action challenge.
func (s *Store) RecordChallenge(rec action.ChallengeRecord) error {
	_, err := s.db.Exec(
		`INSERT INTO challenges (session_id, action, progress, score) VALUES (?, ?, ?, ?)`,
		rec.SessionID, string(rec.Action), rec.Progress, rec.Score,
	)
	if err != nil {
		return fmt.Errorf("failed to record challenge: %w", err)
	}
	return nil
}

// RoundsByGame returns all rounds of one game in play order.
func (s *Store) RoundsByGame(gameID string) ([]Round, error) {
	rows, err := s.db.Query(
		`SELECT id, game_id, round, player, computer, result, created_at
		 FROM rounds WHERE game_id = ? ORDER BY round`,
		gameID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query rounds: %w", err)
	}
	defer rows.Close()

	var rounds []Round
	for rows.Next() {
		var r Round
		if err := rows.Scan(&r.ID, &r.GameID, &r.Round, &r.Player, &r.Computer, &r.Result, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan round: %w", err)
		}
		rounds = append(rounds, r)
	}
	return rounds, rows.Err()
}

// RecentRounds returns the most recently played rounds, newest first.
func (s *Store) RecentRounds(limit int) ([]Round, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT id, game_id, round, player, computer, result, created_at
		 FROM rounds ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query rounds: %w", err)
	}
	defer rows.Close()

	var rounds []Round
	for rows.Next() {
		var r Round
		if err := rows.Scan(&r.ID, &r.GameID, &r.Round, &r.Player, &r.Computer, &r.Result, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan round: %w", err)
		}
		rounds = append(rounds, r)
	}
	return rounds, rows.Err()
}

// ChallengesBySession returns the completed challenges of one session in
// completion order.
func (s *Store) ChallengesBySession(sessionID string) ([]Challenge, error) {
	rows, err := s.db.Query(
		`SELECT id, session_id, action, progress, score, completed_at
		 FROM challenges WHERE session_id = ? ORDER BY id`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query challenges: %w", err)
	}
	defer rows.Close()

	var challenges []Challenge
	for rows.Next() {
		var c Challenge
		if err := rows.Scan(&c.ID, &c.SessionID, &c.Action, &c.Progress, &c.Score, &c.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan challenge: %w", err)
		}
		challenges = append(challenges, c)
	}
	return challenges, rows.Err()
}

// WinStats aggregates round results across all games.
type WinStats struct {
	Rounds int `json:"rounds"`
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
	Draws  int `json:"draws"`
}

// Stats returns the all-time player win/loss/draw counts.
func (s *Store) Stats() (WinStats, error) {
	var stats WinStats
	err := s.db.QueryRow(
		`SELECT COUNT(*),
		        COALESCE(SUM(result = 'win'), 0),
		        COALESCE(SUM(result = 'lose'), 0),
		        COALESCE(SUM(result = 'draw'), 0)
		 FROM rounds`,
	).Scan(&stats.Rounds, &stats.Wins, &stats.Losses, &stats.Draws)
	if err != nil {
		return WinStats{}, fmt.Errorf("failed to query stats: %w", err)
	}
	return stats, nil
}
