package store

import (
	"path/filepath"
	"testing"

	"github.com/ayusman/camplay/internal/action"
	"github.com/ayusman/camplay/internal/game"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := New(filepath.Join(t.TempDir(), "camplay.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_RoundsByGame(t *testing.T) {
	s := newTestStore(t)

	records := []game.RoundRecord{
		{GameID: "g1", Round: 1, Player: game.GestureRock, Computer: game.GestureScissors, Result: game.ResultWin},
		{GameID: "g1", Round: 2, Player: game.GestureUnknown, Computer: game.GesturePaper, Result: game.ResultLose},
		{GameID: "g2", Round: 1, Player: game.GesturePaper, Computer: game.GesturePaper, Result: game.ResultDraw},
	}
	for _, rec := range records {
		if err := s.RecordRound(rec); err != nil {
			t.Fatalf("RecordRound(%+v) error = %v", rec, err)
		}
	}

	rounds, err := s.RoundsByGame("g1")
	if err != nil {
		t.Fatalf("RoundsByGame() error = %v", err)
	}
	if len(rounds) != 2 {
		t.Fatalf("RoundsByGame() returned %d rounds, want 2", len(rounds))
	}
	if rounds[0].Round != 1 || rounds[0].Player != "rock" || rounds[0].Result != "win" {
		t.Errorf("first round = %+v", rounds[0])
	}
	if rounds[1].Player != "unknown" || rounds[1].Result != "lose" {
		t.Errorf("second round = %+v", rounds[1])
	}
}

func TestStore_RecentRoundsNewestFirst(t *testing.T) {
	s := newTestStore(t)

	for i := 1; i <= 5; i++ {
		rec := game.RoundRecord{
			GameID: "g1", Round: i,
			Player: game.GestureRock, Computer: game.GestureScissors, Result: game.ResultWin,
		}
		if err := s.RecordRound(rec); err != nil {
			t.Fatalf("RecordRound() error = %v", err)
		}
	}

	rounds, err := s.RecentRounds(3)
	if err != nil {
		t.Fatalf("RecentRounds() error = %v", err)
	}
	if len(rounds) != 3 {
		t.Fatalf("RecentRounds(3) returned %d rounds", len(rounds))
	}
	if rounds[0].Round != 5 || rounds[2].Round != 3 {
		t.Errorf("rounds not newest first: %d, %d, %d", rounds[0].Round, rounds[1].Round, rounds[2].Round)
	}
}

func TestStore_RejectsBadResult(t *testing.T) {
	s := newTestStore(t)

	err := s.RecordRound(game.RoundRecord{
		GameID: "g1", Round: 1,
		Player: game.GestureRock, Computer: game.GesturePaper, Result: "tie",
	})
	if err == nil {
		t.Error("RecordRound() accepted an invalid result")
	}
}

func TestStore_ChallengesBySession(t *testing.T) {
	s := newTestStore(t)

	records := []action.ChallengeRecord{
		{SessionID: "s1", Action: action.Smile, Progress: 0.72, Score: 72},
		{SessionID: "s1", Action: action.TurnLeft, Progress: 1.0, Score: 100},
		{SessionID: "s2", Action: action.Nod, Progress: 0.9, Score: 90},
	}
	for _, rec := range records {
		if err := s.RecordChallenge(rec); err != nil {
			t.Fatalf("RecordChallenge(%+v) error = %v", rec, err)
		}
	}

	challenges, err := s.ChallengesBySession("s1")
	if err != nil {
		t.Fatalf("ChallengesBySession() error = %v", err)
	}
	if len(challenges) != 2 {
		t.Fatalf("ChallengesBySession() returned %d rows, want 2", len(challenges))
	}
	if challenges[0].Action != string(action.Smile) || challenges[0].Score != 72 {
		t.Errorf("first challenge = %+v", challenges[0])
	}
}

func TestStore_Stats(t *testing.T) {
	s := newTestStore(t)

	stats, err := s.Stats()
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.Rounds != 0 {
		t.Errorf("empty store stats = %+v", stats)
	}

	results := []game.Result{game.ResultWin, game.ResultWin, game.ResultLose, game.ResultDraw}
	for i, result := range results {
		rec := game.RoundRecord{
			GameID: "g1", Round: i + 1,
			Player: game.GestureRock, Computer: game.GestureScissors, Result: result,
		}
		if err := s.RecordRound(rec); err != nil {
			t.Fatalf("RecordRound() error = %v", err)
		}
	}

	stats, err = s.Stats()
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	want := WinStats{Rounds: 4, Wins: 2, Losses: 1, Draws: 1}
	if stats != want {
		t.Errorf("Stats() = %+v, want %+v", stats, want)
	}
}
