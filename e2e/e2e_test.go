package e2e

import (
	"encoding/base64"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"gocv.io/x/gocv"

	"github.com/ayusman/camplay/internal/broadcast"
	"github.com/ayusman/camplay/internal/game"
	"github.com/ayusman/camplay/internal/recognize"
	"github.com/ayusman/camplay/internal/server"
	"github.com/ayusman/camplay/internal/store"
)

type fixture struct {
	store       *store.Store
	game        *game.Game
	mock        *recognize.Mock
	broadcaster *broadcast.Broadcaster
	url         string
}

// newFixture stands up a full server with a real store and a scripted
// recognizer. The computer always throws paper.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	st, err := store.New(filepath.Join(t.TempDir(), "camplay.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	t.Cleanup(func() { st.Close() })

	b := broadcast.New(256)
	mock := recognize.NewMock()
	cfg := game.Config{
		CountdownTicks: 2,
		TickInterval:   5 * time.Millisecond,
		InputWait:      300 * time.Millisecond,
		PollInterval:   5 * time.Millisecond,
	}
	g := game.New(cfg, b, mock, game.Fixed(game.GesturePaper), st)
	t.Cleanup(func() { g.Stop() })

	srv := server.New(server.Config{
		Broadcaster: b,
		Game:        g,
		Recognizer:  mock,
		Store:       st,
	})
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	return &fixture{store: st, game: g, mock: mock, broadcaster: b, url: ts.URL}
}

func (f *fixture) dial(t *testing.T) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(f.url, "http") + "/ws/rps"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func frameDataURL(t *testing.T) string {
	t.Helper()

	mat := gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC3)
	defer mat.Close()

	buf, err := gocv.IMEncode(".png", mat)
	if err != nil {
		t.Fatalf("encode frame: %v", err)
	}
	defer buf.Close()
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.GetBytes())
}

func readNext(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	var msg map[string]any
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read message: %v", err)
	}
	return msg
}

func readType(t *testing.T, conn *websocket.Conn, typ string) map[string]any {
	t.Helper()

	for i := 0; i < 300; i++ {
		if msg := readNext(t, conn); msg["type"] == typ {
			return msg
		}
	}
	t.Fatalf("no %q message received", typ)
	return nil
}

func readStage(t *testing.T, conn *websocket.Conn, stage string) map[string]any {
	t.Helper()

	for i := 0; i < 300; i++ {
		msg := readNext(t, conn)
		if msg["type"] == "game_state" && msg["stage"] == stage {
			return msg
		}
	}
	t.Fatalf("no game_state with stage %q received", stage)
	return nil
}

func startGame(t *testing.T, conn *websocket.Conn, target int) string {
	t.Helper()

	if err := conn.WriteJSON(map[string]any{
		"type": "game_control", "action": "start_game", "target_score": target,
	}); err != nil {
		t.Fatalf("write start: %v", err)
	}
	ack := readType(t, conn, "control_ack")
	if ack["status"] != "started" {
		t.Fatalf("control_ack = %v", ack)
	}
	return ack["game_id"].(string)
}

func TestE2E_DuelWonByFrame(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	f := newFixture(t)
	f.mock.SetResults(recognize.Result{Label: recognize.LabelScissors, Confidence: 0.9})
	conn := f.dial(t)

	gameID := startGame(t, conn, 1)

	readStage(t, conn, "countdown")
	readStage(t, conn, "waiting_player")

	if err := conn.WriteJSON(map[string]any{
		"type": "frame", "image": frameDataURL(t), "timestamp": 1.0,
	}); err != nil {
		t.Fatalf("write frame: %v", err)
	}
	rec := readType(t, conn, "recognition_result")
	if rec["gesture"] != "scissors" || rec["is_valid"] != true {
		t.Fatalf("recognition_result = %v", rec)
	}

	result := readStage(t, conn, "result")
	if got := result["data"].(map[string]any)["result"]; got != "win" {
		t.Errorf("round result = %v, want win", got)
	}

	finished := readStage(t, conn, "game_finished")
	if got := finished["data"].(map[string]any)["winner"]; got != "player" {
		t.Errorf("winner = %v, want player", got)
	}

	// The round was persisted.
	waitFor(t, func() bool {
		rounds, err := f.store.RoundsByGame(gameID)
		return err == nil && len(rounds) == 1
	}, "round recorded")
	rounds, _ := f.store.RoundsByGame(gameID)
	if rounds[0].Player != "scissors" || rounds[0].Result != "win" {
		t.Errorf("recorded round = %+v", rounds[0])
	}
}

func TestE2E_InputTimeoutLoses(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	f := newFixture(t)
	conn := f.dial(t)

	startGame(t, conn, 1)
	readStage(t, conn, "waiting_player")

	// Send nothing: the input window elapses and the round is lost.
	result := readStage(t, conn, "result")
	data := result["data"].(map[string]any)
	if data["result"] != "lose" {
		t.Errorf("round result = %v, want lose", data["result"])
	}
	if gestures := data["gestures"].(map[string]any); gestures["player"] != "unknown" {
		t.Errorf("player gesture = %v, want unknown", gestures["player"])
	}

	finished := readStage(t, conn, "game_finished")
	if got := finished["data"].(map[string]any)["winner"]; got != "computer" {
		t.Errorf("winner = %v, want computer", got)
	}
}

func TestE2E_ObserversSeeSameEventOrder(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	f := newFixture(t)
	player := f.dial(t)
	observer := f.dial(t)
	waitFor(t, func() bool { return f.broadcaster.SubscriberCount() == 2 }, "both subscriptions")

	// Start and let the input window elapse so the game runs to completion
	// without further input. Both connections should relay the same
	// broadcast sequence in the same order.
	if err := player.WriteJSON(map[string]any{
		"type": "game_control", "action": "start_game", "target_score": 1,
	}); err != nil {
		t.Fatalf("write start: %v", err)
	}

	playerStages := collectStages(t, player)
	observerStages := collectStages(t, observer)

	if len(playerStages) != len(observerStages) {
		t.Fatalf("stage counts differ: player %v, observer %v", playerStages, observerStages)
	}
	for i := range playerStages {
		if playerStages[i] != observerStages[i] {
			t.Fatalf("stage order diverges at %d: player %v, observer %v", i, playerStages, observerStages)
		}
	}
	if playerStages[0] != "game_started" {
		t.Errorf("first stage = %q, want game_started", playerStages[0])
	}
}

// collectStages drains game_state messages until game_finished.
func collectStages(t *testing.T, conn *websocket.Conn) []string {
	t.Helper()

	var stages []string
	for i := 0; i < 300; i++ {
		msg := readNext(t, conn)
		if msg["type"] != "game_state" {
			continue
		}
		stage := msg["stage"].(string)
		stages = append(stages, stage)
		if stage == "game_finished" {
			return stages
		}
	}
	t.Fatalf("game never finished; stages so far: %v", stages)
	return nil
}

func waitFor(t *testing.T, cond func() bool, what string) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
