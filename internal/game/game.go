package game

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/camplay/internal/broadcast"
	"github.com/ayusman/camplay/internal/recognize"
)

// Channel is the broadcast channel game events are published on.
const Channel = "rps_game"

const stopJoinTimeout = 2 * time.Second

// Config holds the round timings. The defaults match live play; tests use
// much shorter intervals.
type Config struct {
	CountdownTicks int
	TickInterval   time.Duration
	InputWait      time.Duration
	PollInterval   time.Duration
}

// DefaultConfig returns the live-play timings: a 3 second countdown and a
// 10 second input window polled twice a second.
func DefaultConfig() Config {
	return Config{
		CountdownTicks: 3,
		TickInterval:   time.Second,
		InputWait:      10 * time.Second,
		PollInterval:   500 * time.Millisecond,
	}
}

// RoundRecord is one finished round as handed to the recorder.
type RoundRecord struct {
	GameID   string
	Round    int
	Player   Gesture
	Computer Gesture
	Result   Result
}

// RoundRecorder persists finished rounds. Recording failures are logged,
// never fatal to the game.
type RoundRecorder interface {
	RecordRound(rec RoundRecord) error
}

// Summary is the aggregate handed back by Stop and broadcast at game end.
type Summary struct {
	GameID        string  `json:"game_id"`
	TotalTime     float64 `json:"total_time"`
	RoundsPlayed  int     `json:"rounds_played"`
	PlayerScore   int     `json:"player_score"`
	ComputerScore int     `json:"computer_score"`
}

// Status is a point-in-time snapshot of the machine.
type Status struct {
	State           State   `json:"status"`
	IsPlaying       bool    `json:"is_playing"`
	GameID          string  `json:"game_id,omitempty"`
	CurrentRound    int     `json:"current_round"`
	TargetScore     int     `json:"target_score"`
	PlayerScore     int     `json:"player_score"`
	ComputerScore   int     `json:"computer_score"`
	PlayerGesture   Gesture `json:"player_gesture,omitempty"`
	ComputerGesture Gesture `json:"computer_gesture,omitempty"`
	CurrentResult   Result  `json:"current_result,omitempty"`
	Duration        float64 `json:"game_duration"`
}

// Game is the round state machine. All exported methods are safe for
// concurrent use; the round loop runs on a background goroutine started
// by Start and joined by Stop.
type Game struct {
	cfg         Config
	broadcaster *broadcast.Broadcaster
	recognizer  recognize.Recognizer
	strategy    Strategy
	recorder    RoundRecorder

	mu              sync.Mutex
	state           State
	gameID          string
	targetScore     int
	round           int
	playerScore     int
	computerScore   int
	playerGesture   Gesture
	playerSet       bool
	computerGesture Gesture
	currentResult   Result
	history         []Gesture
	startTime       time.Time
	stopCh          chan struct{}
	doneCh          chan struct{}
}

// New creates an idle game machine. strategy may be nil for random play;
// recorder may be nil to skip persistence.
func New(cfg Config, b *broadcast.Broadcaster, r recognize.Recognizer, strategy Strategy, recorder RoundRecorder) *Game {
	if strategy == nil {
		strategy = RandomStrategy{}
	}
	return &Game{
		cfg:         cfg,
		broadcaster: b,
		recognizer:  r,
		strategy:    strategy,
		recorder:    recorder,
		state:       StateIdle,
	}
}

// Start begins a new game played first to targetScore points (minimum 1).
// It fails when a game is already running or the recognizer is unavailable.
func (g *Game) Start(targetScore int) error {
	if targetScore < 1 {
		targetScore = 1
	}

	g.mu.Lock()
	if g.state != StateIdle {
		g.mu.Unlock()
		return ErrAlreadyRunning
	}
	if g.recognizer == nil || !g.recognizer.IsAvailable() {
		g.mu.Unlock()
		return ErrRecognizerUnavailable
	}

	g.gameID = uuid.NewString()
	g.targetScore = targetScore
	g.round = 0
	g.playerScore = 0
	g.computerScore = 0
	g.playerGesture = ""
	g.playerSet = false
	g.computerGesture = ""
	g.currentResult = ""
	g.history = nil
	g.startTime = time.Now()
	g.state = StateCountdown
	g.stopCh = make(chan struct{})
	g.doneCh = make(chan struct{})

	// Published before the worker starts so game_started always precedes
	// the first round_started event.
	g.publish("game_started", "game on", map[string]any{
		"game_id":        g.gameID,
		"target_score":   targetScore,
		"player_score":   0,
		"computer_score": 0,
	})

	go g.run(g.stopCh, g.doneCh)
	g.mu.Unlock()
	return nil
}

// Stop halts the running game, joins the worker and broadcasts the final
// summary. Returns ErrNotRunning when the machine is already idle.
func (g *Game) Stop() (Summary, error) {
	g.mu.Lock()
	if g.state == StateIdle {
		g.mu.Unlock()
		return Summary{}, ErrNotRunning
	}

	stopCh := g.stopCh
	doneCh := g.doneCh
	g.mu.Unlock()

	select {
	case <-stopCh:
	default:
		close(stopCh)
	}

	select {
	case <-doneCh:
	case <-time.After(stopJoinTimeout):
		log.Printf("game: worker did not stop within %v", stopJoinTimeout)
	}

	g.mu.Lock()
	g.state = StateIdle
	summary := g.summaryLocked()
	g.mu.Unlock()

	g.publish("game_stopped", "game stopped", map[string]any{
		"total_time":    summary.TotalTime,
		"rounds_played": summary.RoundsPlayed,
		"final_scores": map[string]int{
			"player":   summary.PlayerScore,
			"computer": summary.ComputerScore,
		},
	})
	return summary, nil
}

// Status returns a snapshot of the machine.
func (g *Game) Status() Status {
	g.mu.Lock()
	defer g.mu.Unlock()

	var duration float64
	if !g.startTime.IsZero() {
		duration = time.Since(g.startTime).Seconds()
	}
	return Status{
		State:           g.state,
		IsPlaying:       g.state != StateIdle,
		GameID:          g.gameID,
		CurrentRound:    g.round,
		TargetScore:     g.targetScore,
		PlayerScore:     g.playerScore,
		ComputerScore:   g.computerScore,
		PlayerGesture:   g.playerGesture,
		ComputerGesture: g.computerGesture,
		CurrentResult:   g.currentResult,
		Duration:        duration,
	}
}

// SetPlayerGesture records the player's throw for the current round. Only
// the first write during the input window wins; later writes and writes
// outside WAITING_INPUT are rejected.
func (g *Game) SetPlayerGesture(gesture Gesture) bool {
	if !gesture.Valid() {
		return false
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != StateWaitingPlayer || g.playerSet {
		return false
	}
	g.playerGesture = gesture
	g.playerSet = true
	return true
}

// SetPlayerUnknown marks the round's input as explicitly unreadable, which
// the judge counts as a loss. First-writer-wins like SetPlayerGesture.
func (g *Game) SetPlayerUnknown() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != StateWaitingPlayer || g.playerSet {
		return false
	}
	g.playerGesture = GestureUnknown
	g.playerSet = true
	return true
}

func (g *Game) run(stopCh, doneCh chan struct{}) {
	defer close(doneCh)
	defer func() {
		g.mu.Lock()
		g.state = StateIdle
		g.mu.Unlock()
	}()

	for {
		g.startRound()

		if !g.countdown(stopCh) {
			return
		}
		if !g.waitForPlayer(stopCh) {
			return
		}

		g.judgeRound()
		g.showResult()
		g.recordRound()

		if g.finished() {
			g.finishGame()
			return
		}
		if stopped(stopCh) {
			return
		}
	}
}

func (g *Game) startRound() {
	g.mu.Lock()
	g.round++
	g.playerGesture = ""
	g.playerSet = false
	g.computerGesture = ""
	g.currentResult = ""
	round := g.round
	player := g.playerScore
	computer := g.computerScore
	g.mu.Unlock()

	log.Printf("game: round %d starting", round)
	g.publish("round_started", "new round", map[string]any{
		"round": round,
		"scores": map[string]int{
			"player":   player,
			"computer": computer,
		},
	})
}

func (g *Game) countdown(stopCh chan struct{}) bool {
	g.setState(StateCountdown)

	for i := g.cfg.CountdownTicks; i > 0; i-- {
		if stopped(stopCh) {
			return false
		}
		g.publish("countdown", "", map[string]any{"count": i})
		if !sleep(stopCh, g.cfg.TickInterval) {
			return false
		}
	}
	return true
}

func (g *Game) waitForPlayer(stopCh chan struct{}) bool {
	g.setState(StateWaitingPlayer)
	g.publish("waiting_player", "show your hand", map[string]any{})

	deadline := time.Now().Add(g.cfg.InputWait)
	for time.Now().Before(deadline) {
		g.mu.Lock()
		set := g.playerSet
		g.mu.Unlock()
		if set {
			return true
		}
		if !sleep(stopCh, g.cfg.PollInterval) {
			return false
		}
	}

	// Timed out with no input. The round proceeds with whatever is set,
	// which may be nothing at all; the judge treats that as a loss.
	log.Printf("game: input window elapsed without a player gesture")
	return true
}

func (g *Game) judgeRound() {
	g.setState(StateJudging)

	g.mu.Lock()
	player := g.playerGesture
	computer := g.strategy.Choose(g.history)
	g.computerGesture = computer

	result := Judge(player, computer)
	g.currentResult = result
	switch result {
	case ResultWin:
		g.playerScore++
	case ResultLose:
		g.computerScore++
	}
	if player.Valid() {
		g.history = append(g.history, player)
	}
	g.mu.Unlock()

	log.Printf("game: round judged %s (player %s vs computer %s)", result, orUnknown(player), computer)
}

func (g *Game) showResult() {
	g.setState(StateResult)

	g.mu.Lock()
	result := g.currentResult
	player := g.playerGesture
	computer := g.computerGesture
	playerScore := g.playerScore
	computerScore := g.computerScore
	g.mu.Unlock()

	message := resultMessage(player, result)
	g.publish("result", message, map[string]any{
		"result": string(result),
		"gestures": map[string]string{
			"player":   string(orUnknown(player)),
			"computer": string(computer),
		},
		"scores": map[string]int{
			"player":   playerScore,
			"computer": computerScore,
		},
	})
}

func (g *Game) recordRound() {
	if g.recorder == nil {
		return
	}

	g.mu.Lock()
	rec := RoundRecord{
		GameID:   g.gameID,
		Round:    g.round,
		Player:   orUnknown(g.playerGesture),
		Computer: g.computerGesture,
		Result:   g.currentResult,
	}
	g.mu.Unlock()

	if err := g.recorder.RecordRound(rec); err != nil {
		log.Printf("game: record round: %v", err)
	}
}

func (g *Game) finished() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.playerScore >= g.targetScore || g.computerScore >= g.targetScore
}

func (g *Game) finishGame() {
	g.setState(StateFinished)

	g.mu.Lock()
	summary := g.summaryLocked()
	winner := "computer"
	if g.playerScore > g.computerScore {
		winner = "player"
	}
	result := g.currentResult
	player := g.playerGesture
	computer := g.computerGesture
	g.mu.Unlock()

	g.publish("game_finished", "game over, "+resultMessage(player, result), map[string]any{
		"winner":        winner,
		"result":        string(result),
		"rounds_played": summary.RoundsPlayed,
		"total_time":    summary.TotalTime,
		"gestures": map[string]string{
			"player":   string(orUnknown(player)),
			"computer": string(orUnknown(computer)),
		},
		"final_scores": map[string]int{
			"player":   summary.PlayerScore,
			"computer": summary.ComputerScore,
		},
	})
}

func (g *Game) summaryLocked() Summary {
	var total float64
	if !g.startTime.IsZero() {
		total = time.Since(g.startTime).Seconds()
	}
	return Summary{
		GameID:        g.gameID,
		TotalTime:     total,
		RoundsPlayed:  g.round,
		PlayerScore:   g.playerScore,
		ComputerScore: g.computerScore,
	}
}

func (g *Game) setState(s State) {
	g.mu.Lock()
	g.state = s
	g.mu.Unlock()
}

func (g *Game) publish(stage, message string, data map[string]any) {
	g.broadcaster.Publish(broadcast.Event{
		Channel: Channel,
		Stage:   stage,
		Message: message,
		Data:    data,
	})
}

func resultMessage(player Gesture, result Result) string {
	if player == GestureUnknown || player == "" {
		return "no readable gesture, round lost"
	}
	switch result {
	case ResultWin:
		return "you win"
	case ResultLose:
		return "you lose"
	case ResultDraw:
		return "draw"
	default:
		return "round over"
	}
}

func orUnknown(g Gesture) Gesture {
	if g == "" {
		return GestureUnknown
	}
	return g
}

func stopped(stopCh chan struct{}) bool {
	select {
	case <-stopCh:
		return true
	default:
		return false
	}
}

func sleep(stopCh chan struct{}, d time.Duration) bool {
	select {
	case <-stopCh:
		return false
	case <-time.After(d):
		return true
	}
}
