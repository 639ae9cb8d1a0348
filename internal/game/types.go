// Package game implements the rock-paper-scissors round state machine.
// A background worker drives each round through countdown, player input,
// judging and result stages, publishing one status event per transition.
package game

import "errors"

// Gesture is a rock-paper-scissors throw. The zero value means no gesture
// has been set for the round; GestureUnknown means the player explicitly
// failed to show a readable gesture.
type Gesture string

const (
	GestureRock     Gesture = "rock"
	GesturePaper    Gesture = "paper"
	GestureScissors Gesture = "scissors"
	GestureUnknown  Gesture = "unknown"
)

// Valid reports whether g is one of the three playable throws.
func (g Gesture) Valid() bool {
	return g == GestureRock || g == GesturePaper || g == GestureScissors
}

// Result is a round outcome from the player's perspective.
type Result string

const (
	ResultWin  Result = "win"
	ResultLose Result = "lose"
	ResultDraw Result = "draw"
)

// State is the current stage of the game machine.
type State string

const (
	StateIdle          State = "idle"
	StateCountdown     State = "countdown"
	StateWaitingPlayer State = "waiting_player"
	StateJudging       State = "judging"
	StateResult        State = "result"
	StateFinished      State = "finished"
)

var (
	// ErrAlreadyRunning is returned by Start when a game is in progress.
	ErrAlreadyRunning = errors.New("game already in progress")

	// ErrNotRunning is returned by Stop when no game is in progress.
	ErrNotRunning = errors.New("no game in progress")

	// ErrRecognizerUnavailable is returned by Start when the gesture
	// recognizer cannot classify frames.
	ErrRecognizerUnavailable = errors.New("gesture recognizer unavailable")
)

// Judge decides a round from the player's perspective. A player who showed
// no readable gesture loses outright.
func Judge(player, computer Gesture) Result {
	if !player.Valid() {
		return ResultLose
	}
	if player == computer {
		return ResultDraw
	}

	beats := map[Gesture]Gesture{
		GestureRock:     GestureScissors,
		GesturePaper:    GestureRock,
		GestureScissors: GesturePaper,
	}
	if beats[player] == computer {
		return ResultWin
	}
	return ResultLose
}
