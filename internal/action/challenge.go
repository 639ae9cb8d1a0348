// Package action implements the facial action challenge game. Players work
// through an ordered set of prompts (smile, turn your head, wink and so on)
// while a capture loop measures how closely each frame matches the prompt.
package action

import "time"

// Type identifies one facial action the player can be asked to perform.
type Type string

const (
	Smile         Type = "smile"
	TurnLeft      Type = "turn_left"
	TurnRight     Type = "turn_right"
	Shrug         Type = "shrug"
	RaiseEyebrows Type = "raise_eyebrows"
	Wink          Type = "wink"
	Nod           Type = "nod"
)

// Difficulty selects a challenge set.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// ParseDifficulty maps a request string to a Difficulty, defaulting to Easy.
func ParseDifficulty(s string) Difficulty {
	switch Difficulty(s) {
	case Medium:
		return Medium
	case Hard:
		return Hard
	default:
		return Easy
	}
}

// Challenge is one prompt in a challenge set. Progress only ever moves a
// challenge towards completed; a completed challenge never reopens.
type Challenge struct {
	Action      Type    `json:"action"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Emoji       string  `json:"emoji"`
	Threshold   float64 `json:"threshold"`

	Completed   bool      `json:"completed"`
	Progress    float64   `json:"progress"`
	CompletedAt time.Time `json:"completed_at,omitempty"`
}

// ChallengeSet returns a fresh ordered challenge list for the difficulty.
// Harder sets add actions and raise thresholds.
func ChallengeSet(d Difficulty) []Challenge {
	switch d {
	case Medium:
		return []Challenge{
			{Action: Smile, Name: "Smile", Description: "smile at the camera", Emoji: "😊", Threshold: 0.7},
			{Action: TurnLeft, Name: "Turn left", Description: "turn your head left", Emoji: "←", Threshold: 0.6},
			{Action: TurnRight, Name: "Turn right", Description: "turn your head right", Emoji: "→", Threshold: 0.6},
			{Action: RaiseEyebrows, Name: "Raise eyebrows", Description: "raise your eyebrows", Emoji: "🤨", Threshold: 0.7},
			{Action: Wink, Name: "Wink", Description: "wink one eye", Emoji: "😉", Threshold: 0.8},
		}
	case Hard:
		return []Challenge{
			{Action: Smile, Name: "Smile", Description: "smile at the camera", Emoji: "😊", Threshold: 0.8},
			{Action: TurnLeft, Name: "Turn left", Description: "turn your head left", Emoji: "←", Threshold: 0.7},
			{Action: TurnRight, Name: "Turn right", Description: "turn your head right", Emoji: "→", Threshold: 0.7},
			{Action: Shrug, Name: "Shrug", Description: "shrug your shoulders", Emoji: "🤷", Threshold: 0.6},
			{Action: RaiseEyebrows, Name: "Raise eyebrows", Description: "raise your eyebrows", Emoji: "🤨", Threshold: 0.8},
			{Action: Wink, Name: "Wink", Description: "wink one eye", Emoji: "😉", Threshold: 0.9},
			{Action: Nod, Name: "Nod", Description: "nod your head", Emoji: "👋", Threshold: 0.8},
		}
	default:
		return []Challenge{
			{Action: Smile, Name: "Smile", Description: "smile at the camera", Emoji: "😊", Threshold: 0.6},
			{Action: TurnLeft, Name: "Turn left", Description: "turn your head left", Emoji: "←", Threshold: 0.5},
			{Action: TurnRight, Name: "Turn right", Description: "turn your head right", Emoji: "→", Threshold: 0.5},
		}
	}
}
