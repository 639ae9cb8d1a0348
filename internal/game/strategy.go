package game

import "math/rand"

// Strategy picks the computer's throw for a round, given the player's
// throws from earlier rounds of the same game.
type Strategy interface {
	Choose(playerHistory []Gesture) Gesture
}

var throws = []Gesture{GestureRock, GesturePaper, GestureScissors}

// RandomStrategy picks uniformly at random. It is the default.
type RandomStrategy struct{}

func (RandomStrategy) Choose([]Gesture) Gesture {
	return throws[rand.Intn(len(throws))]
}

// FrequencyStrategy counters the player's most frequent throw so far,
// falling back to random while there is no history.
type FrequencyStrategy struct{}

func (FrequencyStrategy) Choose(playerHistory []Gesture) Gesture {
	counts := map[Gesture]int{}
	for _, g := range playerHistory {
		if g.Valid() {
			counts[g]++
		}
	}

	var favorite Gesture
	best := 0
	for _, g := range throws {
		if counts[g] > best {
			best = counts[g]
			favorite = g
		}
	}
	if best == 0 {
		return RandomStrategy{}.Choose(nil)
	}

	counters := map[Gesture]Gesture{
		GestureRock:     GesturePaper,
		GesturePaper:    GestureScissors,
		GestureScissors: GestureRock,
	}
	return counters[favorite]
}

// Fixed returns a strategy that always throws g. Used in tests to force
// deterministic outcomes.
func Fixed(g Gesture) Strategy {
	return fixedStrategy{g}
}

type fixedStrategy struct{ gesture Gesture }

func (s fixedStrategy) Choose([]Gesture) Gesture {
	return s.gesture
}
