package playback

import "math"

// nearEndThreshold is how close to the end of an item counts as finished.
// Advancing slightly early gives a uniform code path for natural end and for
// skipping trailing artifacts, and works the same in the full and minimized
// views.
const nearEndThreshold = 1.0 // seconds

// Decision is the advance policy's verdict for one tick.
type Decision int

const (
	// DecisionNone: keep playing, nothing to do this tick.
	DecisionNone Decision = iota
	// DecisionAdvance: load and play the next index (wrapping if needed).
	DecisionAdvance
	// DecisionPause: end of the list without repeat; stop where we are.
	DecisionPause
)

// DecideAtTick applies the end-of-item policy to one polled reading of the
// player clock. Invalid readings (zero, negative, NaN, Inf) mean the player
// state is stale or uninitialized and produce no action.
func DecideAtTick(currentTime, duration float64, index, length int, repeat bool) Decision {
	if length <= 0 || index < 0 || index >= length {
		return DecisionNone
	}
	if !validSeconds(currentTime) || !validSeconds(duration) {
		return DecisionNone
	}
	if duration-currentTime >= nearEndThreshold {
		return DecisionNone
	}

	if index < length-1 || repeat {
		return DecisionAdvance
	}
	return DecisionPause
}

func validSeconds(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}
