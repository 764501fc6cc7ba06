// Package trainer tracks progress through a fixed alternating bow-pattern
// exercise and scores stroke correctness.
package trainer

import (
	"fmt"
	"time"

	"github.com/askumar/violincoach/internal/bow"
)

// PatternLength is the number of bow strokes in the exercise.
const PatternLength = 32

// minUpdateInterval is the minimum time between accepted direction
// changes; faster flips are ignored as classifier jitter.
const minUpdateInterval = 500 * time.Millisecond

// waitingStatus is reported while no usable bow direction is coming in.
const waitingStatus = "Waiting for bow movement..."

// pattern is the Suzuki Book 1 "Twinkle Twinkle Little Star" bowing
// sequence: alternating down and up bows, A section plus repeat.
var pattern = buildPattern()

func buildPattern() [PatternLength]bow.Direction {
	var p [PatternLength]bow.Direction
	for i := range p {
		if i%2 == 0 {
			p[i] = bow.DirectionDown
		} else {
			p[i] = bow.DirectionUp
		}
	}
	return p
}

// Stats summarizes progress through the exercise.
type Stats struct {
	Position  int     `json:"position"`
	Total     int     `json:"total"`
	Correct   int     `json:"correct"`
	Incorrect int     `json:"incorrect"`
	Accuracy  float64 `json:"accuracy"`
}

// Trainer advances a cursor through the fixed bow pattern as committed
// directions change, scoring each change against the expected stroke.
// The cursor wraps: the exercise cycles rather than terminating.
//
// A Trainer is owned by a single session and is not safe for concurrent
// use.
type Trainer struct {
	cursor     int
	last       bow.Direction
	correct    int
	incorrect  int
	lastUpdate time.Time
	now        func() time.Time
}

// New creates a Trainer positioned at the start of the pattern.
func New() *Trainer {
	return &Trainer{now: time.Now}
}

// Update feeds one committed bow direction into the trainer and returns a
// status message plus the current cursor position.
//
// Not-detected, calibrating and holding inputs are ignored entirely. A
// change of direction within the minimum update interval is silently
// dropped. An accepted change is scored against the expected pattern
// entry and advances the cursor either way. The first stroke after a
// reset counts as a change and is scored against the first pattern entry.
func (t *Trainer) Update(direction bow.Direction) (string, int) {
	switch direction {
	case bow.DirectionNotDetected, bow.DirectionCalibrating, bow.DirectionHolding:
		return waitingStatus, t.cursor
	}

	var status string

	if direction != t.last {
		if t.now().Sub(t.lastUpdate) < minUpdateInterval {
			return t.statusMessage(), t.cursor
		}

		expected := pattern[t.cursor]
		if direction == expected {
			t.correct++
			status = fmt.Sprintf("Correct! %s detected.", direction)
		} else {
			t.incorrect++
			status = fmt.Sprintf("Oops! Expected %s, but detected %s.", expected, direction)
		}

		t.cursor = (t.cursor + 1) % PatternLength
		t.lastUpdate = t.now()
	} else {
		status = fmt.Sprintf("Current bow: %s, next expected: %s", direction, pattern[t.cursor])
	}

	t.last = direction

	return status, t.cursor
}

// Reset returns the trainer to the start of the pattern with zeroed
// counts.
func (t *Trainer) Reset() {
	t.cursor = 0
	t.last = ""
	t.correct = 0
	t.incorrect = 0
	t.lastUpdate = time.Time{}
}

// Stats returns the current progress statistics.
func (t *Trainer) Stats() Stats {
	return Stats{
		Position:  t.cursor,
		Total:     PatternLength,
		Correct:   t.correct,
		Incorrect: t.incorrect,
		Accuracy:  t.accuracy(),
	}
}

// Expected returns the next expected stroke direction.
func (t *Trainer) Expected() bow.Direction {
	return pattern[t.cursor]
}

// statusMessage formats the progress summary line.
func (t *Trainer) statusMessage() string {
	return fmt.Sprintf("Progress: %d/%d | Next: %s | Accuracy: %.1f%%",
		t.cursor, PatternLength, pattern[t.cursor], t.accuracy())
}

func (t *Trainer) accuracy() float64 {
	total := t.correct + t.incorrect
	if total == 0 {
		return 0
	}
	return float64(t.correct) / float64(total) * 100
}
