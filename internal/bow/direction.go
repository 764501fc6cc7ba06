// Package bow classifies bowing-arm motion into bow-stroke directions.
package bow

import (
	"time"

	"github.com/askumar/violincoach/internal/angles"
	"github.com/askumar/violincoach/internal/pose"
)

// Direction represents the classified bow-stroke state for a frame.
type Direction string

const (
	// DirectionDown is a down-bow: the elbow angle is opening.
	DirectionDown Direction = "down_bow"
	// DirectionUp is an up-bow: the elbow angle is closing.
	DirectionUp Direction = "up_bow"
	// DirectionHolding means the bow is not moving appreciably.
	DirectionHolding Direction = "holding"
	// DirectionCalibrating means too few samples have accumulated to classify.
	DirectionCalibrating Direction = "calibrating"
	// DirectionNotDetected means no landmarks were available for the frame.
	DirectionNotDetected Direction = "not_detected"
)

// String returns the human-readable label for the direction.
func (d Direction) String() string {
	switch d {
	case DirectionDown:
		return "Down bow"
	case DirectionUp:
		return "Up bow"
	case DirectionHolding:
		return "Holding"
	case DirectionCalibrating:
		return "Calibrating"
	default:
		return "Not detected"
	}
}

// Classifier tuning constants.
const (
	// historySize is the number of smoothed elbow angles kept for the
	// velocity estimate.
	historySize = 5
	// minHistory is the minimum number of samples before classification.
	minHistory = 3
	// velocityThreshold is the angular velocity in degrees per frame above
	// which the arm is considered moving.
	velocityThreshold = 1.5
	// confidenceThreshold is the vote count a direction must reach before
	// it can be committed.
	confidenceThreshold = 3
	// debouncePeriod is the minimum time between committed direction changes.
	debouncePeriod = 400 * time.Millisecond
)

// Classifier turns per-frame elbow angles into a debounced bow direction.
// Increasing elbow angle is a down-bow, decreasing is an up-bow: extending
// the bowing arm opens the elbow joint.
//
// A Classifier is owned by a single session and is not safe for concurrent
// use.
type Classifier struct {
	smoother   *angles.Smoother
	history    []float64
	confidence map[Direction]int
	current    Direction
	lastChange time.Time
	now        func() time.Time
}

// NewClassifier creates a Classifier with no committed direction.
func NewClassifier() *Classifier {
	return &Classifier{
		smoother:   angles.NewSmoother(),
		history:    make([]float64, 0, historySize),
		confidence: map[Direction]int{},
		current:    DirectionNotDetected,
		now:        time.Now,
	}
}

// Classify processes one frame of landmarks and returns the committed bow
// direction together with the smoothed elbow angle. The boolean is false
// when no angle is available for the frame.
//
// Absent landmarks yield DirectionNotDetected and leave all internal state
// untouched, so a dropped frame never corrupts the velocity estimate.
func (c *Classifier) Classify(lm *pose.Landmarks) (Direction, float64, bool) {
	raw, ok := angles.ElbowAngle(lm)
	if !ok {
		return DirectionNotDetected, 0, false
	}

	c.smoother.Push(raw)
	smoothed, _ := c.smoother.Smoothed()

	if len(c.history) >= historySize {
		copy(c.history, c.history[1:])
		c.history = c.history[:historySize-1]
	}
	c.history = append(c.history, smoothed)

	if len(c.history) < minHistory {
		return DirectionCalibrating, smoothed, true
	}

	// Mean of the consecutive frame-to-frame deltas, a cheap proxy for
	// angular velocity in degrees per frame.
	velocity := (c.history[len(c.history)-1] - c.history[0]) / float64(len(c.history)-1)

	var candidate Direction
	switch {
	case velocity > velocityThreshold:
		candidate = DirectionDown
	case velocity < -velocityThreshold:
		candidate = DirectionUp
	default:
		candidate = DirectionHolding
	}

	c.vote(candidate)
	c.commit()

	return c.current, smoothed, true
}

// Current returns the last committed direction.
func (c *Classifier) Current() Direction {
	return c.current
}

// Reset clears all history, confidence and the committed direction.
func (c *Classifier) Reset() {
	c.smoother.Reset()
	c.history = c.history[:0]
	c.confidence = map[Direction]int{}
	c.current = DirectionNotDetected
	c.lastChange = time.Time{}
}

// vote increments the candidate's confidence counter and decrements the
// other two. Counters saturate at zero on the way down; the saturation is
// part of the contract, not an implementation accident.
func (c *Classifier) vote(candidate Direction) {
	for _, d := range []Direction{DirectionUp, DirectionDown, DirectionHolding} {
		if d == candidate {
			c.confidence[d]++
		} else if c.confidence[d] > 0 {
			c.confidence[d]--
		}
	}
}

// commit promotes the highest-confidence direction once it has enough
// votes and the debounce period has elapsed. A commit to Up or Down resets
// the counters and seeds the winner at the threshold so a sustained stroke
// does not immediately decay; a commit to Holding keeps the counters so
// holding<->moving transitions stay fast.
func (c *Classifier) commit() {
	best := DirectionHolding
	for _, d := range []Direction{DirectionUp, DirectionDown} {
		if c.confidence[d] > c.confidence[best] {
			best = d
		}
	}

	if best == c.current {
		return
	}
	if c.confidence[best] < confidenceThreshold {
		return
	}
	if !c.lastChange.IsZero() && c.now().Sub(c.lastChange) < debouncePeriod {
		return
	}

	c.current = best
	c.lastChange = c.now()

	if best != DirectionHolding {
		c.confidence = map[Direction]int{best: confidenceThreshold}
	}
}
