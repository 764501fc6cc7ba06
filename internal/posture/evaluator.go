// Package posture evaluates playing posture against a calibrated reference.
package posture

import (
	"fmt"
	"strings"

	"github.com/askumar/violincoach/internal/angles"
	"github.com/askumar/violincoach/internal/calibration"
	"github.com/askumar/violincoach/internal/pose"
)

// Status represents the assessed posture quality for a frame.
type Status string

const (
	// StatusGood means all tracked angles are within the deviation threshold.
	StatusGood Status = "good"
	// StatusNeedsAdjustment means at least one angle deviates moderately.
	StatusNeedsAdjustment Status = "needs_adjustment"
	// StatusPoor means at least one angle deviates severely.
	StatusPoor Status = "poor"
	// StatusUnavailable means no frame or no calibrated reference exists.
	StatusUnavailable Status = "unavailable"
)

// String returns the human-readable label for the status.
func (s Status) String() string {
	switch s {
	case StatusGood:
		return "Good"
	case StatusNeedsAdjustment:
		return "Needs adjustment"
	case StatusPoor:
		return "Poor"
	default:
		return "Not available"
	}
}

// Evaluator tuning constants.
const (
	// deviationThreshold is the per-angle deviation in degrees beyond
	// which an angle is flagged.
	deviationThreshold = 15.0
	// historySize is the number of per-frame statuses kept for the
	// majority-vote smoothing.
	historySize = 10
)

// uncalibratedFeedback is reported while no reference posture exists.
const uncalibratedFeedback = "Reference posture not calibrated or landmarks not detected."

// goodFeedback is reported when no angle is flagged.
const goodFeedback = "Posture looks good. Maintain this position."

// Evaluator compares per-frame posture angles against a calibrated
// reference and smooths the resulting status over a short history.
//
// An Evaluator is owned by a single session and is not safe for
// concurrent use.
type Evaluator struct {
	history []Status
}

// NewEvaluator creates an Evaluator with empty history.
func NewEvaluator() *Evaluator {
	return &Evaluator{
		history: make([]Status, 0, historySize),
	}
}

// Evaluate assesses the frame's posture against the reference. It returns
// the smoothed status and a feedback string describing every flagged
// deviation. A missing frame or reference yields StatusUnavailable
// without touching the smoothing history.
func (e *Evaluator) Evaluate(lm *pose.Landmarks, ref *calibration.PostureReference) (Status, string) {
	if lm == nil || ref == nil {
		return StatusUnavailable, uncalibratedFeedback
	}

	current, ok := angles.ComputePosture(lm)
	if !ok {
		return StatusUnavailable, uncalibratedFeedback
	}

	var feedback []string
	var worst float64

	flag := func(diff float64, message string) {
		if diff > deviationThreshold {
			feedback = append(feedback, fmt.Sprintf("%s (off by %.1f°)", message, diff))
			if diff > worst {
				worst = diff
			}
		}
	}

	flag(abs(current.BackVertical-ref.Angles.Back), "Straighten your back")
	flag(abs(current.LeftShoulder-ref.Angles.LeftShoulder), "Adjust left shoulder position")
	flag(abs(current.RightShoulder-ref.Angles.RightShoulder), "Adjust right shoulder position")
	flag(abs(current.Neck-ref.Angles.Neck), "Adjust head position")

	status := StatusGood
	switch {
	case worst > 2*deviationThreshold:
		status = StatusPoor
	case worst > deviationThreshold:
		status = StatusNeedsAdjustment
	}

	smoothed := e.smooth(status)

	if len(feedback) == 0 {
		return smoothed, goodFeedback
	}
	return smoothed, "Posture feedback: " + strings.Join(feedback, " | ")
}

// Reset clears the smoothing history.
func (e *Evaluator) Reset() {
	e.history = e.history[:0]
}

// smooth pushes the status into the history ring and returns the majority
// status. Ties go to the most recently seen of the tied statuses.
func (e *Evaluator) smooth(status Status) Status {
	if len(e.history) >= historySize {
		copy(e.history, e.history[1:])
		e.history = e.history[:historySize-1]
	}
	e.history = append(e.history, status)

	counts := map[Status]int{}
	for _, s := range e.history {
		counts[s]++
	}

	best := status
	bestCount := 0
	for i := len(e.history) - 1; i >= 0; i-- {
		s := e.history[i]
		if counts[s] > bestCount {
			best = s
			bestCount = counts[s]
		}
	}

	return best
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
