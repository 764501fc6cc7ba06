package calibration

import (
	"errors"
	"time"

	"github.com/askumar/violincoach/internal/pose"
)

// HoldDuration is how long a position must be held steady before capture.
const HoldDuration = 3 * time.Second

// ErrNoLandmarks is returned when a capture is requested without a
// detected body in frame.
var ErrNoLandmarks = errors.New("no landmarks detected")

// ErrInvalidStep is returned for step indices outside the calibration
// sequence.
var ErrInvalidStep = errors.New("invalid calibration step")

// Step identifies one capture step of the calibration sequence.
type Step int

// Calibration steps in capture order.
const (
	StepPosture Step = iota
	StepBowFrog
	StepBowMiddle
	StepBowTip
	StepFingerFirst
	StepFingerThird
	StepFingerHigh
	NumSteps
)

// Instruction returns the on-screen instruction for the step.
func (s Step) Instruction() string {
	switch s {
	case StepPosture:
		return "Stand in proper posture"
	case StepBowFrog:
		return "Bow position - frog"
	case StepBowMiddle:
		return "Bow position - middle"
	case StepBowTip:
		return "Bow position - tip"
	case StepFingerFirst:
		return "Finger position - 1st position"
	case StepFingerThird:
		return "Finger position - 3rd position"
	case StepFingerHigh:
		return "Finger position - high position"
	default:
		return "Calibration complete"
	}
}

// Session is the step-sequenced capture state machine. Each step runs a
// hold-steady countdown: the first capture request starts it, and only a
// request arriving after it has fully elapsed takes the snapshot.
//
// The session does not advance steps itself; the caller owns the step
// index and moves on after a successful capture.
type Session struct {
	record         Record
	countdownStart time.Time
	now            func() time.Time
}

// NewSession creates an empty calibration session.
func NewSession() *Session {
	return &Session{now: time.Now}
}

// RequestCapture drives the countdown state machine for the given step.
// It returns true once the snapshot for the step has been taken.
//
// The first request starts the countdown and reports not-yet-captured.
// Requests before the countdown elapses also report not-yet-captured.
// A request with no landmarks fails without starting or advancing the
// countdown.
func (s *Session) RequestCapture(step Step, lm *pose.Landmarks) (bool, error) {
	if step < StepPosture || step >= NumSteps {
		return false, ErrInvalidStep
	}
	if lm == nil {
		return false, ErrNoLandmarks
	}

	if s.countdownStart.IsZero() {
		s.countdownStart = s.now()
		return false, nil
	}

	if s.now().Sub(s.countdownStart) < HoldDuration {
		return false, nil
	}

	switch step {
	case StepPosture:
		s.record.Posture = capturePosture(lm)
	case StepBowFrog:
		s.record.BowFrog = captureBow(lm)
	case StepBowMiddle:
		s.record.BowMiddle = captureBow(lm)
	case StepBowTip:
		s.record.BowTip = captureBow(lm)
	case StepFingerFirst:
		s.record.FingerFirst = captureFinger(lm)
	case StepFingerThird:
		s.record.FingerThird = captureFinger(lm)
	case StepFingerHigh:
		s.record.FingerHigh = captureFinger(lm)
	}

	s.record.CapturedAt = s.now()
	s.countdownStart = time.Time{}

	return true, nil
}

// IsReady reports whether a countdown is running and has fully elapsed,
// so the next capture request will take the snapshot.
func (s *Session) IsReady() bool {
	if s.countdownStart.IsZero() {
		return false
	}
	return s.now().Sub(s.countdownStart) >= HoldDuration
}

// Remaining returns the time left on the running countdown, or zero when
// no countdown is active.
func (s *Session) Remaining() time.Duration {
	if s.countdownStart.IsZero() {
		return 0
	}
	left := HoldDuration - s.now().Sub(s.countdownStart)
	if left < 0 {
		return 0
	}
	return left
}

// Complete reports whether every step has been captured.
func (s *Session) Complete() bool {
	return s.record.Complete()
}

// Record returns a copy of the accumulated calibration record once the
// session is complete.
func (s *Session) Record() (*Record, error) {
	if !s.record.Complete() {
		return nil, ErrIncompleteRecord
	}
	r := s.record
	return &r, nil
}

// Posture returns the captured posture reference, or nil before step 0
// has been captured. Tracking can start as soon as the posture reference
// exists, even mid-calibration.
func (s *Session) Posture() *PostureReference {
	return s.record.Posture
}

// Load replaces the session's record with a previously persisted one.
func (s *Session) Load(r *Record) error {
	if r == nil || !r.Complete() {
		return ErrIncompleteRecord
	}
	s.record = *r
	s.countdownStart = time.Time{}
	return nil
}

// Reset discards all captured data and any running countdown.
func (s *Session) Reset() {
	s.record = Record{}
	s.countdownStart = time.Time{}
}
