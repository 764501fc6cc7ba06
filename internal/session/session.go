// Package session wires the per-frame analysis components into a single
// practice session: bow direction, posture assessment, pattern training
// and the calibration capture flow.
package session

import (
	"time"

	"github.com/askumar/violincoach/internal/bow"
	"github.com/askumar/violincoach/internal/calibration"
	"github.com/askumar/violincoach/internal/pose"
	"github.com/askumar/violincoach/internal/posture"
	"github.com/askumar/violincoach/internal/trainer"
)

// Mode selects what the session does with incoming frames.
type Mode string

const (
	// ModeCalibration runs the step-sequenced reference capture.
	ModeCalibration Mode = "calibration"
	// ModeTracking runs bow, posture and pattern feedback per frame.
	ModeTracking Mode = "tracking"
)

// EventType identifies a practice event worth persisting.
type EventType string

const (
	// EventDirectionChange fires when the committed bow direction changes.
	EventDirectionChange EventType = "bow_direction_change"
	// EventPostureChange fires when the smoothed posture status changes.
	EventPostureChange EventType = "posture_change"
	// EventPatternProgress fires when the exercise cursor advances.
	EventPatternProgress EventType = "pattern_progress"
)

// Event is a timestamped practice event emitted by the session.
type Event struct {
	Type EventType      `json:"type"`
	Data map[string]any `json:"data"`
	At   time.Time      `json:"at"`
}

// Feedback is the per-frame record returned to the caller, carrying
// everything the presentation layer renders.
type Feedback struct {
	Mode            Mode           `json:"mode"`
	Direction       bow.Direction  `json:"direction"`
	ElbowAngle      float64        `json:"elbow_angle"`
	HasElbowAngle   bool           `json:"has_elbow_angle"`
	PostureStatus   posture.Status `json:"posture_status"`
	PostureFeedback string         `json:"posture_feedback"`
	PatternProgress int            `json:"pattern_progress"`
	PatternStatus   string         `json:"pattern_status"`
	Step            int            `json:"step"`
	Instruction     string         `json:"instruction"`
	Timestamp       int64          `json:"timestamp"`
}

// Session owns one instance of each analysis component and processes
// frames strictly sequentially. All state lives here: there are no
// package-level globals, and concurrent deployments create one Session
// per camera. Not safe for concurrent use.
type Session struct {
	classifier  *bow.Classifier
	evaluator   *posture.Evaluator
	calibration *calibration.Session
	trainer     *trainer.Trainer

	mode Mode
	step calibration.Step

	lastDirection bow.Direction
	lastPosture   posture.Status
	lastCursor    int

	// OnEvent, when set, receives practice events as they occur.
	OnEvent func(Event)
}

// New creates a session in calibration mode with no reference captured.
func New() *Session {
	return &Session{
		classifier:    bow.NewClassifier(),
		evaluator:     posture.NewEvaluator(),
		calibration:   calibration.NewSession(),
		trainer:       trainer.New(),
		mode:          ModeCalibration,
		lastDirection: bow.DirectionNotDetected,
		lastPosture:   posture.StatusUnavailable,
	}
}

// Mode returns the session's current mode.
func (s *Session) Mode() Mode {
	return s.mode
}

// SetMode switches the session between calibration and tracking.
func (s *Session) SetMode(mode Mode) {
	s.mode = mode
}

// Step returns the current calibration step index.
func (s *Session) Step() calibration.Step {
	return s.step
}

// Process runs one frame through the pipeline appropriate to the current
// mode and returns the feedback record. A nil frame is never an error:
// it propagates as not-detected/unavailable through every component.
func (s *Session) Process(lm *pose.Landmarks) Feedback {
	fb := Feedback{
		Mode:      s.mode,
		Timestamp: time.Now().UnixMilli(),
	}

	if s.mode == ModeCalibration {
		fb.Direction = bow.DirectionNotDetected
		fb.PostureStatus = posture.StatusUnavailable
		fb.Step = int(s.step)
		fb.Instruction = s.calibrationInstruction()
		return fb
	}

	direction, angle, hasAngle := s.classifier.Classify(lm)
	postureStatus, postureFeedback := s.evaluator.Evaluate(lm, s.calibration.Posture())
	patternStatus, cursor := s.trainer.Update(direction)

	fb.Direction = direction
	fb.ElbowAngle = angle
	fb.HasElbowAngle = hasAngle
	fb.PostureStatus = postureStatus
	fb.PostureFeedback = postureFeedback
	fb.PatternProgress = cursor
	fb.PatternStatus = patternStatus

	s.emitChanges(fb)

	return fb
}

// RequestCapture forwards a capture request for the current calibration
// step and advances to the next step on success. The session stays in
// calibration mode after the final step; the caller persists the record
// and switches to tracking.
func (s *Session) RequestCapture(lm *pose.Landmarks) (bool, error) {
	captured, err := s.calibration.RequestCapture(s.step, lm)
	if err != nil {
		return false, err
	}
	if captured && s.step < calibration.NumSteps-1 {
		s.step++
	} else if captured {
		s.step = calibration.NumSteps
	}
	return captured, nil
}

// CountdownRemaining returns the time left on the calibration hold
// countdown.
func (s *Session) CountdownRemaining() time.Duration {
	return s.calibration.Remaining()
}

// CalibrationComplete reports whether every calibration step is captured.
func (s *Session) CalibrationComplete() bool {
	return s.calibration.Complete()
}

// CalibrationRecord returns the completed calibration record for
// persistence.
func (s *Session) CalibrationRecord() (*calibration.Record, error) {
	return s.calibration.Record()
}

// LoadCalibration adopts a persisted calibration record and switches the
// session to tracking mode.
func (s *Session) LoadCalibration(r *calibration.Record) error {
	if err := s.calibration.Load(r); err != nil {
		return err
	}
	s.step = calibration.NumSteps
	s.mode = ModeTracking
	return nil
}

// ResetCalibration discards all calibration data and returns the session
// to the first calibration step.
func (s *Session) ResetCalibration() {
	s.calibration.Reset()
	s.step = calibration.StepPosture
	s.mode = ModeCalibration
}

// ResetPattern restarts the bowing exercise from the first stroke.
func (s *Session) ResetPattern() {
	s.trainer.Reset()
}

// PatternStats returns the current exercise statistics.
func (s *Session) PatternStats() trainer.Stats {
	return s.trainer.Stats()
}

func (s *Session) calibrationInstruction() string {
	if s.step >= calibration.NumSteps {
		return calibration.NumSteps.Instruction()
	}
	if remaining := s.calibration.Remaining(); remaining > 0 {
		return s.step.Instruction() + ": hold position"
	}
	return s.step.Instruction()
}

// emitChanges fires events for state transitions the persistence layer
// records: direction commits, posture status changes and cursor advances.
func (s *Session) emitChanges(fb Feedback) {
	if s.OnEvent == nil {
		s.rememberChanges(fb)
		return
	}

	if fb.Direction != s.lastDirection {
		s.emit(EventDirectionChange, map[string]any{
			"direction": fb.Direction,
			"angle":     fb.ElbowAngle,
		})
	}
	if fb.PostureStatus != s.lastPosture {
		s.emit(EventPostureChange, map[string]any{
			"status":   fb.PostureStatus,
			"feedback": fb.PostureFeedback,
		})
	}
	if fb.PatternProgress != s.lastCursor {
		stats := s.trainer.Stats()
		s.emit(EventPatternProgress, map[string]any{
			"position":  stats.Position,
			"correct":   stats.Correct,
			"incorrect": stats.Incorrect,
			"accuracy":  stats.Accuracy,
		})
	}

	s.rememberChanges(fb)
}

func (s *Session) rememberChanges(fb Feedback) {
	s.lastDirection = fb.Direction
	s.lastPosture = fb.PostureStatus
	s.lastCursor = fb.PatternProgress
}

func (s *Session) emit(t EventType, data map[string]any) {
	s.OnEvent(Event{Type: t, Data: data, At: time.Now()})
}
