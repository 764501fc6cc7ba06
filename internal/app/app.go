// Package app provides the main application logic for the violin
// practice coach.
package app

import (
	"encoding/json"
	"errors"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/askumar/violincoach/internal/calibration"
	"github.com/askumar/violincoach/internal/capture"
	"github.com/askumar/violincoach/internal/pose"
	"github.com/askumar/violincoach/internal/posture"
	"github.com/askumar/violincoach/internal/session"
	"github.com/askumar/violincoach/internal/store"
)

// Pipeline timing constants.
const (
	// IdleFPS is the frame rate while the player is not moving.
	IdleFPS = 5
	// ActiveFPS is the frame rate during active tracking.
	ActiveFPS = 30
	// IdleTimeoutMs is the time in milliseconds without motion before
	// dropping back to the idle rate.
	IdleTimeoutMs = 2000
	// eventFlushSize is how many buffered practice events trigger a
	// database flush.
	eventFlushSize = 16
)

// ErrNoPracticeSession is returned when ending a practice run that was
// never started.
var ErrNoPracticeSession = errors.New("no practice session in progress")

// Config holds configuration options for the application.
type Config struct {
	Store        *store.Store
	CameraID     int
	IdleFPS      int
	ActiveFPS    int
	MotionThresh float64
	Pose         pose.Config
}

// App owns the capture pipeline and the analysis session, persists
// practice events, and exposes the latest feedback for the presentation
// layer.
type App struct {
	config  Config
	camera  capture.Camera
	motion  *capture.MotionGate
	source  pose.Source
	session *session.Session

	mu      sync.RWMutex
	enabled bool
	stopCh  chan struct{}

	lastLandmarks *pose.Landmarks
	lastFeedback  session.Feedback

	practiceID   string
	eventBuffer  []store.Event
	goodFrames   int
	scoredFrames int
}

// New creates a new App instance with the given configuration.
func New(config Config) *App {
	if config.IdleFPS <= 0 {
		config.IdleFPS = IdleFPS
	}
	if config.ActiveFPS <= 0 {
		config.ActiveFPS = ActiveFPS
	}
	if config.MotionThresh <= 0 {
		config.MotionThresh = 1.0 // Default threshold: 1% pixel change
	}

	a := &App{
		config:  config,
		camera:  capture.NewCamera(config.CameraID),
		motion:  capture.NewMotionGate(config.MotionThresh),
		session: session.New(),
	}

	a.session.OnEvent = a.bufferEvent

	// Try MediaPipe first, fall back to mock source
	if mp, err := pose.NewMediaPipeSource(config.Pose); err == nil {
		a.source = mp
		log.Println("Using MediaPipe pose detection")
	} else {
		log.Printf("MediaPipe not available (%v), using mock pose source", err)
		a.source = pose.NewMockSource()
	}

	return a
}

// SetEnabled enables or disables frame processing.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

// IsEnabled returns whether frame processing is currently enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// SetSource sets the pose source implementation to use.
func (a *App) SetSource(s pose.Source) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.source = s
}

// SetCamera sets the camera implementation to use.
func (a *App) SetCamera(c capture.Camera) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.camera = c
}

// Session returns the analysis session.
func (a *App) Session() *session.Session {
	return a.session
}

// Camera returns the camera instance.
func (a *App) Camera() capture.Camera {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.camera
}

// Snapshot returns the most recent feedback record.
func (a *App) Snapshot() session.Feedback {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.lastFeedback
}

// LoadCalibration loads the active calibration profile from the store
// into the session. A missing or malformed profile leaves the session in
// calibration mode: a record that fails validation is never partially
// adopted.
func (a *App) LoadCalibration() error {
	if a.config.Store == nil {
		return nil
	}

	profile, err := a.config.Store.Profiles().GetActive()
	if err != nil {
		return err
	}
	if profile == nil {
		log.Println("No active calibration profile, starting in calibration mode")
		return nil
	}

	record, err := profile.Record()
	if err != nil {
		log.Printf("Rejecting calibration profile %s: %v", profile.ID, err)
		return nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.session.LoadCalibration(record); err != nil {
		return err
	}

	log.Printf("Loaded calibration profile %q", profile.Name)
	return nil
}

// RequestCapture forwards a calibration capture request using the most
// recently detected landmarks. When the final step completes, the record
// is persisted as a new active profile and the session switches to
// tracking.
func (a *App) RequestCapture(name string) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	captured, err := a.session.RequestCapture(a.lastLandmarks)
	if err != nil || !captured {
		return captured, err
	}

	if !a.session.CalibrationComplete() {
		return true, nil
	}

	record, err := a.session.CalibrationRecord()
	if err != nil {
		return true, err
	}

	if a.config.Store != nil {
		if err := a.saveProfile(name, record); err != nil {
			return true, err
		}
	}

	a.session.SetMode(session.ModeTracking)
	log.Println("Calibration complete, switching to tracking")

	return true, nil
}

// saveProfile persists a completed calibration record as the active
// profile. Caller holds a.mu.
func (a *App) saveProfile(name string, record *calibration.Record) error {
	data, err := record.Encode()
	if err != nil {
		return err
	}

	if name == "" {
		name = "Default Profile"
	}

	profile := &store.Profile{
		ID:   uuid.New().String(),
		Name: name,
		Data: data,
	}

	profiles := a.config.Store.Profiles()
	if err := profiles.Create(profile); err != nil {
		return err
	}
	return profiles.Activate(profile.ID)
}

// ResetCalibration discards the calibration state and returns the
// session to the first capture step. Session access goes through a.mu:
// the pipeline goroutine mutates the same session in Process.
func (a *App) ResetCalibration() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.session.ResetCalibration()
}

// ResetPattern restarts the bowing exercise from the first stroke.
func (a *App) ResetPattern() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.session.ResetPattern()
}

// StartPractice opens a new practice session row; subsequent practice
// events are attributed to it.
func (a *App) StartPractice(pieceName string) (string, error) {
	if a.config.Store == nil {
		return "", errors.New("no store configured")
	}

	if pieceName == "" {
		pieceName = "Twinkle Twinkle Little Star"
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	id := uuid.New().String()
	if err := a.config.Store.Sessions().Create(&store.PracticeSession{
		ID:        id,
		PieceName: pieceName,
	}); err != nil {
		return "", err
	}

	a.practiceID = id
	a.goodFrames = 0
	a.scoredFrames = 0
	a.session.ResetPattern()

	return id, nil
}

// EndPractice closes the current practice session, flushing buffered
// events and recording summary scores.
func (a *App) EndPractice() error {
	if a.config.Store == nil {
		return errors.New("no store configured")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.practiceID == "" {
		return ErrNoPracticeSession
	}

	a.flushEventsLocked()

	postureScore := 0.0
	if a.scoredFrames > 0 {
		postureScore = float64(a.goodFrames) / float64(a.scoredFrames) * 100
	}
	bowAccuracy := a.session.PatternStats().Accuracy

	err := a.config.Store.Sessions().End(a.practiceID, postureScore, bowAccuracy)
	a.practiceID = ""
	return err
}

// bufferEvent queues a practice event for the next batch flush.
// Called from the pipeline goroutine with a.mu held.
func (a *App) bufferEvent(e session.Event) {
	if a.practiceID == "" {
		return
	}

	data, err := json.Marshal(e.Data)
	if err != nil {
		log.Printf("Failed to encode practice event: %v", err)
		return
	}

	a.eventBuffer = append(a.eventBuffer, store.Event{
		Type:      string(e.Type),
		Data:      data,
		CreatedAt: e.At,
	})
}

// flushEventsLocked writes buffered events to the store. Caller holds a.mu.
func (a *App) flushEventsLocked() {
	if len(a.eventBuffer) == 0 || a.practiceID == "" {
		a.eventBuffer = a.eventBuffer[:0]
		return
	}

	if err := a.config.Store.Events().AppendBatch(a.practiceID, a.eventBuffer); err != nil {
		log.Printf("Failed to flush practice events: %v", err)
	}
	a.eventBuffer = a.eventBuffer[:0]
}

// Start begins the capture pipeline.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Don't start if already running
	if a.stopCh != nil {
		return nil
	}

	if err := a.camera.Open(); err != nil {
		return err
	}

	a.camera.SetFPS(a.config.IdleFPS)

	a.stopCh = make(chan struct{})
	go a.runPipeline(a.stopCh)

	log.Println("Tracking pipeline started")
	return nil
}

// Stop halts the pipeline and releases resources.
func (a *App) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		close(a.stopCh)
		a.stopCh = nil
	}

	if err := a.camera.Close(); err != nil {
		log.Printf("Error closing camera: %v", err)
	}

	a.motion.Close()

	if a.source != nil {
		if err := a.source.Close(); err != nil {
			log.Printf("Error closing pose source: %v", err)
		}
	}

	a.flushEventsLocked()

	log.Println("Tracking pipeline stopped")
}
