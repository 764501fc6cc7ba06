package app

import (
	"log"
	"time"

	"github.com/askumar/violincoach/internal/posture"
	"github.com/askumar/violincoach/internal/session"
)

// runPipeline is the main frame processing loop. It runs at a low frame
// rate until motion is seen, ramps up to the active rate while the
// player is moving, and falls back to idle after a quiet period.
// Calibration mode always processes frames so countdowns stay
// responsive.
func (a *App) runPipeline(stopCh chan struct{}) {
	active := false
	lastMotion := time.Now()

	ticker := time.NewTicker(time.Second / time.Duration(a.config.IdleFPS))
	defer ticker.Stop()

	setActive := func(on bool) {
		if on == active {
			return
		}
		active = on
		fps := a.config.IdleFPS
		if on {
			fps = a.config.ActiveFPS
		}
		a.camera.SetFPS(fps)
		ticker.Reset(time.Second / time.Duration(fps))
	}

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			if !a.IsEnabled() {
				setActive(false)
				continue
			}

			frame, err := a.camera.ReadFrame()
			if err != nil {
				log.Printf("Frame read error: %v", err)
				continue
			}

			moved, _ := a.motion.Sample(frame)
			calibrating := a.session.Mode() == session.ModeCalibration

			if moved || calibrating {
				lastMotion = time.Now()
				setActive(true)
			} else if active && time.Since(lastMotion) > IdleTimeoutMs*time.Millisecond {
				setActive(false)
			}

			if !active {
				frame.Close()
				continue
			}

			landmarks, err := a.source.Detect(frame)
			frame.Close()
			if err != nil {
				log.Printf("Pose detection error: %v", err)
				continue
			}

			a.mu.Lock()
			a.lastLandmarks = landmarks
			a.lastFeedback = a.session.Process(landmarks)
			a.scoreFrameLocked(a.lastFeedback)
			if len(a.eventBuffer) >= eventFlushSize {
				a.flushEventsLocked()
			}
			a.mu.Unlock()
		}
	}
}

// scoreFrameLocked accumulates per-frame posture counts for the practice
// session summary. Caller holds a.mu.
func (a *App) scoreFrameLocked(fb session.Feedback) {
	if a.practiceID == "" || fb.PostureStatus == posture.StatusUnavailable {
		return
	}
	a.scoredFrames++
	if fb.PostureStatus == posture.StatusGood {
		a.goodFrames++
	}
}
