package e2e

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/askumar/violincoach/internal/angles"
	"github.com/askumar/violincoach/internal/app"
	"github.com/askumar/violincoach/internal/bow"
	"github.com/askumar/violincoach/internal/calibration"
	"github.com/askumar/violincoach/internal/pose"
	"github.com/askumar/violincoach/internal/server"
	"github.com/askumar/violincoach/internal/session"
	"github.com/askumar/violincoach/internal/store"
)

// playerRecord builds a calibration record from the upright fixture, the
// same way the capture flow would from a cooperative player.
func playerRecord(t *testing.T) *calibration.Record {
	t.Helper()

	lm := pose.UprightLandmarks()

	posture, ok := angles.ComputePosture(lm)
	if !ok {
		t.Fatal("fixture landmarks must yield posture angles")
	}
	elbow, ok := angles.ElbowAngle(lm)
	if !ok {
		t.Fatal("fixture landmarks must yield an elbow angle")
	}

	bowPos := &calibration.BowPosition{
		Shoulder:   lm.Points[pose.RightShoulder],
		Elbow:      lm.Points[pose.RightElbow],
		Wrist:      lm.Points[pose.RightWrist],
		ElbowAngle: elbow,
	}
	fingerPos := &calibration.FingerPosition{
		Shoulder: lm.Points[pose.LeftShoulder],
		Elbow:    lm.Points[pose.LeftElbow],
		Wrist:    lm.Points[pose.LeftWrist],
	}

	return &calibration.Record{
		Posture: &calibration.PostureReference{
			Nose:          lm.Points[pose.Nose],
			LeftShoulder:  lm.Points[pose.LeftShoulder],
			RightShoulder: lm.Points[pose.RightShoulder],
			LeftHip:       lm.Points[pose.LeftHip],
			RightHip:      lm.Points[pose.RightHip],
			Angles: calibration.ReferenceAngles{
				LeftShoulder:  posture.LeftShoulder,
				RightShoulder: posture.RightShoulder,
				Back:          posture.BackVertical,
				Neck:          posture.Neck,
			},
		},
		BowFrog:     bowPos,
		BowMiddle:   bowPos,
		BowTip:      bowPos,
		FingerFirst: fingerPos,
		FingerThird: fingerPos,
		FingerHigh:  fingerPos,
		CapturedAt:  time.Now(),
	}
}

// stroke feeds a sweep of bowing frames through the session, simulating
// one bow stroke. Positive step extends the arm (down bow), negative
// retracts it (up bow).
func stroke(s *session.Session, start, step float64, frames int) session.Feedback {
	var fb session.Feedback
	for i := 0; i < frames; i++ {
		fb = s.Process(pose.BowingLandmarks(start + step*float64(i)))
	}
	return fb
}

func TestE2E_CalibrationToTracking(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	tmpDir := t.TempDir()
	s, err := store.New(filepath.Join(tmpDir, "data.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	srv := server.New(server.Config{Store: s})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	client := ts.Client()

	recordData, err := playerRecord(t).Encode()
	if err != nil {
		t.Fatalf("failed to encode record: %v", err)
	}

	var profileID string

	t.Run("CreateProfile", func(t *testing.T) {
		body, _ := json.Marshal(map[string]any{
			"name": "Player One",
			"data": json.RawMessage(recordData),
		})

		resp, err := client.Post(ts.URL+"/api/calibration", "application/json", bytes.NewReader(body))
		if err != nil {
			t.Fatalf("create profile error = %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusCreated)
		}

		var created struct {
			ID string `json:"id"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		profileID = created.ID
	})

	t.Run("ActivateProfile", func(t *testing.T) {
		resp, err := client.Post(ts.URL+"/api/calibration/"+profileID+"/activate", "application/json", nil)
		if err != nil {
			t.Fatalf("activate error = %v", err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusNoContent {
			t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusNoContent)
		}
	})

	application := app.New(app.Config{Store: s})
	application.SetSource(pose.NewMockSource())

	t.Run("LoadCalibration", func(t *testing.T) {
		if err := application.LoadCalibration(); err != nil {
			t.Fatalf("LoadCalibration() error = %v", err)
		}
		if application.Session().Mode() != session.ModeTracking {
			t.Fatalf("mode = %q, want tracking after loading the active profile", application.Session().Mode())
		}
	})

	t.Run("TrackBowStroke", func(t *testing.T) {
		fb := stroke(application.Session(), 20, 10, 12)

		if fb.Direction != bow.DirectionDown {
			t.Errorf("direction = %q, want %q", fb.Direction, bow.DirectionDown)
		}
		if !fb.HasElbowAngle {
			t.Error("expected a measured elbow angle")
		}
	})

	t.Run("APIStillWorks", func(t *testing.T) {
		resp, err := client.Get(ts.URL + "/api/health")
		if err != nil {
			t.Fatalf("health check error = %v", err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Errorf("health check failed after app operations")
		}
	})
}

func TestE2E_PracticeSessionRecorded(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	tmpDir := t.TempDir()
	s, err := store.New(filepath.Join(tmpDir, "data.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	application := app.New(app.Config{Store: s})
	application.SetSource(pose.NewMockSource())

	if err := application.Session().LoadCalibration(playerRecord(t)); err != nil {
		t.Fatalf("failed to load calibration: %v", err)
	}

	id, err := application.StartPractice("Scales")
	if err != nil {
		t.Fatalf("StartPractice() error = %v", err)
	}

	// A down stroke followed by an up stroke commits two direction
	// changes worth of events
	stroke(application.Session(), 20, 10, 12)
	stroke(application.Session(), 160, -10, 12)

	if err := application.EndPractice(); err != nil {
		t.Fatalf("EndPractice() error = %v", err)
	}

	srv := server.New(server.Config{Store: s})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	client := ts.Client()

	t.Run("SessionEnded", func(t *testing.T) {
		resp, err := client.Get(ts.URL + "/api/sessions/" + id)
		if err != nil {
			t.Fatalf("get session error = %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
		}

		var got struct {
			PieceName string  `json:"piece_name"`
			EndedAt   *string `json:"ended_at"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if got.PieceName != "Scales" {
			t.Errorf("piece name = %q, want %q", got.PieceName, "Scales")
		}
		if got.EndedAt == nil {
			t.Error("expected an end time")
		}
	})

	t.Run("EventsPersisted", func(t *testing.T) {
		resp, err := client.Get(ts.URL + "/api/sessions/" + id + "/events")
		if err != nil {
			t.Fatalf("get events error = %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
		}

		var got struct {
			Events []struct {
				Type string `json:"type"`
			} `json:"events"`
			Counts map[string]int `json:"counts"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}

		if len(got.Events) == 0 {
			t.Fatal("expected persisted practice events")
		}
		if got.Counts["bow_direction_change"] < 2 {
			t.Errorf("direction changes = %d, want at least 2",
				got.Counts["bow_direction_change"])
		}
	})
}
