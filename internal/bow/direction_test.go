package bow

import (
	"testing"
	"time"

	"github.com/askumar/violincoach/internal/pose"
)

// feed runs n frames through the classifier with the elbow angle starting
// at start and changing by step each frame, returning the last result.
func feed(c *Classifier, start, step float64, n int) Direction {
	var d Direction
	for i := 0; i < n; i++ {
		d, _, _ = c.Classify(pose.BowingLandmarks(start + float64(i)*step))
	}
	return d
}

func TestClassifier_NotDetected(t *testing.T) {
	c := NewClassifier()

	d, _, ok := c.Classify(nil)
	if d != DirectionNotDetected {
		t.Errorf("expected not_detected for nil landmarks, got %q", d)
	}
	if ok {
		t.Error("expected no angle for nil landmarks")
	}
}

func TestClassifier_DroppedFramePreservesState(t *testing.T) {
	c := NewClassifier()

	// Establish a committed down-bow
	feed(c, 20, 10, 12)
	if c.Current() != DirectionDown {
		t.Fatalf("expected down_bow after opening stroke, got %q", c.Current())
	}

	// A dropped frame reports not_detected but must not disturb the
	// committed direction or the velocity history
	d, _, _ := c.Classify(nil)
	if d != DirectionNotDetected {
		t.Errorf("expected not_detected for dropped frame, got %q", d)
	}
	if c.Current() != DirectionDown {
		t.Errorf("expected committed direction to survive a dropped frame, got %q", c.Current())
	}
}

func TestClassifier_Calibrating(t *testing.T) {
	c := NewClassifier()

	for i := 0; i < 2; i++ {
		d, _, ok := c.Classify(pose.BowingLandmarks(90))
		if d != DirectionCalibrating {
			t.Errorf("frame %d: expected calibrating, got %q", i, d)
		}
		if !ok {
			t.Errorf("frame %d: expected an elbow angle", i)
		}
	}
}

func TestClassifier_DownBow(t *testing.T) {
	c := NewClassifier()

	// Steadily opening elbow angle is a down-bow
	d := feed(c, 20, 10, 12)
	if d != DirectionDown {
		t.Errorf("expected down_bow for opening elbow, got %q", d)
	}
}

func TestClassifier_UpBow(t *testing.T) {
	c := NewClassifier()

	// Steadily closing elbow angle is an up-bow
	d := feed(c, 160, -10, 12)
	if d != DirectionUp {
		t.Errorf("expected up_bow for closing elbow, got %q", d)
	}
}

func TestClassifier_HoldingStaysUncommitted(t *testing.T) {
	c := NewClassifier()

	// A motionless arm never produces an up or down commit
	d := feed(c, 90, 0, 20)
	if d == DirectionDown || d == DirectionUp {
		t.Errorf("expected no stroke commit for motionless arm, got %q", d)
	}
}

func TestClassifier_SmoothedAngleReported(t *testing.T) {
	c := NewClassifier()

	c.Classify(pose.BowingLandmarks(80))
	_, angle, ok := c.Classify(pose.BowingLandmarks(100))
	if !ok {
		t.Fatal("expected an elbow angle")
	}
	// Mean of the two raw readings
	if angle < 85 || angle > 95 {
		t.Errorf("expected smoothed angle near 90, got %f", angle)
	}
}

func TestClassifier_Debounce(t *testing.T) {
	c := NewClassifier()

	clock := time.Unix(1000, 0)
	c.now = func() time.Time { return clock }

	feed(c, 20, 10, 12)
	if c.Current() != DirectionDown {
		t.Fatalf("expected down_bow, got %q", c.Current())
	}

	// Immediately reverse; within the debounce period the commit must hold
	clock = clock.Add(100 * time.Millisecond)
	feed(c, 140, -10, 12)
	if c.Current() != DirectionDown {
		t.Errorf("expected debounce to hold down_bow, got %q", c.Current())
	}

	// After the debounce period the reversal commits
	clock = clock.Add(500 * time.Millisecond)
	feed(c, 140, -10, 12)
	if c.Current() != DirectionUp {
		t.Errorf("expected up_bow after debounce elapsed, got %q", c.Current())
	}
}

func TestClassifier_Reset(t *testing.T) {
	c := NewClassifier()

	feed(c, 20, 10, 12)
	c.Reset()

	if c.Current() != DirectionNotDetected {
		t.Errorf("expected not_detected after reset, got %q", c.Current())
	}

	d, _, _ := c.Classify(pose.BowingLandmarks(90))
	if d != DirectionCalibrating {
		t.Errorf("expected calibrating on first frame after reset, got %q", d)
	}
}

func TestDirection_String(t *testing.T) {
	cases := []struct {
		d    Direction
		want string
	}{
		{DirectionDown, "Down bow"},
		{DirectionUp, "Up bow"},
		{DirectionHolding, "Holding"},
		{DirectionCalibrating, "Calibrating"},
		{DirectionNotDetected, "Not detected"},
	}
	for _, tc := range cases {
		if got := tc.d.String(); got != tc.want {
			t.Errorf("%q.String() = %q, want %q", string(tc.d), got, tc.want)
		}
	}
}
