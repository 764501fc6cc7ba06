package pose

import (
	"math"

	"gocv.io/x/gocv"
)

// MockSource is a test implementation of the Source interface.
// It allows tests to control the detection results, either with a fixed
// result or a scripted sequence of per-frame results.
type MockSource struct {
	landmarks *Landmarks
	sequence  []*Landmarks
	err       error
}

// NewMockSource creates a new MockSource instance.
func NewMockSource() *MockSource {
	return &MockSource{}
}

// SetLandmarks sets the landmarks that will be returned by Detect.
func (m *MockSource) SetLandmarks(lm *Landmarks) {
	m.landmarks = lm
}

// SetSequence sets a sequence of landmark frames returned by successive
// Detect calls. Once the sequence is exhausted, Detect falls back to the
// fixed landmarks (if any).
func (m *MockSource) SetSequence(frames []*Landmarks) {
	m.sequence = frames
}

// SetError sets the error that will be returned by Detect.
func (m *MockSource) SetError(err error) {
	m.err = err
}

// Detect returns the pre-configured landmarks or error.
func (m *MockSource) Detect(frame *gocv.Mat) (*Landmarks, error) {
	if m.err != nil {
		return nil, m.err
	}
	if len(m.sequence) > 0 {
		next := m.sequence[0]
		m.sequence = m.sequence[1:]
		return next, nil
	}
	return m.landmarks, nil
}

// Close is a no-op for the mock source.
func (m *MockSource) Close() error {
	return nil
}

// UprightLandmarks returns a preset body in an upright playing posture:
// shoulders level, hips directly below the shoulders, head centered.
func UprightLandmarks() *Landmarks {
	lm := &Landmarks{Score: 0.95}

	lm.Points[Nose] = Point3D{X: 0.50, Y: 0.15, Z: 0.0}
	lm.Points[LeftShoulder] = Point3D{X: 0.60, Y: 0.30, Z: 0.0}
	lm.Points[RightShoulder] = Point3D{X: 0.40, Y: 0.30, Z: 0.0}
	lm.Points[LeftHip] = Point3D{X: 0.58, Y: 0.60, Z: 0.0}
	lm.Points[RightHip] = Point3D{X: 0.42, Y: 0.60, Z: 0.0}

	// Left arm raised to hold the violin neck
	lm.Points[LeftElbow] = Point3D{X: 0.68, Y: 0.38, Z: 0.0}
	lm.Points[LeftWrist] = Point3D{X: 0.72, Y: 0.25, Z: 0.0}

	// Right (bowing) arm half bent
	lm.Points[RightElbow] = Point3D{X: 0.32, Y: 0.42, Z: 0.0}
	lm.Points[RightWrist] = Point3D{X: 0.40, Y: 0.50, Z: 0.0}

	return lm
}

// BowingLandmarks returns the upright body with the right arm posed so
// that the shoulder-elbow-wrist angle equals elbowDeg degrees. Tests use
// a series of these to simulate bow strokes.
func BowingLandmarks(elbowDeg float64) *Landmarks {
	lm := UprightLandmarks()

	shoulder := Point3D{X: 0.40, Y: 0.30, Z: 0.0}
	elbow := Point3D{X: 0.40, Y: 0.45, Z: 0.0} // straight below the shoulder

	// The elbow-to-shoulder ray points straight up. Rotating it by the
	// requested angle gives the forearm direction.
	theta := elbowDeg * math.Pi / 180
	forearm := 0.15
	wrist := Point3D{
		X: elbow.X + forearm*math.Sin(theta),
		Y: elbow.Y - forearm*math.Cos(theta),
		Z: 0.0,
	}

	lm.Points[RightShoulder] = shoulder
	lm.Points[RightElbow] = elbow
	lm.Points[RightWrist] = wrist

	return lm
}

// SlouchedLandmarks returns the upright body with the shoulders shifted
// forward of the hips by the given angle from vertical, for posture
// deviation tests.
func SlouchedLandmarks(leanDeg float64) *Landmarks {
	lm := UprightLandmarks()

	// Shift both shoulders (and the head with them) so the shoulder
	// midpoint leans off the hip midpoint by leanDeg from vertical.
	torso := 0.30
	dx := torso * math.Tan(leanDeg*math.Pi/180)

	for _, i := range []int{Nose, LeftShoulder, RightShoulder, LeftElbow, RightElbow, LeftWrist, RightWrist} {
		lm.Points[i].X += dx
	}

	return lm
}
