// Package pose provides body pose detection interfaces and landmark types.
package pose

// Body landmark indices following the MediaPipe Pose convention.
// See: https://developers.google.com/mediapipe/solutions/vision/pose_landmarker
const (
	Nose           = 0
	LeftEyeInner   = 1
	LeftEye        = 2
	LeftEyeOuter   = 3
	RightEyeInner  = 4
	RightEye       = 5
	RightEyeOuter  = 6
	LeftEar        = 7
	RightEar       = 8
	MouthLeft      = 9
	MouthRight     = 10
	LeftShoulder   = 11
	RightShoulder  = 12
	LeftElbow      = 13
	RightElbow     = 14
	LeftWrist      = 15
	RightWrist     = 16
	LeftPinky      = 17
	RightPinky     = 18
	LeftIndex      = 19
	RightIndex     = 20
	LeftThumb      = 21
	RightThumb     = 22
	LeftHip        = 23
	RightHip       = 24
	LeftKnee       = 25
	RightKnee      = 26
	LeftAnkle      = 27
	RightAnkle     = 28
	LeftHeel       = 29
	RightHeel      = 30
	LeftFootIndex  = 31
	RightFootIndex = 32
	NumLandmarks   = 33
)

// Point3D represents a 3D point in space with x, y, z coordinates.
// X and Y are normalized to the frame, Z is relative depth.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Landmarks represents the 33 body landmarks detected for a single frame.
// A frame either has all landmarks or none: a nil *Landmarks means the
// pose estimator produced no detection for that frame.
type Landmarks struct {
	Points [NumLandmarks]Point3D `json:"points"`
	Score  float64               `json:"score"`
}

// Midpoint returns the point halfway between the two landmark indices.
func (l *Landmarks) Midpoint(i, j int) Point3D {
	a, b := l.Points[i], l.Points[j]
	return Point3D{
		X: (a.X + b.X) / 2,
		Y: (a.Y + b.Y) / 2,
		Z: (a.Z + b.Z) / 2,
	}
}

// ShoulderMid returns the midpoint between the two shoulders.
func (l *Landmarks) ShoulderMid() Point3D {
	return l.Midpoint(LeftShoulder, RightShoulder)
}

// HipMid returns the midpoint between the two hips.
func (l *Landmarks) HipMid() Point3D {
	return l.Midpoint(LeftHip, RightHip)
}
