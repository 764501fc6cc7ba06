// Package angles computes joint angles from pose landmarks and provides
// moving-average smoothing for noisy per-frame readings.
package angles

import (
	"math"

	"github.com/askumar/violincoach/internal/pose"
)

// SmoothingWindow is the number of samples kept for the moving average.
const SmoothingWindow = 5

// Angle returns the angle in degrees at vertex b formed by the rays b->a
// and b->c, using only the x/y plane. The result is in [0, 180].
// Coincident points produce 0 rather than a NaN: a zero-length ray has no
// defined direction, so the angle collapses to zero.
func Angle(a, b, c pose.Point3D) float64 {
	bax := a.X - b.X
	bay := a.Y - b.Y
	bcx := c.X - b.X
	bcy := c.Y - b.Y

	baLen := math.Hypot(bax, bay)
	bcLen := math.Hypot(bcx, bcy)
	if baLen == 0 || bcLen == 0 {
		return 0
	}

	cosine := (bax*bcx + bay*bcy) / (baLen * bcLen)
	// Clamp before arccos so rounding can never push us out of domain.
	if cosine > 1 {
		cosine = 1
	} else if cosine < -1 {
		cosine = -1
	}

	return math.Acos(cosine) * 180 / math.Pi
}

// Vertical returns the angle in degrees between the segment top->bottom
// and true vertical (the image y axis). The result is in [0, 180].
func Vertical(top, bottom pose.Point3D) float64 {
	origin := pose.Point3D{X: top.X, Y: top.Y}
	down := pose.Point3D{X: top.X, Y: top.Y + 1}
	return Angle(bottom, origin, down)
}

// Smoother maintains a fixed-capacity FIFO of angle samples and reports
// their arithmetic mean. The zero value is not usable; use NewSmoother.
type Smoother struct {
	samples []float64
	cap     int
}

// NewSmoother creates a Smoother with the standard window size.
func NewSmoother() *Smoother {
	return &Smoother{
		samples: make([]float64, 0, SmoothingWindow),
		cap:     SmoothingWindow,
	}
}

// Push appends a sample, evicting the oldest when the window is full.
func (s *Smoother) Push(angle float64) {
	if len(s.samples) >= s.cap {
		copy(s.samples, s.samples[1:])
		s.samples = s.samples[:s.cap-1]
	}
	s.samples = append(s.samples, angle)
}

// Smoothed returns the mean of the current window contents.
// The second return value is false when no samples have been pushed.
func (s *Smoother) Smoothed() (float64, bool) {
	if len(s.samples) == 0 {
		return 0, false
	}

	var sum float64
	for _, v := range s.samples {
		sum += v
	}
	return sum / float64(len(s.samples)), true
}

// Len returns the number of samples currently buffered.
func (s *Smoother) Len() int {
	return len(s.samples)
}

// Reset discards all buffered samples.
func (s *Smoother) Reset() {
	s.samples = s.samples[:0]
}

// Posture holds the derived angles used for posture assessment.
type Posture struct {
	BackVertical  float64 `json:"back_vertical"`
	LeftShoulder  float64 `json:"left_shoulder"`
	RightShoulder float64 `json:"right_shoulder"`
	Neck          float64 `json:"neck"`
}

// ComputePosture derives the posture angles from a landmark frame:
// the back's deviation from vertical (shoulder midpoint to hip midpoint),
// the elbow-shoulder-hip angle on each side, and the nose-shoulder-hip
// neck angle. Returns false when the frame is absent.
func ComputePosture(lm *pose.Landmarks) (Posture, bool) {
	if lm == nil {
		return Posture{}, false
	}

	shoulderMid := lm.ShoulderMid()
	hipMid := lm.HipMid()

	return Posture{
		BackVertical: Vertical(shoulderMid, hipMid),
		LeftShoulder: Angle(
			lm.Points[pose.LeftElbow],
			lm.Points[pose.LeftShoulder],
			lm.Points[pose.LeftHip],
		),
		RightShoulder: Angle(
			lm.Points[pose.RightElbow],
			lm.Points[pose.RightShoulder],
			lm.Points[pose.RightHip],
		),
		Neck: Angle(lm.Points[pose.Nose], shoulderMid, hipMid),
	}, true
}

// ElbowAngle returns the right-arm shoulder-elbow-wrist angle, the primary
// signal for bow direction. Returns false when the frame is absent.
func ElbowAngle(lm *pose.Landmarks) (float64, bool) {
	if lm == nil {
		return 0, false
	}
	return Angle(
		lm.Points[pose.RightShoulder],
		lm.Points[pose.RightElbow],
		lm.Points[pose.RightWrist],
	), true
}
