package capture

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// Motion gating constants.
const (
	// blurKernel is the Gaussian kernel size used to suppress sensor noise.
	blurKernel = 21
	// pixelDiffThreshold is the per-pixel intensity delta that counts as change.
	pixelDiffThreshold = 25
)

// MotionGate decides whether the player is moving by frame differencing.
// The pipeline uses it to drop to an idle frame rate between strokes.
type MotionGate struct {
	threshold float64
	baseline  gocv.Mat
	primed    bool
	mu        sync.Mutex
}

// NewMotionGate creates a MotionGate. The threshold is the percentage of
// pixels that must change between frames to count as motion; 1.0 means
// one percent.
func NewMotionGate(threshold float64) *MotionGate {
	return &MotionGate{
		threshold: threshold,
		baseline:  gocv.NewMat(),
	}
}

// Sample compares the frame to the previous one and reports whether
// motion was detected, along with the percentage of changed pixels.
// The first frame primes the baseline and always reports no motion.
func (g *MotionGate) Sample(frame *gocv.Mat) (bool, float64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if frame == nil || frame.Empty() {
		return false, 0
	}

	gray := gocv.NewMat()
	defer gray.Close()

	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Point{X: blurKernel, Y: blurKernel}, 0, 0, gocv.BorderDefault)

	if !g.primed {
		blurred.CopyTo(&g.baseline)
		g.primed = true
		return false, 0
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(blurred, g.baseline, &diff)

	thresh := gocv.NewMat()
	defer thresh.Close()
	gocv.Threshold(diff, &thresh, pixelDiffThreshold, 255, gocv.ThresholdBinary)

	changed := gocv.CountNonZero(thresh)
	total := thresh.Rows() * thresh.Cols()
	changePct := float64(changed) / float64(total) * 100.0

	blurred.CopyTo(&g.baseline)

	return changePct > g.threshold, changePct
}

// Reset clears the baseline so the next frame primes a fresh one.
func (g *MotionGate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.baseline.Empty() {
		g.baseline.Close()
		g.baseline = gocv.NewMat()
	}
	g.primed = false
}

// Close releases resources held by the gate.
func (g *MotionGate) Close() {
	g.Reset()
}

// SetThreshold updates the motion threshold. Non-positive values are
// ignored.
func (g *MotionGate) SetThreshold(threshold float64) {
	if threshold <= 0 {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.threshold = threshold
}
