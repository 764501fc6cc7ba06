package pose

import "gocv.io/x/gocv"

// Source defines the interface for pose estimation implementations.
type Source interface {
	// Detect analyzes a video frame and returns the detected body landmarks.
	// Returns nil when no body is detected.
	Detect(frame *gocv.Mat) (*Landmarks, error)

	// Close releases any resources held by the source.
	Close() error
}

// Config holds configuration options for pose detection.
type Config struct {
	// ModelComplexity selects the pose model variant (0-2, higher is more accurate).
	ModelComplexity int

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		ModelComplexity: 2,
		MinConfidence:   0.7,
		MinTrackingConf: 0.7,
	}
}
