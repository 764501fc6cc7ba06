package server

import (
	"fmt"
	"net/http"
	"time"

	"gocv.io/x/gocv"

	"github.com/askumar/violincoach/internal/capture"
)

// streamInterval paces the MJPEG stream at roughly the feedback
// broadcast rate.
const streamInterval = 66 * time.Millisecond

// StreamHandler serves the camera preview as an MJPEG stream so the
// dashboard can mirror what the pose estimator sees.
type StreamHandler struct {
	camera capture.Camera
}

// NewStreamHandler creates a StreamHandler reading from the given camera.
func NewStreamHandler(camera capture.Camera) *StreamHandler {
	return &StreamHandler{camera: camera}
}

// ServeHTTP streams JPEG-encoded frames until the client disconnects.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, _ := w.(http.Flusher)

	for {
		select {
		case <-r.Context().Done():
			return
		default:
		}

		frame, err := h.camera.ReadFrame()
		if err != nil {
			// Camera not ready; back off and retry
			time.Sleep(100 * time.Millisecond)
			continue
		}

		buf, err := gocv.IMEncode(".jpg", *frame)
		frame.Close()
		if err != nil {
			continue
		}

		_, err = fmt.Fprintf(w,
			"--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n",
			buf.Len())
		if err == nil {
			_, err = w.Write(buf.GetBytes())
		}
		if err == nil {
			_, err = fmt.Fprintf(w, "\r\n")
		}
		buf.Close()

		// A write error means the client went away
		if err != nil {
			return
		}

		if flusher != nil {
			flusher.Flush()
		}

		time.Sleep(streamInterval)
	}
}
