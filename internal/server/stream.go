package server

import (
	"fmt"
	"net/http"

	"github.com/ayusman/kirana/internal/app"
)

// StreamHandler serves the kiosk's annotated frames as an MJPEG stream.
// Frames come from the pipeline via the frame hub, so every client sees
// the same overlay (keypad, candidate, totals) the pipeline drew.
type StreamHandler struct {
	frames *app.FrameHub
}

// NewStreamHandler creates a new StreamHandler over the given frame hub.
func NewStreamHandler(frames *app.FrameHub) *StreamHandler {
	return &StreamHandler{frames: frames}
}

// ServeHTTP streams MJPEG frames to connected clients.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := h.frames.Subscribe()
	defer h.frames.Unsubscribe(ch)

	for {
		select {
		case <-r.Context().Done():
			return
		case jpeg := <-ch:
			fmt.Fprintf(w, "--frame\r\n")
			fmt.Fprintf(w, "Content-Type: image/jpeg\r\n")
			fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(jpeg))
			if _, err := w.Write(jpeg); err != nil {
				return
			}
			fmt.Fprintf(w, "\r\n")

			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}
		}
	}
}
