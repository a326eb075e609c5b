package app

import "sync"

// FrameHub fans annotated JPEG frames out to stream subscribers. The
// pipeline publishes; the MJPEG handler subscribes one channel per client.
// Slow subscribers drop frames rather than stall the pipeline.
type FrameHub struct {
	mu   sync.Mutex
	subs map[chan []byte]struct{}
	last []byte
}

// NewFrameHub creates an empty FrameHub.
func NewFrameHub() *FrameHub {
	return &FrameHub{subs: make(map[chan []byte]struct{})}
}

// Publish delivers a JPEG frame to all subscribers, skipping any whose
// channel is full. The frame is also retained for late subscribers.
func (h *FrameHub) Publish(jpeg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.last = jpeg
	for ch := range h.subs {
		select {
		case ch <- jpeg:
		default:
		}
	}
}

// Subscribe registers a new frame channel. The last published frame, if
// any, is delivered immediately.
func (h *FrameHub) Subscribe() chan []byte {
	ch := make(chan []byte, 1)

	h.mu.Lock()
	defer h.mu.Unlock()

	h.subs[ch] = struct{}{}
	if h.last != nil {
		ch <- h.last
	}
	return ch
}

// Unsubscribe removes a channel registered with Subscribe.
func (h *FrameHub) Unsubscribe(ch chan []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs, ch)
}

// Subscribers returns the current subscriber count.
func (h *FrameHub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
