package app

import (
	"fmt"
	"image"
	"image/color"
	"log"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/kirana/internal/checkout"
	"github.com/ayusman/kirana/internal/keypad"
)

// runPipeline is the main loop that processes frames from the lane camera.
// It manages the switch between idle and active frame rates based on
// shopper presence, and routes each frame by session state.
//
// Per-frame logic:
//  1. Presence detection; no shopper for 2s drops back to the idle rate
//  2. Scanning: classify the frame and update the recognition candidate
//  3. Awaiting cash: detect the hand, project the index fingertip onto the
//     virtual keypad and feed presses into the amount buffer
//  4. Annotate the frame and publish it for the MJPEG stream
//
// The stop channel is handed in at launch; Stop clears a.stopCh under the
// lock, so the goroutine must not read the field again.
func (a *App) runPipeline(stop <-chan struct{}) {
	activeMode := false
	lastPresence := time.Now()
	lastCandidateID := ""

	frameInterval := time.Second / time.Duration(IdleFPS)
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if !a.IsEnabled() {
				continue
			}

			frame, err := a.camera.ReadFrame()
			if err != nil {
				log.Printf("Error reading frame: %v", err)
				continue
			}

			present, _ := a.presence.Detect(frame)

			if present {
				lastPresence = time.Now()

				if !activeMode {
					activeMode = true
					a.camera.SetFPS(ActiveFPS)
					frameInterval = time.Second / time.Duration(ActiveFPS)
					ticker.Reset(frameInterval)
					log.Println("Shopper at lane, switched to active mode")
				}
			} else if activeMode {
				if time.Since(lastPresence) > time.Duration(IdleTimeoutMs)*time.Millisecond {
					activeMode = false
					a.camera.SetFPS(IdleFPS)
					frameInterval = time.Second / time.Duration(IdleFPS)
					ticker.Reset(frameInterval)
					log.Println("Lane empty, switched to idle mode")
				}
			}

			if !activeMode {
				frame.Close()
				continue
			}

			state := a.Snapshot().State

			switch state {
			case checkout.StateScanning:
				lastCandidateID = a.processScanning(frame, lastCandidateID)
			case checkout.StateAwaitingCash:
				a.processKeypad(frame)
			}

			a.publishFrame(frame, state)
			frame.Close()
		}
	}
}

// processScanning runs product recognition on the frame and updates the
// session candidate. Returns the new candidate ID so the caller can track
// changes across frames; only changes are pushed to listeners.
func (a *App) processScanning(frame *gocv.Mat, prevID string) string {
	a.mu.RLock()
	cls := a.classifier
	resolver := a.resolver
	a.mu.RUnlock()

	if cls == nil || resolver == nil {
		return prevID
	}

	pred, err := cls.Classify(frame)
	if err != nil {
		log.Printf("Error classifying frame: %v", err)
		return prevID
	}

	var candidate *checkout.Item
	candidateID := ""
	if item, ok := resolver.Resolve(pred); ok {
		candidate = &item
		candidateID = item.ID
	}

	a.mu.Lock()
	a.session.SetCandidate(candidate)
	snap := a.session.Snapshot()
	a.mu.Unlock()

	if candidateID != prevID {
		a.notify(nil, snap)
	}
	return candidateID
}

// processKeypad projects the index fingertip onto the virtual keypad and
// feeds any debounced press into the session's amount buffer.
func (a *App) processKeypad(frame *gocv.Mat) {
	hands, err := a.Detector().Detect(frame)
	if err != nil {
		log.Printf("Error detecting hands: %v", err)
		return
	}

	var pos *keypad.FingerPosition
	if len(hands) > 0 {
		x, y := hands[0].Fingertip(frame.Cols(), frame.Rows())
		pos = &keypad.FingerPosition{X: x, Y: y}
	}

	a.mu.Lock()
	a.grid.Resize(frame.Cols(), frame.Rows())
	ev, pressed := a.press.OnFrame(pos, a.grid, time.Now())
	if !pressed {
		a.mu.Unlock()
		return
	}

	// Apply drives the buffer; an Enter press commits the tender, which
	// evaluates payment and may settle the transaction.
	a.session.Buffer().Apply(ev)
	snap := a.session.Snapshot()
	a.mu.Unlock()

	a.notify(nil, snap)
}

// Annotation colors.
var (
	keyColor    = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	hoverColor  = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	labelColor  = color.RGBA{R: 255, G: 255, B: 0, A: 255}
	statusColor = color.RGBA{R: 0, G: 200, B: 255, A: 255}
)

// publishFrame draws the state overlay onto the frame and hands the JPEG
// to the stream hub. Skipped entirely when nobody is watching the stream.
func (a *App) publishFrame(frame *gocv.Mat, state checkout.State) {
	if a.frames.Subscribers() == 0 {
		return
	}

	a.annotate(frame, state)

	buf, err := gocv.IMEncode(".jpg", *frame)
	if err != nil {
		return
	}
	jpeg := make([]byte, buf.Len())
	copy(jpeg, buf.GetBytes())
	buf.Close()

	a.frames.Publish(jpeg)
}

// annotate draws the per-state overlay: the recognition candidate while
// scanning, the keypad with hover highlight and the amount entered while
// cash is awaited, and a status line always.
func (a *App) annotate(frame *gocv.Mat, state checkout.State) {
	a.mu.Lock()
	snap := a.session.Snapshot()
	hover := a.press.Hover()
	keys := a.grid.Layout(frame.Cols(), frame.Rows())
	a.mu.Unlock()

	gocv.PutText(frame, fmt.Sprintf("%s | items: %d | total: %.2f", state, snap.Items, snap.Total),
		image.Pt(10, 25), gocv.FontHersheySimplex, 0.6, statusColor, 2)

	switch state {
	case checkout.StateScanning:
		if snap.Candidate != nil {
			text := fmt.Sprintf("%s  %.2f", snap.Candidate.Name, snap.Candidate.DiscountedPrice())
			gocv.PutText(frame, text, image.Pt(10, 55), gocv.FontHersheySimplex, 0.7, labelColor, 2)
		}

	case checkout.StateAwaitingCash:
		for _, k := range keys {
			c := keyColor
			if k.Label == hover {
				c = hoverColor
			}
			gocv.Rectangle(frame, image.Rect(k.X, k.Y, k.X+k.Width, k.Y+k.Height), c, 2)
			gocv.PutText(frame, k.Label, image.Pt(k.X+10, k.Y+k.Height/2+5),
				gocv.FontHersheySimplex, 0.6, c, 2)
		}
		gocv.PutText(frame, "amount: "+snap.Buffer, image.Pt(10, 55),
			gocv.FontHersheySimplex, 0.7, labelColor, 2)
	}
}
