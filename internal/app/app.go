// Package app wires the lane camera, product recognition, the virtual
// keypad and the checkout session into the kiosk's processing pipeline.
package app

import (
	"log"
	"sync"

	"github.com/ayusman/kirana/internal/capture"
	"github.com/ayusman/kirana/internal/checkout"
	"github.com/ayusman/kirana/internal/classifier"
	"github.com/ayusman/kirana/internal/detector"
	"github.com/ayusman/kirana/internal/keypad"
	"github.com/ayusman/kirana/internal/payment"
	"github.com/ayusman/kirana/internal/store"
)

// Pipeline timing constants.
const (
	// IdleFPS is the frame rate while the lane is empty.
	IdleFPS = capture.DefaultFPS
	// ActiveFPS is the frame rate while a shopper is at the lane.
	ActiveFPS = capture.ActiveFPS
	// IdleTimeoutMs is the time in milliseconds without presence before
	// switching back to the idle frame rate.
	IdleTimeoutMs = 2000
)

// Config holds configuration options for the kiosk.
type Config struct {
	Store          *store.Store
	CameraID       int
	PresenceThresh float64
	QRDir          string
}

// App owns the camera pipeline and the checkout session. All session
// mutation goes through App methods, which serialize access; the session
// itself is free of locking.
type App struct {
	config     Config
	camera     capture.Camera
	presence   *capture.PresenceDetector
	detector   detector.Detector
	classifier classifier.Classifier
	resolver   *classifier.Resolver
	grid       *keypad.Grid
	press      *keypad.PressDetector
	session    *checkout.Session
	frames     *FrameHub

	enabled  bool
	mu       sync.RWMutex
	stopCh   chan struct{}
	onUpdate func(checkout.Snapshot)
}

// New creates a new App instance with the given configuration.
func New(config Config) *App {
	presenceThreshold := config.PresenceThresh
	if presenceThreshold <= 0 {
		presenceThreshold = capture.DefaultPresenceThreshold
	}

	a := &App{
		config:   config,
		camera:   capture.NewCamera(config.CameraID),
		presence: capture.NewPresenceDetector(presenceThreshold),
		grid:     keypad.NewGrid(),
		press:    keypad.NewPressDetector(),
		frames:   NewFrameHub(),
		enabled:  false,
		stopCh:   nil,
	}

	a.session = checkout.NewSession(payment.NewQRGenerator(config.QRDir), a.recordSettlement)

	// Try MediaPipe first, fall back to mock detector
	if mp, err := detector.NewMediaPipeDetector(detector.DefaultConfig()); err == nil {
		a.detector = mp
		log.Println("Using MediaPipe hand detection")
	} else {
		log.Printf("MediaPipe not available (%v), using mock detector", err)
		a.detector = detector.NewMockDetector()
	}

	// Same pattern for the product classifier
	if svc, err := classifier.NewServiceClassifier(); err == nil {
		a.classifier = svc
		log.Println("Using classifier service for product recognition")
	} else {
		log.Printf("Classifier service not available (%v), using mock classifier", err)
		a.classifier = classifier.NewMockClassifier()
	}

	return a
}

// SetEnabled enables or disables frame processing.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

// IsEnabled returns whether frame processing is currently enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// SetDetector sets the hand detector implementation to use.
func (a *App) SetDetector(d detector.Detector) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.detector = d
}

// SetClassifier sets the product classifier implementation to use.
func (a *App) SetClassifier(c classifier.Classifier) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.classifier = c
}

// SetCamera replaces the camera. Only valid before Start.
func (a *App) SetCamera(c capture.Camera) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.camera = c
}

// SetOnUpdate registers a callback invoked with a fresh snapshot after
// every session change. Used by the server to push state to clients.
func (a *App) SetOnUpdate(fn func(checkout.Snapshot)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onUpdate = fn
}

// LoadCatalog loads the product catalog from the database and rebuilds the
// recognition resolver. Catalog order defines the classifier's class order.
func (a *App) LoadCatalog() error {
	if a.config.Store == nil {
		return nil
	}

	products, err := a.config.Store.Products().List()
	if err != nil {
		return err
	}

	items := make([]checkout.Item, len(products))
	for i, p := range products {
		items[i] = checkout.Item{
			ID:       p.ID,
			Name:     p.Name,
			Price:    p.Price,
			Discount: p.Discount,
		}
	}

	a.mu.Lock()
	a.resolver = classifier.NewResolver(items)
	a.mu.Unlock()

	log.Printf("Loaded %d products from database", len(items))
	return nil
}

// recordSettlement persists a completed transaction to the sales journal.
// Invoked by the session when payment settles.
func (a *App) recordSettlement(st checkout.Settlement) {
	if a.config.Store == nil {
		return
	}
	id, err := a.config.Store.Sales().Record(st)
	if err != nil {
		log.Printf("Failed to record sale: %v", err)
		return
	}
	log.Printf("Recorded %s sale %s: total %.2f", st.Method, id, st.Total)
}

// Start opens the camera and begins the processing pipeline.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Don't start if already running
	if a.stopCh != nil {
		return nil
	}

	if err := a.camera.Open(); err != nil {
		return err
	}

	a.camera.SetFPS(IdleFPS)

	stopCh := make(chan struct{})
	a.stopCh = stopCh
	go a.runPipeline(stopCh)

	log.Println("Kiosk pipeline started")
	return nil
}

// Stop halts the pipeline and releases resources.
func (a *App) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		close(a.stopCh)
		a.stopCh = nil
	}

	if err := a.camera.Close(); err != nil {
		log.Printf("Error closing camera: %v", err)
	}

	a.presence.Close()

	if a.detector != nil {
		if err := a.detector.Close(); err != nil {
			log.Printf("Error closing detector: %v", err)
		}
	}

	if a.classifier != nil {
		if err := a.classifier.Close(); err != nil {
			log.Printf("Error closing classifier: %v", err)
		}
	}

	log.Println("Kiosk pipeline stopped")
}

// Camera returns the camera instance.
func (a *App) Camera() capture.Camera {
	return a.camera
}

// PresenceDetector returns the presence detector instance.
func (a *App) PresenceDetector() *capture.PresenceDetector {
	return a.presence
}

// Detector returns the hand detector.
func (a *App) Detector() detector.Detector {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.detector
}

// Frames returns the hub of annotated frames for the MJPEG stream.
func (a *App) Frames() *FrameHub {
	return a.frames
}

// Grid returns the virtual keypad grid.
func (a *App) Grid() *keypad.Grid {
	return a.grid
}

// Snapshot returns the current session state for the presentation layer.
func (a *App) Snapshot() checkout.Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.session.Snapshot()
}

// StartTransaction begins a new checkout transaction.
func (a *App) StartTransaction() error {
	a.mu.Lock()
	err := a.session.Start()
	snap := a.session.Snapshot()
	a.mu.Unlock()
	a.notify(err, snap)
	return err
}

// Scan commits the currently recognized product to the bill. With no
// confident recognition it reports false and changes nothing.
func (a *App) Scan() (checkout.Item, bool, error) {
	a.mu.Lock()
	item, ok, err := a.session.Scan()
	snap := a.session.Snapshot()
	a.mu.Unlock()
	a.notify(err, snap)
	return item, ok, err
}

// RequestBill moves the session to bill review.
func (a *App) RequestBill() error {
	a.mu.Lock()
	err := a.session.RequestBill()
	snap := a.session.Snapshot()
	a.mu.Unlock()
	a.notify(err, snap)
	return err
}

// ProceedToPayment moves the session to payment method selection.
func (a *App) ProceedToPayment() error {
	a.mu.Lock()
	err := a.session.ProceedToPayment()
	snap := a.session.Snapshot()
	a.mu.Unlock()
	a.notify(err, snap)
	return err
}

// ChooseCash selects cash payment. The virtual keypad becomes live.
func (a *App) ChooseCash() error {
	a.mu.Lock()
	err := a.session.ChooseCash()
	a.press.Reset()
	snap := a.session.Snapshot()
	a.mu.Unlock()
	a.notify(err, snap)
	return err
}

// ChooseQR selects QR payment and generates the payment artifact.
func (a *App) ChooseQR() error {
	a.mu.Lock()
	err := a.session.ChooseQR()
	snap := a.session.Snapshot()
	a.mu.Unlock()
	a.notify(err, snap)
	return err
}

// PayCash evaluates a tendered amount typed on a physical fallback input.
// The virtual keypad path goes through the pipeline instead.
func (a *App) PayCash(tendered string) (checkout.PaymentResult, error) {
	a.mu.Lock()
	result, err := a.session.PayCash(tendered)
	snap := a.session.Snapshot()
	a.mu.Unlock()
	a.notify(err, snap)
	return result, err
}

// ConfirmQR settles the transaction after external QR payment.
func (a *App) ConfirmQR() error {
	a.mu.Lock()
	err := a.session.ConfirmQR()
	snap := a.session.Snapshot()
	a.mu.Unlock()
	a.notify(err, snap)
	return err
}

// ResetSession abandons or completes the transaction and returns to idle.
func (a *App) ResetSession() {
	a.mu.Lock()
	a.session.Reset()
	a.press.Reset()
	snap := a.session.Snapshot()
	a.mu.Unlock()
	a.notify(nil, snap)
}

// notify pushes a snapshot to the registered listener after a successful
// state change. Failed transitions change nothing, so nothing is pushed.
func (a *App) notify(err error, snap checkout.Snapshot) {
	if err != nil {
		return
	}
	a.mu.RLock()
	fn := a.onUpdate
	a.mu.RUnlock()
	if fn != nil {
		fn(snap)
	}
}
