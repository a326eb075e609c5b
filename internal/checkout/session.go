package checkout

import (
	"errors"
	"fmt"

	"github.com/ayusman/kirana/internal/keypad"
)

// State is the checkout session lifecycle state.
type State string

const (
	// StateIdle means no transaction is in progress.
	StateIdle State = "idle"
	// StateScanning means products are being recognized and scanned.
	StateScanning State = "scanning"
	// StateReviewing means the grouped bill is being shown.
	StateReviewing State = "reviewing"
	// StateSelectingPayment means the operator is choosing cash or QR.
	StateSelectingPayment State = "selecting_payment"
	// StateAwaitingCash means a tendered amount is awaited.
	StateAwaitingCash State = "awaiting_cash"
	// StateAwaitingQRConfirm means an artifact was generated and operator
	// confirmation of the external settlement is awaited.
	StateAwaitingQRConfirm State = "awaiting_qr_confirmation"
	// StateSettled means payment completed; only reset leaves this state.
	StateSettled State = "settled"
)

// Method is the settlement path taken.
type Method string

const (
	MethodCash Method = "cash"
	MethodQR   Method = "qr"
)

// ErrInvalidTransition is returned when an operation is not allowed in the
// session's current state. Always recoverable: the session stays where it
// was.
var ErrInvalidTransition = errors.New("invalid checkout transition")

// Artifact is a generated payment artifact: a scannable image stored on
// disk plus the reference encoded into it.
type Artifact struct {
	Reference string `json:"reference"`
	Path      string `json:"path"`
}

// ArtifactGenerator produces a scannable payment artifact for an amount
// due. Implemented by the QR generator; stubbed in tests.
type ArtifactGenerator interface {
	Generate(amount float64) (Artifact, error)
}

// Settlement summarizes a completed transaction.
type Settlement struct {
	Method   Method
	Total    float64
	Tendered float64
	Change   float64
	Lines    []BillLine
}

// Session is the checkout state machine. It exclusively owns one Ledger and
// one TextBuffer for the lifetime of a transaction; both are replaced, not
// reused, when the session returns to idle.
//
// Session is not safe for concurrent use; the kiosk confines all mutation
// to the app's single logical thread of control (see app package).
type Session struct {
	state     State
	ledger    *Ledger
	buffer    *keypad.TextBuffer
	candidate *Item

	artifacts ArtifactGenerator
	artifact  *Artifact

	lastResult *PaymentResult
	onSettle   func(Settlement)
}

// NewSession creates an idle Session. artifacts may be nil if the QR path
// is never taken; onSettle may be nil.
func NewSession(artifacts ArtifactGenerator, onSettle func(Settlement)) *Session {
	s := &Session{
		state:     StateIdle,
		ledger:    NewLedger(),
		artifacts: artifacts,
		onSettle:  onSettle,
	}
	s.buffer = keypad.NewTextBuffer(s.commitTender)
	return s
}

// State returns the current lifecycle state.
func (s *Session) State() State { return s.state }

// Ledger returns the session's scan ledger.
func (s *Session) Ledger() *Ledger { return s.ledger }

// Buffer returns the session's amount-entry buffer. Committing it (Enter)
// while cash is awaited evaluates the tender.
func (s *Session) Buffer() *keypad.TextBuffer { return s.buffer }

// Candidate returns the currently recognized, not-yet-scanned product.
func (s *Session) Candidate() *Item { return s.candidate }

// Artifact returns the payment artifact for this transaction, if the QR
// path was chosen.
func (s *Session) Artifact() *Artifact { return s.artifact }

// LastResult returns the most recent tender evaluation, or nil.
func (s *Session) LastResult() *PaymentResult { return s.lastResult }

// Start begins a new transaction: Idle → Scanning with a cleared ledger.
func (s *Session) Start() error {
	if s.state != StateIdle {
		return fmt.Errorf("%w: start from %s", ErrInvalidTransition, s.state)
	}
	s.ledger.Clear()
	s.state = StateScanning
	return nil
}

// SetCandidate replaces the recognized-but-not-scanned candidate product.
// Called once per tick by the pipeline; nil means nothing was recognized
// above the confidence threshold this tick. The candidate is not part of
// the ledger until Scan.
func (s *Session) SetCandidate(item *Item) {
	s.candidate = item
}

// Scan appends the current candidate to the ledger. With no candidate it
// is a no-op and reports false; the session stays in Scanning either way.
func (s *Session) Scan() (Item, bool, error) {
	if s.state != StateScanning {
		return Item{}, false, fmt.Errorf("%w: scan in %s", ErrInvalidTransition, s.state)
	}
	if s.candidate == nil {
		return Item{}, false, nil
	}
	item := *s.candidate
	s.ledger.Append(item)
	return item, true, nil
}

// RequestBill moves Scanning → Reviewing.
func (s *Session) RequestBill() error {
	if s.state != StateScanning {
		return fmt.Errorf("%w: request bill in %s", ErrInvalidTransition, s.state)
	}
	s.state = StateReviewing
	return nil
}

// ProceedToPayment moves Reviewing → SelectingPayment.
func (s *Session) ProceedToPayment() error {
	if s.state != StateReviewing {
		return fmt.Errorf("%w: proceed to payment in %s", ErrInvalidTransition, s.state)
	}
	s.state = StateSelectingPayment
	return nil
}

// ChooseCash moves SelectingPayment → AwaitingCash.
func (s *Session) ChooseCash() error {
	if s.state != StateSelectingPayment {
		return fmt.Errorf("%w: choose cash in %s", ErrInvalidTransition, s.state)
	}
	s.buffer.Clear()
	s.lastResult = nil
	s.state = StateAwaitingCash
	return nil
}

// ChooseQR generates a payment artifact for the current total and moves
// SelectingPayment → AwaitingQRConfirm. A generator failure keeps the
// session in SelectingPayment.
func (s *Session) ChooseQR() error {
	if s.state != StateSelectingPayment {
		return fmt.Errorf("%w: choose qr in %s", ErrInvalidTransition, s.state)
	}
	if s.artifacts == nil {
		return errors.New("no payment artifact generator configured")
	}
	artifact, err := s.artifacts.Generate(s.ledger.Total())
	if err != nil {
		return fmt.Errorf("generate payment artifact: %w", err)
	}
	s.artifact = &artifact
	s.state = StateAwaitingQRConfirm
	return nil
}

// PayCash evaluates a tendered amount against the ledger total. Rejection
// (insufficient funds, unparseable input) keeps the session in AwaitingCash
// and reports the reason; acceptance settles the transaction with change.
func (s *Session) PayCash(tendered string) (PaymentResult, error) {
	if s.state != StateAwaitingCash {
		return PaymentResult{}, fmt.Errorf("%w: pay cash in %s", ErrInvalidTransition, s.state)
	}

	due := s.ledger.Total()
	result := Evaluate(tendered, due)
	s.lastResult = &result

	if result.Accepted {
		s.settle(Settlement{
			Method:   MethodCash,
			Total:    due,
			Tendered: due + result.Change,
			Change:   result.Change,
			Lines:    s.ledger.Lines(),
		})
	}
	return result, nil
}

// ConfirmQR settles the transaction on explicit operator confirmation. The
// QR path trusts external settlement, so no amount is validated.
func (s *Session) ConfirmQR() error {
	if s.state != StateAwaitingQRConfirm {
		return fmt.Errorf("%w: confirm qr in %s", ErrInvalidTransition, s.state)
	}
	total := s.ledger.Total()
	s.settle(Settlement{
		Method: MethodQR,
		Total:  total,
		Lines:  s.ledger.Lines(),
	})
	return nil
}

// settle finishes the transaction: the session enters Settled and the
// settlement is handed to the registered callback, if any. Only Reset
// leaves Settled.
func (s *Session) settle(st Settlement) {
	s.state = StateSettled
	if s.onSettle != nil {
		s.onSettle(st)
	}
}

// Reset returns the session to Idle from any state, recovering from
// operator abandonment as well as normal completion. The ledger and buffer
// are replaced, the candidate and artifact discarded. Idempotent.
func (s *Session) Reset() {
	s.state = StateIdle
	s.ledger = NewLedger()
	s.buffer = keypad.NewTextBuffer(s.commitTender)
	s.candidate = nil
	s.artifact = nil
	s.lastResult = nil
}

// commitTender receives Enter commits from the amount buffer. Outside of
// AwaitingCash the committed text is discarded.
func (s *Session) commitTender(text string) {
	if s.state != StateAwaitingCash {
		return
	}
	s.PayCash(text)
}

// Snapshot is the presentation-layer view of the session.
type Snapshot struct {
	State     State          `json:"state"`
	Candidate *Item          `json:"candidate,omitempty"`
	Items     int            `json:"items"`
	Total     float64        `json:"total"`
	Lines     []BillLine     `json:"lines,omitempty"`
	Buffer    string         `json:"buffer"`
	Artifact  *Artifact      `json:"artifact,omitempty"`
	Payment   *PaymentResult `json:"payment,omitempty"`
}

// Snapshot captures the current session state for the presentation layer.
func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		State:     s.state,
		Candidate: s.candidate,
		Items:     s.ledger.Count(),
		Total:     s.ledger.Total(),
		Lines:     s.ledger.Lines(),
		Buffer:    s.buffer.Text(),
		Artifact:  s.artifact,
		Payment:   s.lastResult,
	}
}
