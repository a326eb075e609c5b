package checkout

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/kirana/internal/keypad"
)

// stubGenerator records Generate calls and returns a fixed artifact.
type stubGenerator struct {
	calls  int
	amount float64
	fail   error
}

func (g *stubGenerator) Generate(amount float64) (Artifact, error) {
	g.calls++
	g.amount = amount
	if g.fail != nil {
		return Artifact{}, g.fail
	}
	return Artifact{Reference: "ref-1", Path: "qr_codes/ref-1.png"}, nil
}

var testItem = Item{ID: "1001", Name: "Oat Biscuits", Price: 10.00, Discount: 0.10}

// advanceTo walks a fresh session to the wanted state with one scanned item.
func advanceTo(t *testing.T, s *Session, state State) {
	t.Helper()
	steps := []func() error{
		s.Start,
		func() error {
			s.SetCandidate(&testItem)
			_, _, err := s.Scan()
			return err
		},
		s.RequestBill,
		s.ProceedToPayment,
	}
	targets := []State{StateScanning, StateScanning, StateReviewing, StateSelectingPayment}

	for i, step := range steps {
		require.NoError(t, step())
		if targets[i] == state {
			return
		}
	}
	switch state {
	case StateAwaitingCash:
		require.NoError(t, s.ChooseCash())
	case StateAwaitingQRConfirm:
		require.NoError(t, s.ChooseQR())
	default:
		t.Fatalf("cannot advance to %s", state)
	}
}

func TestSession_HappyPathCash(t *testing.T) {
	var settled []Settlement
	s := NewSession(nil, func(st Settlement) { settled = append(settled, st) })

	require.NoError(t, s.Start())
	assert.Equal(t, StateScanning, s.State())

	s.SetCandidate(&testItem)
	item, scanned, err := s.Scan()
	require.NoError(t, err)
	assert.True(t, scanned)
	assert.Equal(t, "Oat Biscuits", item.Name)

	require.NoError(t, s.RequestBill())
	require.NoError(t, s.ProceedToPayment())
	require.NoError(t, s.ChooseCash())
	assert.Equal(t, StateAwaitingCash, s.State())

	result, err := s.PayCash("10.00")
	require.NoError(t, err)
	assert.True(t, result.Accepted)
	assert.InDelta(t, 1.00, result.Change, 1e-9)
	assert.Equal(t, StateSettled, s.State())

	require.Len(t, settled, 1)
	assert.Equal(t, MethodCash, settled[0].Method)
	assert.InDelta(t, 9.00, settled[0].Total, 1e-9)
	assert.InDelta(t, 1.00, settled[0].Change, 1e-9)
}

func TestSession_ScanWithoutCandidateIsNoop(t *testing.T) {
	s := NewSession(nil, nil)
	require.NoError(t, s.Start())

	_, scanned, err := s.Scan()
	require.NoError(t, err)
	assert.False(t, scanned)
	assert.Equal(t, StateScanning, s.State())
	assert.Equal(t, 0, s.Ledger().Count())
}

func TestSession_CashRejectionKeepsState(t *testing.T) {
	s := NewSession(nil, nil)
	advanceTo(t, s, StateAwaitingCash)

	result, err := s.PayCash("5.00") // due is 9.00
	require.NoError(t, err)
	assert.False(t, result.Accepted)
	assert.Equal(t, ReasonInsufficientFunds, result.Reason)
	assert.Equal(t, StateAwaitingCash, s.State())

	result, err = s.PayCash("not-a-number")
	require.NoError(t, err)
	assert.Equal(t, ReasonInvalidInput, result.Reason)
	assert.Equal(t, StateAwaitingCash, s.State())

	// Recoverable: a good tender still settles.
	result, err = s.PayCash("9.00")
	require.NoError(t, err)
	assert.True(t, result.Accepted)
	assert.Equal(t, StateSettled, s.State())
}

func TestSession_SettleWithoutCallback(t *testing.T) {
	s := NewSession(nil, nil)
	advanceTo(t, s, StateAwaitingCash)

	result, err := s.PayCash("9.00")
	require.NoError(t, err)
	assert.True(t, result.Accepted)
	assert.Equal(t, StateSettled, s.State())

	// Settled is terminal; only Reset leaves it.
	_, err = s.PayCash("9.00")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, StateSettled, s.State())
}

func TestSession_QRPath(t *testing.T) {
	gen := &stubGenerator{}
	var settled []Settlement
	s := NewSession(gen, func(st Settlement) { settled = append(settled, st) })
	advanceTo(t, s, StateSelectingPayment)

	require.NoError(t, s.ChooseQR())
	assert.Equal(t, StateAwaitingQRConfirm, s.State())
	assert.Equal(t, 1, gen.calls)
	assert.InDelta(t, 9.00, gen.amount, 1e-9, "artifact must carry the real total")
	require.NotNil(t, s.Artifact())
	assert.Equal(t, "ref-1", s.Artifact().Reference)

	require.NoError(t, s.ConfirmQR())
	assert.Equal(t, StateSettled, s.State())
	require.Len(t, settled, 1)
	assert.Equal(t, MethodQR, settled[0].Method)
}

func TestSession_QRGeneratorFailureKeepsState(t *testing.T) {
	gen := &stubGenerator{fail: errors.New("disk full")}
	s := NewSession(gen, nil)
	advanceTo(t, s, StateSelectingPayment)

	err := s.ChooseQR()
	require.Error(t, err)
	assert.Equal(t, StateSelectingPayment, s.State())
	assert.Nil(t, s.Artifact())
}

func TestSession_ResetFromAnyState(t *testing.T) {
	for _, state := range []State{StateScanning, StateReviewing, StateSelectingPayment, StateAwaitingCash, StateAwaitingQRConfirm} {
		s := NewSession(&stubGenerator{}, nil)
		advanceTo(t, s, state)
		s.SetCandidate(&testItem)
		s.Buffer().Apply(keypad.PressEvent{Label: "5"})

		s.Reset()

		assert.Equal(t, StateIdle, s.State(), "reset from %s", state)
		assert.Equal(t, 0, s.Ledger().Count(), "reset from %s", state)
		assert.Equal(t, "", s.Buffer().Text(), "reset from %s", state)
		assert.Nil(t, s.Candidate(), "reset from %s", state)
		assert.Nil(t, s.Artifact(), "reset from %s", state)
	}
}

func TestSession_InvalidTransitions(t *testing.T) {
	s := NewSession(nil, nil)

	// Everything except Start and Reset is invalid from Idle.
	_, _, err := s.Scan()
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.ErrorIs(t, s.RequestBill(), ErrInvalidTransition)
	assert.ErrorIs(t, s.ProceedToPayment(), ErrInvalidTransition)
	assert.ErrorIs(t, s.ChooseCash(), ErrInvalidTransition)
	assert.ErrorIs(t, s.ChooseQR(), ErrInvalidTransition)
	_, err = s.PayCash("1.00")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.ErrorIs(t, s.ConfirmQR(), ErrInvalidTransition)

	// The session is still usable afterwards.
	require.NoError(t, s.Start())
	assert.Equal(t, StateScanning, s.State())

	// Starting twice is invalid.
	assert.ErrorIs(t, s.Start(), ErrInvalidTransition)
}

func TestSession_BufferCommitPaysWhileAwaitingCash(t *testing.T) {
	s := NewSession(nil, nil)
	advanceTo(t, s, StateAwaitingCash)

	// Gesture keypad path: digits then Enter.
	for _, label := range []string{"1", "0", keypad.LabelEnter} {
		s.Buffer().Apply(keypad.PressEvent{Label: label})
	}

	assert.Equal(t, StateSettled, s.State())
	require.NotNil(t, s.LastResult())
	assert.True(t, s.LastResult().Accepted)
	assert.InDelta(t, 1.00, s.LastResult().Change, 1e-9)
}

func TestSession_EmptyBufferCommitIsInvalidInput(t *testing.T) {
	s := NewSession(nil, nil)
	advanceTo(t, s, StateAwaitingCash)

	s.Buffer().Apply(keypad.PressEvent{Label: keypad.LabelEnter})

	assert.Equal(t, StateAwaitingCash, s.State())
	require.NotNil(t, s.LastResult())
	assert.Equal(t, ReasonInvalidInput, s.LastResult().Reason)
}

func TestSession_SnapshotReflectsState(t *testing.T) {
	s := NewSession(nil, nil)
	advanceTo(t, s, StateReviewing)

	snap := s.Snapshot()
	assert.Equal(t, StateReviewing, snap.State)
	assert.Equal(t, 1, snap.Items)
	assert.InDelta(t, 9.00, snap.Total, 1e-9)
	require.Len(t, snap.Lines, 1)
	assert.Equal(t, "Oat Biscuits", snap.Lines[0].Name)
}
