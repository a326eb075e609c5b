package checkout

import (
	"strconv"
	"strings"
)

// Reason explains why a tender was accepted or rejected.
type Reason string

const (
	// ReasonOK means the tender covered the amount due.
	ReasonOK Reason = "ok"
	// ReasonInsufficientFunds means the tender was less than the amount due.
	ReasonInsufficientFunds Reason = "insufficient_funds"
	// ReasonInvalidInput means the tendered string did not parse as a number.
	ReasonInvalidInput Reason = "invalid_input"
)

// PaymentResult is the outcome of evaluating a cash tender.
type PaymentResult struct {
	Accepted bool    `json:"accepted"`
	Change   float64 `json:"change"`
	Reason   Reason  `json:"reason"`
}

// Evaluate parses the tendered amount and compares it against the amount
// due. All rejections are recoverable: the caller keeps its state and the
// operator is told the reason.
func Evaluate(tendered string, due float64) PaymentResult {
	amount, err := strconv.ParseFloat(strings.TrimSpace(tendered), 64)
	if err != nil {
		return PaymentResult{Reason: ReasonInvalidInput}
	}
	if amount < due {
		return PaymentResult{Reason: ReasonInsufficientFunds}
	}
	return PaymentResult{Accepted: true, Change: amount - due, Reason: ReasonOK}
}
