package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ayusman/kirana/internal/app"
	"github.com/ayusman/kirana/internal/checkout"
)

// SessionHandler exposes the checkout session over HTTP. GET returns the
// current snapshot; POSTs to the action sub-paths drive the state machine.
type SessionHandler struct {
	app *app.App
}

// NewSessionHandler creates a new SessionHandler for the given app.
func NewSessionHandler(a *app.App) *SessionHandler {
	return &SessionHandler{app: a}
}

type payRequest struct {
	Amount string `json:"amount"`
}

type scanResponse struct {
	Scanned bool              `json:"scanned"`
	Item    *checkout.Item    `json:"item,omitempty"`
	Session checkout.Snapshot `json:"session"`
}

type payResponse struct {
	Result  checkout.PaymentResult `json:"result"`
	Session checkout.Snapshot      `json:"session"`
}

// ServeHTTP implements the http.Handler interface.
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Expected paths: /api/session or /api/session/{action}
	action := strings.TrimPrefix(r.URL.Path, "/api/session")
	action = strings.TrimPrefix(action, "/")

	if action == "" {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, h.app.Snapshot())
		return
	}

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	switch action {
	case "start":
		h.respond(w, h.app.StartTransaction())
	case "scan":
		h.scan(w)
	case "bill":
		h.respond(w, h.app.RequestBill())
	case "payment":
		h.respond(w, h.app.ProceedToPayment())
	case "cash":
		h.respond(w, h.app.ChooseCash())
	case "qr":
		h.respond(w, h.app.ChooseQR())
	case "pay":
		h.pay(w, r)
	case "confirm":
		h.respond(w, h.app.ConfirmQR())
	case "reset":
		h.app.ResetSession()
		writeJSON(w, http.StatusOK, h.app.Snapshot())
	default:
		writeError(w, http.StatusNotFound, "Unknown session action")
	}
}

// respond maps a transition result to a response: the fresh snapshot on
// success, 409 when the session is in the wrong state.
func (h *SessionHandler) respond(w http.ResponseWriter, err error) {
	if err != nil {
		if errors.Is(err, checkout.ErrInvalidTransition) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.app.Snapshot())
}

// scan handles POST /api/session/scan. Scanning with nothing recognized is
// not an error; the response says whether an item was added.
func (h *SessionHandler) scan(w http.ResponseWriter) {
	item, ok, err := h.app.Scan()
	if err != nil {
		if errors.Is(err, checkout.ErrInvalidTransition) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := scanResponse{Scanned: ok, Session: h.app.Snapshot()}
	if ok {
		resp.Item = &item
	}
	writeJSON(w, http.StatusOK, resp)
}

// pay handles POST /api/session/pay: a tendered amount entered on a
// physical fallback input instead of the virtual keypad.
func (h *SessionHandler) pay(w http.ResponseWriter, r *http.Request) {
	var req payRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	result, err := h.app.PayCash(req.Amount)
	if err != nil {
		if errors.Is(err, checkout.ErrInvalidTransition) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, payResponse{Result: result, Session: h.app.Snapshot()})
}
