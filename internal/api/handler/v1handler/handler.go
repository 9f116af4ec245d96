// Package v1handler implements the public waitlist API served under /api.
package v1handler

import (
	"context"
	"net/http"
	"waitlist/internal/waitlist"
	"waitlist/pkg/logger"
	"waitlist/pkg/serrors"

	"github.com/go-faster/jx"
	"go.uber.org/zap"
)

// User facing response messages.
const (
	MsgCreated         = "Erfolgreich eingetragen!"
	MsgAlreadyListed   = "Du bist bereits auf der Warteliste."
	MsgTooManyRequests = "Zu viele Anfragen. Bitte versuche es später erneut."
	MsgInternal        = "Etwas ist schiefgelaufen. Bitte versuche es erneut."
)

// Deps are the services the handlers delegate to.
type Deps struct {
	// Waitlist performs signups and serves the subscriber count.
	Waitlist waitlist.Waitlist
	// Confirmations receives the confirmation email of every successful
	// signup. Nil disables confirmation emails.
	Confirmations waitlist.ConfirmationQueue
}

// Handler serves the v1 routes.
type Handler struct {
	deps Deps
}

// New creates a Handler.
func New(deps Deps) *Handler {
	return &Handler{deps: deps}
}

// ErrorResponse is an error translated for the client.
type ErrorResponse struct {
	StatusCode int
	Message    string
}

// NewError maps err to a status code and a message that is safe to show to
// the user. Only validation errors expose their own message.
func (h *Handler) NewError(ctx context.Context, err error) *ErrorResponse {
	switch serrors.KindOf(err) {
	case serrors.ErrBadRequest:
		msg := serrors.MessageOf(err)
		if msg == "" {
			msg = waitlist.MsgEmailInvalid
		}
		logger.Debug(ctx, "rejected request", zap.Error(err))

		return &ErrorResponse{StatusCode: http.StatusBadRequest, Message: msg}
	case serrors.ErrRateLimited:
		return &ErrorResponse{StatusCode: http.StatusTooManyRequests, Message: MsgTooManyRequests}
	default:
		logger.Error(ctx, "request failed", zap.Error(err))

		return &ErrorResponse{StatusCode: http.StatusInternalServerError, Message: MsgInternal}
	}
}

// writeJSON encodes a response body with enc and writes it with status.
func writeJSON(w http.ResponseWriter, status int, enc func(e *jx.Encoder)) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	enc(e)

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// writeMessage writes {"<field>": msg}.
func writeMessage(w http.ResponseWriter, status int, field, msg string) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field(field, func(e *jx.Encoder) { e.Str(msg) })
		})
	})
}

// writeError translates err and writes {"error": msg}.
func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	res := h.NewError(ctx, err)
	writeMessage(w, res.StatusCode, "error", res.Message)
}
