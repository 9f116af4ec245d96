package v1handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"waitlist/internal/waitlist"
	"waitlist/pkg/logger"
	"waitlist/pkg/serrors"

	"github.com/go-faster/jx"
	"go.uber.org/zap"
)

// MaxSignupBodyBytes bounds the signup request body.
const MaxSignupBodyBytes = 100 << 10

// decodeEmail extracts the "email" member of a JSON object. A missing member,
// a non-string value or a body that is not a JSON object all yield "".
func decodeEmail(body []byte) string {
	var email string
	d := jx.DecodeBytes(body)
	if d.Next() != jx.Object {
		return ""
	}
	if err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		if string(key) != "email" || d.Next() != jx.String {
			return d.Skip()
		}
		s, err := d.Str()
		if err != nil {
			return err
		}
		email = s

		return nil
	}); err != nil {
		return ""
	}

	return email
}

// Signup handles POST /api/signup.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxSignupBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeMessage(w, http.StatusRequestEntityTooLarge, "error", http.StatusText(http.StatusRequestEntityTooLarge))

			return
		}
		logger.Warn(ctx, "could not read signup body", zap.Error(err))
	}

	email := decodeEmail(body)
	if email == "" {
		h.writeError(ctx, w, serrors.With(serrors.ErrBadRequest, waitlist.MsgEmailMissing))

		return
	}

	res, err := h.deps.Waitlist.AddSubscriber(ctx, email)
	if err != nil {
		h.writeError(ctx, w, err)

		return
	}

	if h.deps.Confirmations != nil {
		h.deps.Confirmations.Submit(ctx, res.Email)
	}

	if res.Created {
		writeMessage(w, http.StatusCreated, "message", MsgCreated)

		return
	}
	writeMessage(w, http.StatusOK, "message", MsgAlreadyListed)
}

// subscriberCount never fails: a panic in the count path is logged and
// reported as zero.
func (h *Handler) subscriberCount(ctx context.Context) (n int64) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error(ctx, "subscriber count panicked", zap.Any("panic", rec))
			n = 0
		}
	}()

	return h.deps.Waitlist.SubscriberCount(ctx)
}

// Count handles GET /api/count.
func (h *Handler) Count(w http.ResponseWriter, r *http.Request) {
	n := h.subscriberCount(r.Context())

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("count", func(e *jx.Encoder) { e.Int64(n) })
		})
	})
}

// Health handles GET /api/health.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeMessage(w, http.StatusOK, "status", "ok")
}

// TooManyRequests writes the response of a rate limited request.
func (h *Handler) TooManyRequests(w http.ResponseWriter, _ *http.Request) {
	writeMessage(w, http.StatusTooManyRequests, "error", MsgTooManyRequests)
}

// Register mounts the routes on mux under prefix. signup wraps the signup
// route, e.g. with a rate limiter; nil leaves it unwrapped.
func (h *Handler) Register(mux *http.ServeMux, prefix string, signup func(http.Handler) http.Handler) {
	var signupHandler http.Handler = http.HandlerFunc(h.Signup)
	if signup != nil {
		signupHandler = signup(signupHandler)
	}

	mux.Handle("POST "+prefix+"/signup", signupHandler)
	mux.HandleFunc("GET "+prefix+"/count", h.Count)
	mux.HandleFunc("GET "+prefix+"/health", h.Health)
}
