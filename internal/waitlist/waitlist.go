package waitlist

import (
	"context"
	"waitlist/internal/config"
	"waitlist/pkg/contacts"
	"waitlist/pkg/domain"
	"waitlist/pkg/logger"
	"waitlist/pkg/metrics"
	"waitlist/pkg/serrors"

	"go.uber.org/zap"
)

// Options configure which list signups are written to.
type Options struct {
	// ListID is the contact list that represents the waitlist.
	ListID domain.ListID
}

// NewOptions constructs an Options value from the provided application config.
func NewOptions(cfg *config.Config) Options {
	return Options{
		ListID: domain.ListID(cfg.Brevo.ListID),
	}
}

// waitlist is the concrete implementation of the Waitlist interface.
type waitlist struct {
	options   Options
	directory contacts.Directory
	cache     *CountCache
	metrics   *metrics.Metrics
}

// AddSubscriber normalizes email, adds it to the configured list and
// invalidates the subscriber count. Invalid input never reaches the provider.
func (w *waitlist) AddSubscriber(ctx context.Context, email string) (domain.SignupResult, error) {
	email, err := NormalizeEmail(email)
	if err != nil {
		return domain.SignupResult{}, err
	}
	ctx = logger.WithFields(ctx, zap.String("email", email))

	// any probe failure is treated as "not on the list"; the upsert below is
	// idempotent so at worst the response says created for an existing contact
	alreadyOnList := false
	existing, err := w.directory.Contact(ctx, email)
	switch {
	case err != nil:
		logger.Debug(ctx, "contact lookup failed, assuming new subscriber", zap.Error(err))
	case existing != nil:
		alreadyOnList = existing.OnList(w.options.ListID)
	}

	if err := w.directory.UpsertContact(ctx, email, []domain.ListID{w.options.ListID}); err != nil {
		w.metrics.Signup(ctx, metrics.SignupFailed)
		logger.Error(ctx, "could not upsert contact", zap.Error(err))

		return domain.SignupResult{}, serrors.Wrap(serrors.ErrInternal, err, "could not upsert contact")
	}
	w.cache.Invalidate()

	if alreadyOnList {
		w.metrics.Signup(ctx, metrics.SignupExisting)
		logger.Info(ctx, "subscriber already on waitlist")
	} else {
		w.metrics.Signup(ctx, metrics.SignupCreated)
		logger.Info(ctx, "subscriber added to waitlist")
	}

	return domain.SignupResult{Email: email, Created: !alreadyOnList}, nil
}

// SubscriberCount returns the cached waitlist size.
func (w *waitlist) SubscriberCount(ctx context.Context) int64 {
	return w.cache.Get(ctx)
}

// New creates a Waitlist writing to directory and serving counts from cache.
// A nil metrics disables recording.
func New(directory contacts.Directory, cache *CountCache, m *metrics.Metrics, options Options) Waitlist {
	if m == nil {
		m = metrics.Noop()
	}

	return &waitlist{
		options:   options,
		directory: directory,
		cache:     cache,
		metrics:   m,
	}
}
