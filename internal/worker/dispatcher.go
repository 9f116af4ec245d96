package worker

import (
	"context"
	"errors"
	"sync"
	"time"
	"waitlist/internal/config"
	"waitlist/internal/waitlist"
	"waitlist/pkg/logger"
	"waitlist/pkg/metrics"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ErrStopped is returned by Stop when it is called more than once.
var ErrStopped = errors.New("dispatcher already stopped")

// Options configure the confirmation dispatcher.
type Options struct {
	// Workers is the number of goroutines delivering emails.
	Workers int
	// QueueSize is the number of emails that may wait for a worker.
	QueueSize int
	// RatePerSecond throttles sends across all workers. Zero or less disables
	// throttling.
	RatePerSecond float64
	// Burst is the token bucket size of the throttle.
	Burst int
	// Timeout bounds a single delivery.
	Timeout time.Duration
}

// NewOptions constructs an Options value from the provided application config.
func NewOptions(cfg *config.Config) Options {
	return Options{
		Workers:       cfg.Mail.Workers,
		QueueSize:     cfg.Mail.QueueSize,
		RatePerSecond: cfg.Mail.RatePerSecond,
		Burst:         cfg.Mail.Burst,
		Timeout:       cfg.Mail.Timeout,
	}
}

// task is one queued confirmation.
type task struct {
	email string
	// log is the logger of the request that queued the task.
	log *zap.Logger
}

// Dispatcher delivers confirmation emails in the background so that a signup
// response never waits for the mail provider.
//
// # Delivery
//
// Submit puts the email on a bounded queue and returns immediately. When the
// queue is full the email is dropped and logged; a signup is never failed or
// delayed because of its confirmation. A fixed number of workers drain the
// queue. Before each send a worker waits on a shared token bucket so that a
// burst of signups cannot exceed the provider's sending rate.
//
// Every delivery runs on its own context carrying the request logger and
// bounded by Options.Timeout. It is detached from the request context, which
// is usually canceled right after the response is written.
//
// # Shutdown
//
// Stop closes the queue and waits until the workers have delivered everything
// that was accepted, or until its context is done. In the latter case the
// context of the in-flight deliveries is canceled as well.
type Dispatcher struct {
	options Options
	sender  waitlist.Confirmer
	metrics *metrics.Metrics
	limiter *rate.Limiter

	queue chan task
	wg    sync.WaitGroup

	// baseCtx is canceled when Stop gives up waiting.
	baseCtx context.Context //nolint: containedctx
	cancel  context.CancelFunc

	// mu guards closed and sends on queue against a concurrent close.
	mu     sync.RWMutex
	closed bool
}

// New creates a Dispatcher. Call Start before submitting.
func New(sender waitlist.Confirmer, m *metrics.Metrics, options Options) *Dispatcher {
	if options.Workers <= 0 {
		options.Workers = 1
	}
	if options.QueueSize < 0 {
		options.QueueSize = 0
	}
	if options.Burst <= 0 {
		options.Burst = 1
	}
	if m == nil {
		m = metrics.Noop()
	}

	limit := rate.Inf
	if options.RatePerSecond > 0 {
		limit = rate.Limit(options.RatePerSecond)
	}

	baseCtx, cancel := context.WithCancel(context.Background())

	return &Dispatcher{
		options: options,
		sender:  sender,
		metrics: m,
		limiter: rate.NewLimiter(limit, options.Burst),
		queue:   make(chan task, options.QueueSize),
		baseCtx: baseCtx,
		cancel:  cancel,
	}
}

// Start launches the workers. The logger of ctx is used for worker lifecycle
// logs; ctx cancellation does not stop the workers, Stop does.
func (d *Dispatcher) Start(ctx context.Context) {
	for i := range d.options.Workers {
		d.wg.Add(1)
		go d.run(logger.WithFields(context.WithoutCancel(ctx), zap.Int("worker", i)))
	}
	logger.Info(ctx, "confirmation dispatcher started",
		zap.Int("workers", d.options.Workers),
		zap.Int("queue_size", d.options.QueueSize))
}

// Submit queues a confirmation for email without blocking. It reports whether
// the email was accepted.
func (d *Dispatcher) Submit(ctx context.Context, email string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		logger.Warn(ctx, "dispatcher stopped, dropping confirmation", zap.String("email", email))
		d.metrics.Confirmation(ctx, metrics.ConfirmationDropped)

		return false
	}

	select {
	case d.queue <- task{email: email, log: logger.Get(ctx)}:
		return true
	default:
		logger.Warn(ctx, "confirmation queue full, dropping confirmation", zap.String("email", email))
		d.metrics.Confirmation(ctx, metrics.ConfirmationDropped)

		return false
	}
}

// run delivers queued tasks until the queue is closed.
func (d *Dispatcher) run(ctx context.Context) {
	defer d.wg.Done()

	for t := range d.queue {
		d.deliver(t)
	}
	logger.Debug(ctx, "confirmation worker stopped")
}

// deliver sends one confirmation and records its outcome.
func (d *Dispatcher) deliver(t task) {
	ctx := logger.WithLogger(d.baseCtx, t.log.With(zap.String("email", t.email)))
	if d.options.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.options.Timeout)
		defer cancel()
	}

	if err := d.limiter.Wait(ctx); err != nil {
		logger.Error(ctx, "could not send confirmation email", zap.Error(err))
		d.metrics.Confirmation(ctx, metrics.ConfirmationFailed)

		return
	}

	if err := d.sender.SendConfirmation(ctx, t.email); err != nil {
		logger.Error(ctx, "could not send confirmation email", zap.Error(err))
		d.metrics.Confirmation(ctx, metrics.ConfirmationFailed)

		return
	}

	logger.Info(ctx, "confirmation email sent")
	d.metrics.Confirmation(ctx, metrics.ConfirmationSent)
}

// Stop stops accepting new confirmations and waits for the accepted ones to
// be delivered. When ctx is done first, pending deliveries are canceled and
// ctx.Err() is returned.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()

		return ErrStopped
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.cancel()

		return nil
	case <-ctx.Done():
		d.cancel()
		<-done

		return ctx.Err()
	}
}

// Ensure Dispatcher conforms to the ConfirmationQueue interface at compile time.
var _ waitlist.ConfirmationQueue = (*Dispatcher)(nil)
