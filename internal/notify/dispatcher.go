package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/akeren/go-waitlist/internal/log"
	"github.com/akeren/go-waitlist/internal/models"
	"github.com/akeren/go-waitlist/pkg/circuitbreaker"
	"github.com/akeren/go-waitlist/pkg/constants"
	apperrors "github.com/akeren/go-waitlist/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"
)

const (
	resultSent    = "sent"
	resultFailed  = "failed"
	resultSkipped = "skipped"
	resultDropped = "dropped"
)

type DispatcherConfig struct {
	Driver        string
	QueueSize     int
	SendTimeout   time.Duration
	RatePerSecond float64
	Breaker       *circuitbreaker.Config
	Registerer    prometheus.Registerer
}

// DispatcherStatus is reported by the health endpoint.
type DispatcherStatus struct {
	Driver  string `json:"driver"`
	Breaker string `json:"breaker"`
	Queued  int    `json:"queued"`
}

type job struct {
	entry  models.WaitlistEntry
	logger *log.Logger
}

// Dispatcher sends confirmation mail off the request path. Delivery is best
// effort: a full queue drops the mail and failures are never retried.
type Dispatcher struct {
	mailer   Mailer
	renderer *Renderer
	logger   *log.Logger
	driver   string
	timeout  time.Duration
	limiter  *rate.Limiter
	breaker  circuitbreaker.CircuitBreaker
	results  *prometheus.CounterVec

	queue  chan job
	done   chan struct{}
	mu     sync.RWMutex
	closed bool
}

// NewDispatcher starts the worker goroutine; callers must Close it.
func NewDispatcher(mailer Mailer, renderer *Renderer, logger *log.Logger, cfg DispatcherConfig) *Dispatcher {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = constants.DefaultMailQueueSize
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = constants.DefaultMailTimeout
	}
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	if cfg.Breaker == nil {
		cfg.Breaker = &circuitbreaker.Config{
			FailureThreshold: constants.DefaultMailBreakerFailure,
			RecoveryTimeout:  constants.DefaultMailBreakerRecover,
			SuccessThreshold: 1,
		}
	}
	if cfg.Breaker.OnStateChange == nil {
		cfg.Breaker.OnStateChange = func(from, to circuitbreaker.CircuitState) {
			logger.Warn("Mail circuit breaker changed state", "from", from.String(), "to", to.String())
		}
	}

	d := &Dispatcher{
		mailer:   mailer,
		renderer: renderer,
		logger:   logger,
		driver:   cfg.Driver,
		timeout:  cfg.SendTimeout,
		limiter:  rate.NewLimiter(limit, 1),
		breaker:  circuitbreaker.NewCircuitBreaker(cfg.Breaker),
		results:  newResultsCounter(cfg.Registerer),
		queue:    make(chan job, cfg.QueueSize),
		done:     make(chan struct{}),
	}

	go d.run()

	return d
}

func newResultsCounter(reg prometheus.Registerer) *prometheus.CounterVec {
	results := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_total",
			Help: "Confirmation mails by result.",
		},
		[]string{"result"},
	)

	if reg != nil {
		if err := reg.Register(results); err != nil {
			var already prometheus.AlreadyRegisteredError
			if errors.As(err, &already) {
				if existing, ok := already.ExistingCollector.(*prometheus.CounterVec); ok {
					results = existing
				}
			}
		}
	}

	return results
}

// NotifySignup queues a confirmation for entry and never blocks.
func (d *Dispatcher) NotifySignup(ctx context.Context, entry models.WaitlistEntry) {
	logger := log.GetLoggerInstanceFromContext(ctx, d.logger)

	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.results.WithLabelValues(resultDropped).Inc()
		logger.Warn("Mail dispatcher closed, confirmation dropped", "email", log.RedactEmail(entry.Email))
		return
	}

	select {
	case d.queue <- job{entry: entry, logger: logger}:
	default:
		d.results.WithLabelValues(resultDropped).Inc()
		logger.Warn("Mail queue full, confirmation dropped", "email", log.RedactEmail(entry.Email))
	}
}

func (d *Dispatcher) run() {
	defer close(d.done)

	for j := range d.queue {
		d.deliver(j)
	}
}

func (d *Dispatcher) deliver(j job) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	email := log.RedactEmail(j.entry.Email)

	msg, err := d.renderer.Render(j.entry)
	if err != nil {
		d.results.WithLabelValues(resultFailed).Inc()
		j.logger.Error("Failed to render confirmation mail", "email", email, "error", err)
		return
	}

	if err := d.limiter.Wait(ctx); err != nil {
		d.results.WithLabelValues(resultFailed).Inc()
		j.logger.Error("Confirmation mail timed out waiting for send slot", "email", email, "error", err)
		return
	}

	err = d.breaker.Call(func() error {
		return d.mailer.Send(ctx, msg.To, msg.Subject, msg.HTML)
	})
	switch {
	case errors.Is(err, circuitbreaker.ErrCircuitOpen):
		d.results.WithLabelValues(resultSkipped).Inc()
		j.logger.Warn("Mail circuit open, confirmation skipped", "email", email)
	case err != nil:
		d.results.WithLabelValues(resultFailed).Inc()
		notifyErr := apperrors.NewNotificationError("failed to send confirmation mail", err)
		j.logger.Error("Failed to send confirmation mail", "email", email, "timeout", apperrors.IsTimeout(err), "error", notifyErr)
	default:
		d.results.WithLabelValues(resultSent).Inc()
		j.logger.Info("Confirmation mail sent", "email", email, "position", j.entry.Position)
	}
}

// Close stops accepting mail and waits for the queue to drain or ctx to end.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) Status() DispatcherStatus {
	return DispatcherStatus{
		Driver:  d.driver,
		Breaker: d.breaker.State().String(),
		Queued:  len(d.queue),
	}
}
