package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/Squareczm/DocumentationTool/internal/common"
	"github.com/Squareczm/DocumentationTool/internal/model"
	"github.com/Squareczm/DocumentationTool/internal/service"
)

// Labeler asks a language model for a document's subject and category.
// It is safe for concurrent use; Close releases its background goroutines.
type Labeler struct {
	client          Client
	cache           *hintCache
	rateLimiter     *rateLimiter
	breaker         *gobreaker.CircuitBreaker
	logger          *slog.Logger
	retryOpts       service.RetryOptions
	timeout         time.Duration
	maxContentChars int
}

// BreakerSettings tunes the circuit breaker around the provider.
type BreakerSettings struct {
	Interval         time.Duration
	Timeout          time.Duration
	MaxRequests      uint32
	MinRequests      uint32
	FailureThreshold float64
}

// DefaultBreakerSettings trips after 60% of at least 5 calls fail and probes again after a minute.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		MaxRequests:      1,
		Interval:         2 * time.Minute,
		Timeout:          time.Minute,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

// LabelerOption configures a Labeler.
type LabelerOption func(*labelerOptions)

type labelerOptions struct {
	breaker BreakerSettings
}

// WithBreakerSettings overrides DefaultBreakerSettings.
func WithBreakerSettings(s BreakerSettings) LabelerOption {
	return func(o *labelerOptions) {
		o.breaker = s
	}
}

// NewLabeler wraps client with caching, rate limiting, retry and a circuit breaker.
func NewLabeler(client Client, cfg Config, logger *slog.Logger, opts ...LabelerOption) *Labeler {
	if logger == nil {
		logger = slog.Default()
	}
	o := labelerOptions{breaker: DefaultBreakerSettings()}
	for _, opt := range opts {
		opt(&o)
	}

	retryOpts := service.RetryOptions{
		MaxAttempts:  cfg.MaxRetries,
		InitialDelay: cfg.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
	if retryOpts.MaxAttempts <= 0 {
		retryOpts.MaxAttempts = 3
	}
	if retryOpts.InitialDelay <= 0 {
		retryOpts.InitialDelay = time.Second
	}

	bs := o.breaker
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "labeler",
		MaxRequests: bs.MaxRequests,
		Interval:    bs.Interval,
		Timeout:     bs.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < bs.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= bs.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String())
		},
		IsSuccessful: func(err error) bool {
			// Caller cancellation says nothing about provider health.
			return err == nil || errors.Is(err, context.Canceled)
		},
	})

	return &Labeler{
		client:          client,
		cache:           newHintCache(cfg.CacheTTL),
		rateLimiter:     newRateLimiter(cfg.RateLimit),
		breaker:         breaker,
		logger:          logger,
		retryOpts:       retryOpts,
		timeout:         cfg.timeout(),
		maxContentChars: cfg.maxContentChars(),
	}
}

// Label returns the model's hint for doc. categories lists the known rule
// categories offered to the model. Errors wrap common.ErrLabelerUnavailable
// when the breaker is open.
func (l *Labeler) Label(ctx context.Context, doc model.Document, categories []string) (*model.LabelerHint, error) {
	key := digest(doc)
	if hint, ok := l.cache.get(key); ok {
		l.logger.Debug("labeler cache hit", "path", doc.Path)
		return &hint, nil
	}

	prompt := buildPrompt(doc, categories, l.maxContentChars)

	result, err := l.breaker.Execute(func() (any, error) {
		var hint model.LabelerHint
		err := common.WithRetry(ctx, func() error {
			if err := l.rateLimiter.wait(ctx); err != nil {
				return common.Permanent(err)
			}

			callCtx, cancel := context.WithTimeout(ctx, l.timeout)
			defer cancel()

			reply, err := l.client.Complete(callCtx, prompt)
			if err != nil {
				return err
			}
			hint, err = parseHint(reply)
			return err
		}, l.retryOpts)
		return hint, err
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", common.ErrLabelerUnavailable, err)
		}
		return nil, fmt.Errorf("labeler: %w", err)
	}

	hint, ok := result.(model.LabelerHint)
	if !ok {
		return nil, fmt.Errorf("labeler: %w: unexpected result %T", common.ErrInvalidResponse, result)
	}
	l.cache.set(key, hint)

	l.logger.Info("document labeled",
		"path", doc.Path,
		"subject", hint.Subject,
		"suggested_category", hint.Category,
		"confidence", hint.Confidence)
	return &hint, nil
}

// State reports the circuit breaker state.
func (l *Labeler) State() gobreaker.State {
	return l.breaker.State()
}

// Close stops the cache and rate limiter goroutines.
func (l *Labeler) Close() {
	l.cache.Close()
	l.rateLimiter.Close()
}

func digest(doc model.Document) string {
	h := sha256.New()
	h.Write([]byte(doc.Name))
	h.Write([]byte{0})
	h.Write([]byte(doc.Content))
	return hex.EncodeToString(h.Sum(nil))
}
