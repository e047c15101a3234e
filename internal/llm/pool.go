package llm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/jonathan/creative-compliance/internal/observability"
)

// DefaultAttemptsPerKey is how many times a request is tried on one key before rotating
const DefaultAttemptsPerKey = 3

// ClientFactory builds a provider client for one API key
type ClientFactory func(ctx context.Context, apiKey string) (Client, error)

// NewBackOff returns the retry delay policy: 1s doubling up to 10s with 25% jitter
func NewBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.Multiplier = 2
	b.MaxInterval = 10 * time.Second
	b.RandomizationFactor = 0.25
	b.Reset()
	return b
}

// Pool is a Client that spreads requests over a KeyPool with retry and rotation
type Pool struct {
	keys       *KeyPool
	config     *Config
	factory    ClientFactory
	attempts   int
	newBackOff func() backoff.BackOff
	sleep      func(ctx context.Context, d time.Duration) error
	log        *observability.Logger

	mu      sync.Mutex
	clients map[int]Client
}

// PoolOption configures a Pool
type PoolOption func(*Pool)

// WithLogger sets the pool logger
func WithLogger(l *observability.Logger) PoolOption {
	return func(p *Pool) { p.log = observability.OrNop(l) }
}

// WithSleep replaces the delay function used between attempts
func WithSleep(fn func(ctx context.Context, d time.Duration) error) PoolOption {
	return func(p *Pool) { p.sleep = fn }
}

// WithBackOff replaces the retry delay policy
func WithBackOff(fn func() backoff.BackOff) PoolOption {
	return func(p *Pool) { p.newBackOff = fn }
}

// WithAttemptsPerKey sets the number of attempts per key
func WithAttemptsPerKey(n int) PoolOption {
	return func(p *Pool) {
		if n > 0 {
			p.attempts = n
		}
	}
}

// NewPool creates a pool that builds clients with factory
func NewPool(keys *KeyPool, config *Config, factory ClientFactory, opts ...PoolOption) *Pool {
	if config == nil {
		config = DefaultConfig()
	}
	p := &Pool{
		keys:       keys,
		config:     config,
		factory:    factory,
		attempts:   DefaultAttemptsPerKey,
		newBackOff: NewBackOff,
		sleep:      sleepContext,
		log:        observability.Nop(),
		clients:    make(map[int]Client),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewGeminiPool creates a pool of Gemini clients
func NewGeminiPool(keys *KeyPool, config *Config, opts ...PoolOption) *Pool {
	if config == nil {
		config = DefaultGeminiConfig()
	}
	factory := func(ctx context.Context, apiKey string) (Client, error) {
		return NewGeminiClient(ctx, config, apiKey)
	}
	return NewPool(keys, config, factory, opts...)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (p *Pool) clientFor(ctx context.Context, idx int) (Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if c, ok := p.clients[idx]; ok {
		return c, nil
	}
	c, err := p.factory(ctx, p.keys.Key(idx))
	if err != nil {
		return nil, err
	}
	p.clients[idx] = c
	return c, nil
}

// Invoke runs fn against the current key. Transient failures are retried with
// backoff up to the per-key attempt limit and then the next key is tried.
// Quota failures rotate at once. Fatal failures are returned without retry.
func (p *Pool) Invoke(ctx context.Context, fn func(ctx context.Context, c Client) (string, error)) (string, error) {
	if p.keys == nil || p.keys.Len() == 0 {
		return "", ErrNoKeys
	}

	var lastErr error
	for tried := 0; tried < p.keys.Len(); tried++ {
		idx, key, err := p.keys.Current()
		if err != nil {
			return "", err
		}
		log := p.log.With("key", observability.MaskKey(key))
		b := p.newBackOff()
		b.Reset()

		for attempt := 0; attempt < p.attempts; attempt++ {
			if err := p.keys.Wait(ctx, idx); err != nil {
				return "", err
			}
			client, err := p.clientFor(ctx, idx)
			if err == nil {
				var out string
				out, err = fn(ctx, client)
				if err == nil {
					p.keys.RecordSuccess(idx)
					observability.AIAttempts.WithLabelValues("ok").Inc()
					return out, nil
				}
			}

			err = Classify(err)
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return "", err
			}
			lastErr = err
			p.keys.RecordFailure(idx)

			var re *RemoteError
			if errors.As(err, &re) && re.Kind == KindFatal {
				observability.AIAttempts.WithLabelValues("fatal").Inc()
				log.Error("model request failed", "status", re.StatusCode, "error", re.Message)
				return "", err
			}
			observability.AIAttempts.WithLabelValues("transient").Inc()
			if re != nil && re.Quota {
				log.Warn("quota exhausted, rotating key", "attempt", attempt+1)
				break
			}
			if attempt == p.attempts-1 {
				log.Warn("retries exhausted, rotating key", "attempts", p.attempts)
				break
			}
			delay := b.NextBackOff()
			log.Debug("retrying model request", "attempt", attempt+1, "delay", delay, "error", err)
			if err := p.sleep(ctx, delay); err != nil {
				return "", err
			}
		}
		p.keys.Rotate()
	}
	return "", fmt.Errorf("all %d API keys failed: %w", p.keys.Len(), lastErr)
}

// GenerateContent generates free text through the pool
func (p *Pool) GenerateContent(ctx context.Context, prompt string, opts Options) (string, error) {
	return p.Invoke(ctx, func(ctx context.Context, c Client) (string, error) {
		return c.GenerateContent(ctx, prompt, opts)
	})
}

// GenerateJSON generates JSON through the pool
func (p *Pool) GenerateJSON(ctx context.Context, prompt string, opts Options) (string, error) {
	return p.Invoke(ctx, func(ctx context.Context, c Client) (string, error) {
		return c.GenerateJSON(ctx, prompt, opts)
	})
}

// GenerateVision sends images through the pool
func (p *Pool) GenerateVision(ctx context.Context, prompt string, images []Image, opts Options) (string, error) {
	return p.Invoke(ctx, func(ctx context.Context, c Client) (string, error) {
		return c.GenerateVision(ctx, prompt, images, opts)
	})
}

// GetModel returns the model configured for a tier
func (p *Pool) GetModel(tier ModelTier) string {
	return p.config.GetModel(tier)
}

// Close closes every client the pool created
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var errs []error
	for idx, c := range p.clients {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(p.clients, idx)
	}
	return errors.Join(errs...)
}
