package llm

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/time/rate"

	"github.com/jonathan/creative-compliance/internal/observability"
)

// KeyPool holds the configured API keys, the index of the key in use, per-key
// failure counts and a request limiter per key.
type KeyPool struct {
	mu       sync.Mutex
	keys     []string
	current  int
	failures []int
	limiters []*rate.Limiter
}

// NewKeyPool creates a pool over keys. rps <= 0 disables rate limiting.
func NewKeyPool(keys []string, rps float64, burst int) *KeyPool {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	if burst < 1 {
		burst = 1
	}
	p := &KeyPool{
		keys:     append([]string(nil), keys...),
		failures: make([]int, len(keys)),
		limiters: make([]*rate.Limiter, len(keys)),
	}
	for i := range keys {
		p.limiters[i] = rate.NewLimiter(limit, burst)
	}
	return p
}

// ParseKeys splits a comma separated key list, falling back to a single key.
// Blank and duplicate entries are dropped.
func ParseKeys(list, single string) []string {
	raw := strings.Split(list, ",")
	if strings.TrimSpace(list) == "" {
		raw = []string{single}
	}
	seen := make(map[string]bool)
	var keys []string
	for _, k := range raw {
		k = strings.TrimSpace(k)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		keys = append(keys, k)
	}
	return keys
}

// Len returns the number of keys
func (p *KeyPool) Len() int {
	return len(p.keys)
}

// Current returns the index and value of the key in use
func (p *KeyPool) Current() (int, string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.keys) == 0 {
		return 0, "", ErrNoKeys
	}
	return p.current, p.keys[p.current], nil
}

// Key returns the key at index i
func (p *KeyPool) Key(i int) string {
	return p.keys[i]
}

// Rotate advances to the next key and returns its index
func (p *KeyPool) Rotate() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.keys) == 0 {
		return 0
	}
	p.current = (p.current + 1) % len(p.keys)
	observability.KeyRotations.Inc()
	return p.current
}

// RecordFailure counts a failed request against key i
func (p *KeyPool) RecordFailure(i int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if i >= 0 && i < len(p.failures) {
		p.failures[i]++
	}
}

// RecordSuccess clears the failure count of key i
func (p *KeyPool) RecordSuccess(i int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if i >= 0 && i < len(p.failures) {
		p.failures[i] = 0
	}
}

// Failures returns the consecutive failure count of key i
func (p *KeyPool) Failures(i int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if i < 0 || i >= len(p.failures) {
		return 0
	}
	return p.failures[i]
}

// Wait blocks until key i may issue another request
func (p *KeyPool) Wait(ctx context.Context, i int) error {
	return p.limiters[i].Wait(ctx)
}
