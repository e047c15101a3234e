package editor

import (
	"sync"
	"time"
)

// Token identifies one run of a long operation. Continuations hold on to it and
// check it before touching the document.
type Token uint64

// ProcessingState is the observable state of the single-flight lock
type ProcessingState struct {
	IsProcessing bool      `json:"is_processing"`
	Operation    string    `json:"operation,omitempty"`
	Progress     float64   `json:"progress"`
	Status       string    `json:"status,omitempty"`
	StartedAt    time.Time `json:"started_at,omitempty"`
	Aborted      bool      `json:"aborted,omitempty"`
}

// Processing allows at most one long operation at a time
type Processing struct {
	mu     sync.Mutex
	state  ProcessingState
	active Token
	next   Token
	now    func() time.Time
}

// NewProcessing creates an idle lock
func NewProcessing() *Processing {
	return &Processing{now: time.Now}
}

// Start claims the lock for an operation. It fails while another operation runs.
func (p *Processing) Start(op, status string) (Token, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state.IsProcessing {
		return 0, false
	}
	p.next++
	p.active = p.next
	p.state = ProcessingState{IsProcessing: true, Operation: op, Status: status, StartedAt: p.now()}
	return p.active, true
}

// Update reports progress in [0,100] for the running operation
func (p *Processing) Update(tok Token, pct float64, status string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.validLocked(tok) {
		return false
	}
	switch {
	case pct < 0:
		pct = 0
	case pct > 100:
		pct = 100
	}
	p.state.Progress = pct
	if status != "" {
		p.state.Status = status
	}
	return true
}

// Clear releases the lock at the end of an operation. A stale token is ignored.
func (p *Processing) Clear(tok Token) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if tok != p.active {
		return
	}
	p.active = 0
	p.state = ProcessingState{}
}

// Abort cancels the running operation and releases the lock. Results that arrive
// later fail Valid and are dropped.
func (p *Processing) Abort() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.state.IsProcessing {
		return false
	}
	p.active = 0
	p.state = ProcessingState{Operation: p.state.Operation, Aborted: true}
	return true
}

// Valid reports whether tok still owns the lock
func (p *Processing) Valid(tok Token) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.validLocked(tok)
}

func (p *Processing) validLocked(tok Token) bool {
	return tok != 0 && tok == p.active && p.state.IsProcessing
}

// State returns a copy of the current state
func (p *Processing) State() ProcessingState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}
