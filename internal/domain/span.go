package domain

import (
	"context"
	"sync"
	"time"
)

// Span times one named stage of a run.
type Span struct {
	Name      string    `json:"name"`
	ElapsedMs *int64    `json:"elapsed"`
	started   time.Time
}

func newSpan(name string) *Span {
	return &Span{Name: name, started: time.Now()}
}

// End is idempotent; the first call fixes the elapsed time.
func (s *Span) End() {
	if s.ElapsedMs != nil {
		return
	}
	ms := time.Since(s.started).Milliseconds()
	s.ElapsedMs = &ms
}

// Profile is the ordered list of stages a request went through.
type Profile struct {
	mu      sync.Mutex
	started time.Time

	Spans   []*Span `json:"spans"`
	TotalMs *int64  `json:"totalMs"`
}

func NewProfile() (*Profile, func()) {
	p := &Profile{
		Spans:   []*Span{},
		started: time.Now(),
	}
	return p, p.End
}

// End closes the open span, if any, and records the total.
func (p *Profile) End() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.TotalMs != nil {
		return
	}
	if n := len(p.Spans); n > 0 {
		p.Spans[n-1].End()
	}
	ms := time.Since(p.started).Milliseconds()
	p.TotalMs = &ms
}

// StartNewSpan closes the current span and opens the next one. Stages are
// sequential, so at most one span is open at a time.
func (p *Profile) StartNewSpan(name string) (*Span, func()) {
	s := newSpan(name)
	p.mu.Lock()
	defer p.mu.Unlock()
	if n := len(p.Spans); n > 0 {
		p.Spans[n-1].End()
	}
	p.Spans = append(p.Spans, s)
	return s, s.End
}

// SpanNames lists the recorded stages in order.
func (p *Profile) SpanNames() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	names := make([]string, len(p.Spans))
	for i, s := range p.Spans {
		names[i] = s.Name
	}
	return names
}

type profileKey struct{}

func NewCtxWithProfile(ctx context.Context, profile *Profile) context.Context {
	return context.WithValue(ctx, profileKey{}, profile)
}

// GetProfile returns the profile carried by ctx. Whoever attached it owns
// its lifetime, so the returned end func is a no-op in that case. Without
// one, a detached profile keeps timing calls unconditional.
func GetProfile(ctx context.Context) (*Profile, func()) {
	if p, ok := ctx.Value(profileKey{}).(*Profile); ok && p != nil {
		return p, func() {}
	}
	return NewProfile()
}
