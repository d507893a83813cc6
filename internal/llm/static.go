package llm

import (
	"context"
	"sync"
)

// Static returns the same result for every request and remembers what it
// was asked. It backs --offline mode and tests.
type Static struct {
	Text string
	Err  error

	mu       sync.Mutex
	requests []Request
}

// Offline returns a generator that always fails with ErrOffline, so every
// caller falls back to its canned text.
func Offline() *Static {
	return &Static{Err: ErrOffline}
}

func (s *Static) Name() string { return "offline" }

func (s *Static) Generate(ctx context.Context, req Request) Result {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return Result{Err: err}
	}
	if s.Err != nil {
		return Result{Err: s.Err}
	}
	return Result{Text: s.Text}
}

// Requests returns the requests seen so far.
func (s *Static) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// Last returns the most recent request.
func (s *Static) Last() (Request, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return Request{}, false
	}
	return s.requests[len(s.requests)-1], true
}
