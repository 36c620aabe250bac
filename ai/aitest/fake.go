// Package aitest provides a scriptable ai.Provider for tests.
package aitest

import (
	"context"
	"sync"

	"aura/backend/ai"
)

// Fake replies with Reply (or Err) and records every request
type Fake struct {
	mu    sync.Mutex
	Reply string
	Err   error
	// Hook, if set, runs before the reply is returned and may block
	Hook  func(ctx context.Context, req ai.Request) error
	calls []ai.Request
}

// Name implements ai.Provider
func (f *Fake) Name() string { return "fake" }

// Complete implements ai.Provider
func (f *Fake) Complete(ctx context.Context, req ai.Request) (string, error) {
	f.mu.Lock()
	msgs := append([]ai.Message(nil), req.Messages...)
	req.Messages = msgs
	f.calls = append(f.calls, req)
	reply, err, hook := f.Reply, f.Err, f.Hook
	f.mu.Unlock()

	if hook != nil {
		if hookErr := hook(ctx, req); hookErr != nil {
			return "", hookErr
		}
	}
	if err != nil {
		return "", err
	}
	return reply, nil
}

// Calls returns the recorded requests
func (f *Fake) Calls() []ai.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ai.Request(nil), f.calls...)
}
