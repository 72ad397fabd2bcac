package appclient

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/lenra-io/lenra-cli/internal/domain"
)

// DefaultMemoSize bounds the number of responses a Memo keeps.
const DefaultMemoSize = 256

// Memo wraps an AppCaller so that identical requests made during one run are
// sent once. Errors are not remembered. A Memo is meant to live for a single
// run and be dropped afterwards.
type Memo struct {
	next  domain.AppCaller
	cache *lru.Cache[string, any]

	mu       sync.Mutex
	inflight map[string]*call
}

type call struct {
	done   chan struct{}
	result any
	err    error
}

var _ domain.AppCaller = (*Memo)(nil)

// NewMemo creates a memo holding at most size responses.
func NewMemo(next domain.AppCaller, size int) (*Memo, error) {
	c, err := lru.New[string, any](size)
	if err != nil {
		return nil, fmt.Errorf("creating response memo: %w", err)
	}
	return &Memo{next: next, cache: c, inflight: make(map[string]*call)}, nil
}

// Call returns the remembered response for request, or forwards it. Callers
// asking for the same request concurrently share one forwarded call.
func (m *Memo) Call(ctx context.Context, request any) (any, error) {
	data, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}
	key := string(data)

	if v, ok := m.cache.Get(key); ok {
		return v, nil
	}

	m.mu.Lock()
	// A call for key may have completed since the lookup above.
	if v, ok := m.cache.Get(key); ok {
		m.mu.Unlock()
		return v, nil
	}
	if c, ok := m.inflight[key]; ok {
		m.mu.Unlock()
		select {
		case <-c.done:
			return c.result, c.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	c := &call{done: make(chan struct{})}
	m.inflight[key] = c
	m.mu.Unlock()

	c.result, c.err = m.next.Call(ctx, request)

	m.mu.Lock()
	if c.err == nil {
		m.cache.Add(key, c.result)
	}
	delete(m.inflight, key)
	m.mu.Unlock()
	close(c.done)

	return c.result, c.err
}
