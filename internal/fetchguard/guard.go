// Package fetchguard orders overlapping page fetches. Each fetch for a key
// gets a generation; starting a newer one cancels the older, and results of a
// superseded fetch are reported stale instead of being rendered.
package fetchguard

import (
	"context"
	"errors"
	"sync"
)

// ErrStale is returned for a fetch that a newer fetch of the same key replaced.
var ErrStale = errors.New("fetch superseded by a newer request")

type entry struct {
	gen    uint64
	cancel context.CancelFunc
}

type Guard struct {
	mu      sync.Mutex
	entries map[string]*entry
	next    uint64
}

func New() *Guard {
	return &Guard{entries: make(map[string]*entry)}
}

// Ticket identifies one fetch.
type Ticket struct {
	g      *Guard
	key    string
	gen    uint64
	cancel context.CancelFunc
}

// Key scopes a page fetch to one browser session.
func Key(sessionID, page string) string {
	return sessionID + "|" + page
}

// Begin registers a new fetch for key, cancelling the one in flight.
func (g *Guard) Begin(parent context.Context, key string) (context.Context, *Ticket) {
	ctx, cancel := context.WithCancel(parent)

	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	if prev, ok := g.entries[key]; ok {
		prev.cancel()
	}
	g.entries[key] = &entry{gen: g.next, cancel: cancel}
	return ctx, &Ticket{g: g, key: key, gen: g.next, cancel: cancel}
}

// Current reports whether no newer fetch for the key has begun.
func (t *Ticket) Current() bool {
	t.g.mu.Lock()
	defer t.g.mu.Unlock()
	e, ok := t.g.entries[t.key]
	return ok && e.gen == t.gen
}

// Done releases the fetch's context.
func (t *Ticket) Done() {
	t.cancel()
	t.g.mu.Lock()
	defer t.g.mu.Unlock()
	if e, ok := t.g.entries[t.key]; ok && e.gen == t.gen {
		delete(t.g.entries, t.key)
	}
}

// InFlight is the number of keys with a running fetch.
func (g *Guard) InFlight() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.entries)
}

// Run executes fetch under a new generation for key. When a newer fetch
// begins first, the result is dropped and ErrStale returned.
func Run[T any](ctx context.Context, g *Guard, key string, fetch func(context.Context) (T, error)) (T, error) {
	var zero T
	if g == nil {
		return fetch(ctx)
	}
	fctx, ticket := g.Begin(ctx, key)
	defer ticket.Done()

	out, err := fetch(fctx)
	if !ticket.Current() {
		return zero, ErrStale
	}
	if err != nil {
		return zero, err
	}
	return out, nil
}
