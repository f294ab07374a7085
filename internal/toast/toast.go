package toast

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/linarqa/linarqa-web/pkg/logger"
	"github.com/linarqa/linarqa-web/pkg/storage"
)

// StorageKey holds the toasts waiting for the next rendered page.
const StorageKey = "toasts"

// maxQueued bounds the queue when pages are never rendered (e.g. API clients
// following redirects without HTML).
const maxQueued = 10

type Variant string

const (
	VariantDefault     Variant = "default"
	VariantDestructive Variant = "destructive"
)

// Toast is a transient message. Title and Description are catalog keys or
// literal text; Params fill the key's placeholders.
type Toast struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Params      []string `json:"params,omitempty"`
	Variant     Variant  `json:"variant"`
}

// Queue is one browser's pending toasts.
type Queue struct {
	mu    sync.Mutex
	local *storage.Local
	logg  *logger.Logger
}

func NewQueue(local *storage.Local, logg *logger.Logger) *Queue {
	if logg == nil {
		logg = logger.Nop()
	}
	return &Queue{local: local, logg: logg}
}

// Push appends t. Storage failures are logged, never returned: a lost toast
// must not fail the request that produced it.
func (q *Queue) Push(ctx context.Context, t Toast) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Variant == "" {
		t.Variant = VariantDefault
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	pending, err := q.load(ctx)
	if err != nil {
		q.logg.Error(ctx, "toast.load_failed", err)
	}
	pending = append(pending, t)
	if len(pending) > maxQueued {
		pending = pending[len(pending)-maxQueued:]
	}
	if err := q.local.SetJSON(ctx, StorageKey, pending); err != nil {
		q.logg.Error(ctx, "toast.persist_failed", err)
	}
}

// Notify queues a default toast.
func (q *Queue) Notify(ctx context.Context, title, description string, params ...string) {
	q.Push(ctx, Toast{Title: title, Description: description, Params: params})
}

func (q *Queue) Success(ctx context.Context, title string, params ...string) {
	q.Push(ctx, Toast{Title: title, Params: params})
}

// Error queues a destructive toast whose description is msg.
func (q *Queue) Error(ctx context.Context, title, msg string) {
	q.Push(ctx, Toast{Title: title, Description: msg, Variant: VariantDestructive})
}

// Drain returns the pending toasts and empties the queue.
func (q *Queue) Drain(ctx context.Context) []Toast {
	q.mu.Lock()
	defer q.mu.Unlock()
	pending, err := q.load(ctx)
	if err != nil {
		q.logg.Error(ctx, "toast.load_failed", err)
	}
	if len(pending) == 0 {
		return nil
	}
	if err := q.local.RemoveItem(ctx, StorageKey); err != nil {
		q.logg.Error(ctx, "toast.clear_failed", err)
	}
	return pending
}

func (q *Queue) load(ctx context.Context) ([]Toast, error) {
	var pending []Toast
	if _, err := q.local.GetJSON(ctx, StorageKey, &pending); err != nil {
		return nil, err
	}
	return pending, nil
}
