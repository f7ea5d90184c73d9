package repository

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/gogotex/widgets/internal/widget"
)

type memoryItem struct {
	widget widget.Widget
	etag   string
}

// MemoryRepo is an in-memory Store used for unit tests and STORE_BACKEND=memory.
type MemoryRepo struct {
	mu    sync.RWMutex
	store map[string]memoryItem

	database  bool
	container bool
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{store: make(map[string]memoryItem)}
}

func (m *MemoryRepo) EnsureDatabase(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	created := !m.database
	m.database = true
	return created, nil
}

func (m *MemoryRepo) EnsureContainer(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	created := !m.container
	m.container = true
	return created, nil
}

func (m *MemoryRepo) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (m *MemoryRepo) List(ctx context.Context) ([]widget.Widget, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]widget.Widget, 0, len(m.store))
	for _, it := range m.store {
		out = append(out, it.widget)
	}
	return out, nil
}

func (m *MemoryRepo) Get(ctx context.Context, id string) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	it, ok := m.store[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &Record{Widget: it.widget, ETag: it.etag}, nil
}

func (m *MemoryRepo) Create(ctx context.Context, w widget.Widget) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[w.ID]; ok {
		return nil, ErrConflict
	}
	it := memoryItem{widget: w, etag: uuid.NewString()}
	m.store[w.ID] = it
	return &Record{Widget: it.widget, ETag: it.etag}, nil
}

func (m *MemoryRepo) Replace(ctx context.Context, w widget.Widget, ifMatch string) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.store[w.ID]
	if !ok {
		return nil, ErrNotFound
	}
	if ifMatch != "" && ifMatch != cur.etag {
		return nil, ErrPreconditionFailed
	}
	it := memoryItem{widget: w, etag: uuid.NewString()}
	m.store[w.ID] = it
	return &Record{Widget: it.widget, ETag: it.etag}, nil
}

func (m *MemoryRepo) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[id]; !ok {
		return ErrNotFound
	}
	delete(m.store, id)
	return nil
}

var _ Store = (*MemoryRepo)(nil)
