// Package repository holds the document store adapters behind the widget
// service: Azure Cosmos DB, MongoDB and an in-memory store for tests and
// local runs. Adapters speak in terms of records and ETags; translating their
// outcomes into widget errors is the service's job.
package repository

import (
	"context"
	"errors"

	"github.com/gogotex/widgets/internal/widget"
)

var (
	ErrNotFound           = errors.New("document not found")
	ErrPreconditionFailed = errors.New("document etag mismatch")
	ErrConflict           = errors.New("document already exists")
)

// Record is a stored widget together with the store's concurrency token.
type Record struct {
	Widget widget.Widget
	ETag   string
}

// Repository is the point-read/write and scan surface of a document store.
// Every document is addressed by partition key == id.
type Repository interface {
	// List drains the unfiltered scan of the container, all pages.
	List(ctx context.Context) ([]widget.Widget, error)
	Get(ctx context.Context, id string) (*Record, error)
	// Create fails with ErrConflict when the id is taken.
	Create(ctx context.Context, w widget.Widget) (*Record, error)
	// Replace overwrites the document. A non-empty ifMatch makes the write
	// conditional and yields ErrPreconditionFailed on a stale token.
	Replace(ctx context.Context, w widget.Widget, ifMatch string) (*Record, error)
	Delete(ctx context.Context, id string) error
}

// Provisioner creates the database and container a Repository works against.
// Both calls are idempotent; created reports whether the call made the
// resource.
type Provisioner interface {
	EnsureDatabase(ctx context.Context) (created bool, err error)
	EnsureContainer(ctx context.Context) (created bool, err error)
}

// Pinger is implemented by stores that can report reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Store is what the service wiring needs from a backend.
type Store interface {
	Repository
	Provisioner
	Pinger
}
