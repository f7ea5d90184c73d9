package service

import (
	"context"
	"errors"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/google/uuid"

	"github.com/gogotex/widgets/internal/widget"
	"github.com/gogotex/widgets/internal/widget/repository"
	"github.com/gogotex/widgets/pkg/metrics"
)

// Service defines the widget operations used by the handler layer. Every
// returned error is a *widget.Error.
type Service interface {
	List(ctx context.Context) ([]widget.Widget, error)
	Read(ctx context.Context, id string) (widget.Widget, error)
	Create(ctx context.Context, weight int, color string) (widget.Widget, error)
	Update(ctx context.Context, id string, weight int, color string) (widget.Widget, error)
	Delete(ctx context.Context, id string) error
}

// Widgets implements Service on top of a document store. It holds no lock
// and no cache; atomicity is per document and comes from the store.
type Widgets struct {
	repo   repository.Repository
	logger log.Logger
	opts   options
}

// NewWidgets creates the widget service. The repository handle is shared and
// never mutated.
func NewWidgets(l log.Logger, repo repository.Repository, opts ...Option) *Widgets {
	o := options{
		updateMode:    UpdateOptimistic,
		updateRetries: DefaultUpdateRetries,
		newID:         uuid.NewString,
	}
	for _, opt := range opts {
		opt.apply(&o)
	}
	if l == nil {
		l = log.NewNopLogger()
	}
	return &Widgets{repo: repo, logger: log.With(l, "component", "widgets"), opts: o}
}

var _ Service = (*Widgets)(nil)

func validateColor(color string) error {
	if !widget.ValidColor(color) {
		return widget.Validation("Color must be '%s' or '%s'", widget.ColorRed, widget.ColorBlue)
	}
	return nil
}

// observe records the outcome of op and passes err through.
func observe(op string, err error) error {
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, widget.ErrValidation):
		outcome = "validation"
	case errors.Is(err, widget.ErrNotFound):
		outcome = "not_found"
	default:
		outcome = "internal"
	}
	metrics.WidgetOperations.WithLabelValues(op, outcome).Inc()
	return err
}

func (s *Widgets) List(ctx context.Context) ([]widget.Widget, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		level.Error(s.logger).Log("msg", "error listing widgets", "op", "list", "err", err)
		return nil, observe("list", widget.Internal("Failed to retrieve widgets from database"))
	}
	return list, observe("list", nil)
}

func (s *Widgets) Read(ctx context.Context, id string) (widget.Widget, error) {
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			level.Warn(s.logger).Log("msg", "widget not found", "op", "read", "id", id)
			return widget.Widget{}, observe("read", widget.NotFound(id))
		}
		level.Error(s.logger).Log("msg", "error reading widget", "op", "read", "id", id, "err", err)
		return widget.Widget{}, observe("read", widget.Internal("Failed to retrieve widget from database"))
	}
	return rec.Widget, observe("read", nil)
}

func (s *Widgets) Create(ctx context.Context, weight int, color string) (widget.Widget, error) {
	if err := validateColor(color); err != nil {
		return widget.Widget{}, observe("create", err)
	}
	w := widget.Widget{ID: s.opts.newID(), Weight: weight, Color: color}
	rec, err := s.repo.Create(ctx, w)
	if err != nil {
		level.Error(s.logger).Log("msg", "error creating widget", "op", "create", "id", w.ID, "err", err)
		return widget.Widget{}, observe("create", widget.Internal("Failed to create widget in database"))
	}
	level.Info(s.logger).Log("msg", "created widget", "id", rec.Widget.ID)
	return rec.Widget, observe("create", nil)
}

// Update reads the current document, sets weight and color, and replaces it.
// In optimistic mode the replace is conditional on the etag that was read and
// an etag mismatch starts over with a fresh read, up to the retry budget.
func (s *Widgets) Update(ctx context.Context, id string, weight int, color string) (widget.Widget, error) {
	if err := validateColor(color); err != nil {
		return widget.Widget{}, observe("update", err)
	}
	attempts := 1
	if s.opts.updateMode == UpdateOptimistic {
		attempts = s.opts.updateRetries
	}
	for attempt := 1; ; attempt++ {
		w, err := s.updateOnce(ctx, id, weight, color)
		if err == nil {
			level.Info(s.logger).Log("msg", "updated widget", "id", id, "attempt", attempt)
			return w, observe("update", nil)
		}
		if errors.Is(err, repository.ErrNotFound) {
			level.Warn(s.logger).Log("msg", "widget not found for update", "op", "update", "id", id)
			return widget.Widget{}, observe("update", widget.NotFound(id))
		}
		if errors.Is(err, repository.ErrPreconditionFailed) && attempt < attempts {
			level.Debug(s.logger).Log("msg", "etag mismatch, retrying update", "id", id, "attempt", attempt)
			metrics.UpdateRetries.Inc()
			continue
		}
		level.Error(s.logger).Log("msg", "error updating widget", "op", "update", "id", id, "attempt", attempt, "err", err)
		return widget.Widget{}, observe("update", widget.Internal("Failed to update widget in database"))
	}
}

func (s *Widgets) updateOnce(ctx context.Context, id string, weight int, color string) (widget.Widget, error) {
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return widget.Widget{}, err
	}
	w := rec.Widget
	w.Weight = weight
	w.Color = color

	ifMatch := rec.ETag
	if s.opts.updateMode == UpdateLastWriteWins {
		ifMatch = ""
	}
	updated, err := s.repo.Replace(ctx, w, ifMatch)
	if err != nil {
		return widget.Widget{}, err
	}
	return updated.Widget, nil
}

func (s *Widgets) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			level.Warn(s.logger).Log("msg", "widget not found for deletion", "op", "delete", "id", id)
			return observe("delete", widget.NotFound(id))
		}
		level.Error(s.logger).Log("msg", "error deleting widget", "op", "delete", "id", id, "err", err)
		return observe("delete", widget.Internal("Failed to delete widget from database"))
	}
	level.Info(s.logger).Log("msg", "deleted widget", "id", id)
	return observe("delete", nil)
}
