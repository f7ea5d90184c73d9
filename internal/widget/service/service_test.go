package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/gogotex/widgets/internal/widget"
	"github.com/gogotex/widgets/internal/widget/repository"
	"github.com/gogotex/widgets/pkg/metrics"
)

// recordingRepo wraps a MemoryRepo, counts calls and can inject failures.
type recordingRepo struct {
	*repository.MemoryRepo

	mu        sync.Mutex
	calls     int
	ifMatches []string
	// staleReplaces makes the next N conditional replaces fail as if another
	// writer got there first.
	staleReplaces int
	fail          error
}

func newRecordingRepo() *recordingRepo {
	return &recordingRepo{MemoryRepo: repository.NewMemoryRepo()}
}

func (r *recordingRepo) hit() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	return r.fail
}

func (r *recordingRepo) List(ctx context.Context) ([]widget.Widget, error) {
	if err := r.hit(); err != nil {
		return nil, err
	}
	return r.MemoryRepo.List(ctx)
}

func (r *recordingRepo) Get(ctx context.Context, id string) (*repository.Record, error) {
	if err := r.hit(); err != nil {
		return nil, err
	}
	return r.MemoryRepo.Get(ctx, id)
}

func (r *recordingRepo) Create(ctx context.Context, w widget.Widget) (*repository.Record, error) {
	if err := r.hit(); err != nil {
		return nil, err
	}
	return r.MemoryRepo.Create(ctx, w)
}

func (r *recordingRepo) Replace(ctx context.Context, w widget.Widget, ifMatch string) (*repository.Record, error) {
	if err := r.hit(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.ifMatches = append(r.ifMatches, ifMatch)
	stale := ifMatch != "" && r.staleReplaces > 0
	if stale {
		r.staleReplaces--
	}
	r.mu.Unlock()
	if stale {
		return nil, repository.ErrPreconditionFailed
	}
	return r.MemoryRepo.Replace(ctx, w, ifMatch)
}

func (r *recordingRepo) Delete(ctx context.Context, id string) error {
	if err := r.hit(); err != nil {
		return err
	}
	return r.MemoryRepo.Delete(ctx, id)
}

func (r *recordingRepo) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func TestWidgets_CreateRead(t *testing.T) {
	ctx := context.Background()
	svc := NewWidgets(nil, newRecordingRepo())

	created, err := svc.Create(ctx, 5, "red")
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.Equal(t, 5, created.Weight)
	require.Equal(t, "red", created.Color)

	got, err := svc.Read(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created, got)
}

func TestWidgets_CreateMintsFreshIDs(t *testing.T) {
	ctx := context.Background()
	svc := NewWidgets(nil, newRecordingRepo())

	a, err := svc.Create(ctx, 1, "red")
	require.NoError(t, err)
	b, err := svc.Create(ctx, 1, "red")
	require.NoError(t, err)
	require.NotEqual(t, a.ID, b.ID)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
}

func TestWidgets_InvalidColorNeverTouchesStore(t *testing.T) {
	ctx := context.Background()
	repo := newRecordingRepo()
	svc := NewWidgets(nil, repo)

	for _, color := range []string{"green", "", "Red", "BLUE"} {
		_, err := svc.Create(ctx, 3, color)
		require.ErrorIs(t, err, widget.ErrValidation, color)

		_, err = svc.Update(ctx, "whatever", 3, color)
		require.ErrorIs(t, err, widget.ErrValidation, color)
	}
	require.Zero(t, repo.callCount())

	var we *widget.Error
	_, err := svc.Create(ctx, 3, "green")
	require.True(t, errors.As(err, &we))
	require.Equal(t, 400, we.Code)
	require.Equal(t, "Color must be 'red' or 'blue'", we.Message)
}

func TestWidgets_UnknownIDIsNotFound(t *testing.T) {
	ctx := context.Background()
	svc := NewWidgets(nil, newRecordingRepo())

	_, err := svc.Read(ctx, "missing")
	require.ErrorIs(t, err, widget.ErrNotFound)
	require.Equal(t, "404: Widget with ID 'missing' not found", err.Error())

	_, err = svc.Update(ctx, "missing", 1, "blue")
	require.ErrorIs(t, err, widget.ErrNotFound)

	err = svc.Delete(ctx, "missing")
	require.ErrorIs(t, err, widget.ErrNotFound)
}

func TestWidgets_UpdateMergesFields(t *testing.T) {
	ctx := context.Background()
	svc := NewWidgets(nil, newRecordingRepo())

	w, err := svc.Create(ctx, 5, "red")
	require.NoError(t, err)

	u, err := svc.Update(ctx, w.ID, 9, "blue")
	require.NoError(t, err)
	require.Equal(t, widget.Widget{ID: w.ID, Weight: 9, Color: "blue"}, u)

	got, err := svc.Read(ctx, w.ID)
	require.NoError(t, err)
	require.Equal(t, u, got)
}

func TestWidgets_DeleteThenMissing(t *testing.T) {
	ctx := context.Background()
	svc := NewWidgets(nil, newRecordingRepo())

	w, err := svc.Create(ctx, 5, "blue")
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, w.ID))

	_, err = svc.Read(ctx, w.ID)
	require.ErrorIs(t, err, widget.ErrNotFound)
	require.ErrorIs(t, svc.Delete(ctx, w.ID), widget.ErrNotFound)
}

func TestWidgets_Lifecycle(t *testing.T) {
	ctx := context.Background()
	svc := NewWidgets(nil, newRecordingRepo())

	w, err := svc.Create(ctx, 5, "red")
	require.NoError(t, err)

	got, err := svc.Read(ctx, w.ID)
	require.NoError(t, err)
	require.Equal(t, widget.Widget{ID: w.ID, Weight: 5, Color: "red"}, got)

	u, err := svc.Update(ctx, w.ID, 7, "blue")
	require.NoError(t, err)
	require.Equal(t, widget.Widget{ID: w.ID, Weight: 7, Color: "blue"}, u)

	require.NoError(t, svc.Delete(ctx, w.ID))
	_, err = svc.Read(ctx, w.ID)
	require.ErrorIs(t, err, widget.ErrNotFound)
}

func TestWidgets_RejectedColorNotListed(t *testing.T) {
	ctx := context.Background()
	svc := NewWidgets(nil, newRecordingRepo())

	_, err := svc.Create(ctx, 1, "green")
	require.ErrorIs(t, err, widget.ErrValidation)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	for _, w := range list {
		require.NotEqual(t, "green", w.Color)
	}
}

func TestWidgets_StoreFailureIsInternal(t *testing.T) {
	ctx := context.Background()
	repo := newRecordingRepo()
	w, err := NewWidgets(nil, repo).Create(ctx, 1, "red")
	require.NoError(t, err)

	repo.fail = errors.New("connection reset by peer")
	svc := NewWidgets(nil, repo)

	_, err = svc.List(ctx)
	require.ErrorIs(t, err, widget.ErrInternal)
	_, err = svc.Read(ctx, w.ID)
	require.ErrorIs(t, err, widget.ErrInternal)
	_, err = svc.Create(ctx, 1, "red")
	require.ErrorIs(t, err, widget.ErrInternal)
	_, err = svc.Update(ctx, w.ID, 1, "red")
	require.ErrorIs(t, err, widget.ErrInternal)
	err = svc.Delete(ctx, w.ID)
	require.ErrorIs(t, err, widget.ErrInternal)

	// the store error must not leak
	require.NotContains(t, err.Error(), "connection reset")
	require.NotErrorIs(t, err, repo.fail)
}

func TestWidgets_DuplicateIDIsInternal(t *testing.T) {
	ctx := context.Background()
	svc := NewWidgets(nil, newRecordingRepo(), WithIDGenerator(func() string { return "fixed" }))

	_, err := svc.Create(ctx, 1, "red")
	require.NoError(t, err)
	_, err = svc.Create(ctx, 2, "blue")
	require.ErrorIs(t, err, widget.ErrInternal)
}

func TestWidgets_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc := NewWidgets(nil, newRecordingRepo())

	_, err := svc.List(ctx)
	require.ErrorIs(t, err, widget.ErrInternal)
	_, err = svc.Create(ctx, 1, "red")
	require.ErrorIs(t, err, widget.ErrInternal)
}

func TestWidgets_OptimisticUpdateRetries(t *testing.T) {
	ctx := context.Background()
	repo := newRecordingRepo()
	svc := NewWidgets(nil, repo, WithUpdateRetries(3))

	w, err := svc.Create(ctx, 1, "red")
	require.NoError(t, err)

	before := testutil.ToFloat64(metrics.UpdateRetries)
	repo.staleReplaces = 2
	u, err := svc.Update(ctx, w.ID, 2, "blue")
	require.NoError(t, err)
	require.Equal(t, 2, u.Weight)
	require.Equal(t, 2.0, testutil.ToFloat64(metrics.UpdateRetries)-before)

	require.Len(t, repo.ifMatches, 3)
	for _, m := range repo.ifMatches {
		require.NotEmpty(t, m)
	}
}

func TestWidgets_OptimisticUpdateGivesUp(t *testing.T) {
	ctx := context.Background()
	repo := newRecordingRepo()
	svc := NewWidgets(nil, repo, WithUpdateRetries(2))

	w, err := svc.Create(ctx, 1, "red")
	require.NoError(t, err)

	repo.staleReplaces = 5
	_, err = svc.Update(ctx, w.ID, 2, "blue")
	require.ErrorIs(t, err, widget.ErrInternal)
	require.Len(t, repo.ifMatches, 2)

	got, err := svc.Read(ctx, w.ID)
	require.NoError(t, err)
	require.Equal(t, w, got)
}

func TestWidgets_LastWriteWinsReplacesUnconditionally(t *testing.T) {
	ctx := context.Background()
	repo := newRecordingRepo()
	svc := NewWidgets(nil, repo, WithUpdateMode(UpdateLastWriteWins))

	w, err := svc.Create(ctx, 1, "red")
	require.NoError(t, err)

	repo.staleReplaces = 1
	_, err = svc.Update(ctx, w.ID, 4, "blue")
	require.NoError(t, err)
	require.Equal(t, []string{""}, repo.ifMatches)
}

func TestWidgets_ConcurrentUpdatesAllLand(t *testing.T) {
	ctx := context.Background()
	svc := NewWidgets(nil, newRecordingRepo(), WithUpdateRetries(50))

	w, err := svc.Create(ctx, 0, "red")
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 1; i <= 10; i++ {
		wg.Add(1)
		go func(weight int) {
			defer wg.Done()
			_, err := svc.Update(ctx, w.ID, weight, "blue")
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, err := svc.Read(ctx, w.ID)
	require.NoError(t, err)
	require.Equal(t, "blue", got.Color)
	require.GreaterOrEqual(t, got.Weight, 1)
}

func TestWidgets_OperationMetrics(t *testing.T) {
	ctx := context.Background()
	svc := NewWidgets(nil, newRecordingRepo())

	ok := metrics.WidgetOperations.WithLabelValues("read", "not_found")
	before := testutil.ToFloat64(ok)
	_, err := svc.Read(ctx, "nope")
	require.Error(t, err)
	require.Equal(t, 1.0, testutil.ToFloat64(ok)-before)

	val := metrics.WidgetOperations.WithLabelValues("create", "validation")
	before = testutil.ToFloat64(val)
	_, err = svc.Create(ctx, 1, "green")
	require.Error(t, err)
	require.Equal(t, 1.0, testutil.ToFloat64(val)-before)
}

func TestParseUpdateMode(t *testing.T) {
	m, ok := ParseUpdateMode("")
	require.True(t, ok)
	require.Equal(t, UpdateOptimistic, m)

	m, ok = ParseUpdateMode("last-write-wins")
	require.True(t, ok)
	require.Equal(t, UpdateLastWriteWins, m)

	_, ok = ParseUpdateMode("whatever")
	require.False(t, ok)
}
