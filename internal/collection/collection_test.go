package collection

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jomfood/jomdeals/internal/model"
)

// pagesOf builds a fetch function serving fixed pages of strings, with
// has_next wired from position.
func pagesOf(pages ...[]string) FetchFunc[string] {
	return func(_ context.Context, page int) (model.Page[string], error) {
		if page < 1 || page > len(pages) {
			return model.Page[string]{}, fmt.Errorf("no such page %d", page)
		}
		return model.Page[string]{
			Pagination: &model.Pagination{
				CurrentPage: page,
				TotalPages:  len(pages),
				HasNext:     page < len(pages),
			},
			Items: pages[page-1],
		}, nil
	}
}

func TestFetchNext_AppendsInOrder(t *testing.T) {
	coll := New[string]()
	coll.GetOrCreate("deals:a", pagesOf(
		[]string{"a1", "a2"},
		[]string{"b1"},
		[]string{"c1", "c2", "c3"},
	))

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, coll.FetchNext(ctx, "deals:a"))
	}

	assert.Equal(t, 3, coll.PageCount("deals:a"))
	assert.Equal(t, []string{"a1", "a2", "b1", "c1", "c2", "c3"}, coll.Flatten("deals:a"))
}

func TestFetchNext_StopsAtLastPage(t *testing.T) {
	coll := New[string]()
	calls := 0
	coll.GetOrCreate("deals:a", func(_ context.Context, page int) (model.Page[string], error) {
		calls++
		return model.Page[string]{
			Pagination: &model.Pagination{CurrentPage: page, TotalPages: 1, HasNext: false},
			Items:      []string{"only"},
		}, nil
	})

	ctx := context.Background()
	require.NoError(t, coll.FetchNext(ctx, "deals:a"))
	assert.False(t, coll.HasNext("deals:a"))

	// Further calls are no-ops, not refetches.
	require.NoError(t, coll.FetchNext(ctx, "deals:a"))
	require.NoError(t, coll.FetchNext(ctx, "deals:a"))
	assert.Equal(t, 1, calls)
	assert.Equal(t, []string{"only"}, coll.Flatten("deals:a"))
}

func TestFetchNext_UnregisteredKey(t *testing.T) {
	coll := New[string]()
	err := coll.FetchNext(context.Background(), "deals:missing")
	require.Error(t, err)
}

func TestFetchNext_DeduplicatesConcurrentFetches(t *testing.T) {
	coll := New[string]()

	var fetches atomic.Int32
	release := make(chan struct{})
	coll.GetOrCreate("deals:a", func(_ context.Context, page int) (model.Page[string], error) {
		fetches.Add(1)
		<-release
		return model.Page[string]{
			Pagination: &model.Pagination{CurrentPage: page, TotalPages: 2, HasNext: true},
			Items:      []string{"shared"},
		}, nil
	})

	ctx := context.Background()
	started := make(chan struct{})
	go func() {
		close(started)
		_ = coll.FetchNext(ctx, "deals:a")
	}()
	<-started
	// Give the first fetch time to become the in-flight one.
	time.Sleep(20 * time.Millisecond)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, coll.FetchNext(ctx, "deals:a"))
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), fetches.Load(), "concurrent requests for one key share one fetch")
	assert.Equal(t, []string{"shared"}, coll.Flatten("deals:a"))
}

func TestFetchNext_AttachedCallerSeesError(t *testing.T) {
	coll := New[string]()

	fetchErr := errors.New("backend down")
	release := make(chan struct{})
	coll.GetOrCreate("deals:a", func(_ context.Context, _ int) (model.Page[string], error) {
		<-release
		return model.Page[string]{}, fetchErr
	})

	ctx := context.Background()
	go func() {
		_ = coll.FetchNext(ctx, "deals:a")
	}()
	time.Sleep(20 * time.Millisecond)

	done := make(chan error, 1)
	go func() {
		done <- coll.FetchNext(ctx, "deals:a")
	}()
	time.Sleep(20 * time.Millisecond)
	close(release)

	assert.ErrorIs(t, <-done, fetchErr)
	assert.Empty(t, coll.Flatten("deals:a"))
}

func TestFetchNext_FailureKeepsExistingPages(t *testing.T) {
	coll := New[string]()

	calls := 0
	coll.GetOrCreate("deals:a", func(_ context.Context, page int) (model.Page[string], error) {
		calls++
		if calls > 1 {
			return model.Page[string]{}, errors.New("flaky")
		}
		return model.Page[string]{
			Pagination: &model.Pagination{CurrentPage: page, TotalPages: 3, HasNext: true},
			Items:      []string{"kept"},
		}, nil
	})

	ctx := context.Background()
	require.NoError(t, coll.FetchNext(ctx, "deals:a"))
	require.Error(t, coll.FetchNext(ctx, "deals:a"))

	assert.Equal(t, []string{"kept"}, coll.Flatten("deals:a"))
	assert.Equal(t, 1, coll.PageCount("deals:a"))
	assert.True(t, coll.HasNext("deals:a"), "a failed fetch can be retried")
}

func TestInvalidate_DiscardsSupersededResult(t *testing.T) {
	coll := New[string]()

	release := make(chan struct{})
	coll.GetOrCreate("deals:a", func(_ context.Context, page int) (model.Page[string], error) {
		<-release
		return model.Page[string]{
			Pagination: &model.Pagination{CurrentPage: page, TotalPages: 5, HasNext: true},
			Items:      []string{"stale"},
		}, nil
	})

	ctx := context.Background()
	done := make(chan error, 1)
	go func() {
		done <- coll.FetchNext(ctx, "deals:a")
	}()
	time.Sleep(20 * time.Millisecond)

	// Filters changed mid-flight; the old result must not land.
	coll.Invalidate("deals:a")
	close(release)
	require.NoError(t, <-done)

	assert.Empty(t, coll.Flatten("deals:a"))
	assert.Zero(t, coll.PageCount("deals:a"))
	assert.True(t, coll.Stale("deals:a"))
}

func TestInvalidate_RestartsFromPageOne(t *testing.T) {
	coll := New[string]()

	var requested []int
	coll.GetOrCreate("deals:a", func(_ context.Context, page int) (model.Page[string], error) {
		requested = append(requested, page)
		return model.Page[string]{
			Pagination: &model.Pagination{CurrentPage: page, TotalPages: 9, HasNext: true},
			Items:      []string{fmt.Sprintf("p%d", page)},
		}, nil
	})

	ctx := context.Background()
	require.NoError(t, coll.FetchNext(ctx, "deals:a"))
	require.NoError(t, coll.FetchNext(ctx, "deals:a"))
	coll.Invalidate("deals:a")
	require.NoError(t, coll.FetchNext(ctx, "deals:a"))

	assert.Equal(t, []int{1, 2, 1}, requested)
	assert.Equal(t, []string{"p1"}, coll.Flatten("deals:a"))
	assert.False(t, coll.Stale("deals:a"))
}

func TestInvalidatePrefix(t *testing.T) {
	coll := New[string]()
	fetch := pagesOf([]string{"x"})
	coll.GetOrCreate("claims:alice", fetch)
	coll.GetOrCreate("claims:bob", fetch)
	coll.GetOrCreate("deals:a", fetch)

	ctx := context.Background()
	require.NoError(t, coll.FetchNext(ctx, "claims:alice"))
	require.NoError(t, coll.FetchNext(ctx, "claims:bob"))
	require.NoError(t, coll.FetchNext(ctx, "deals:a"))

	hit := coll.InvalidatePrefix("claims:")

	assert.Equal(t, 2, hit)
	assert.Empty(t, coll.Flatten("claims:alice"))
	assert.Empty(t, coll.Flatten("claims:bob"))
	assert.Equal(t, []string{"x"}, coll.Flatten("deals:a"), "other families are untouched")
}

func TestGetOrCreate_KeepsPagesOnReregister(t *testing.T) {
	coll := New[string]()
	coll.GetOrCreate("deals:a", pagesOf([]string{"first"}, []string{"second"}))

	ctx := context.Background()
	require.NoError(t, coll.FetchNext(ctx, "deals:a"))

	// A refreshed request context replaces the fetch fn, not the cache.
	coll.GetOrCreate("deals:a", pagesOf([]string{"replaced"}, []string{"second"}))
	require.NoError(t, coll.FetchNext(ctx, "deals:a"))

	assert.Equal(t, []string{"first", "second"}, coll.Flatten("deals:a"))
}
