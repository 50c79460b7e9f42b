// Bookshelf - Book Catalog and Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package recommend

import (
	"context"
	"errors"
	"math"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/bookshelf/internal/models"
)

// mockStore implements SnapshotSource and CatalogSource.
type mockStore struct {
	snapshot    Snapshot
	averages    []ItemAverage
	snapshotErr error
	averagesErr error

	snapshotCalls atomic.Int32
	hydrated      [][]int64
}

func (m *mockStore) RecommendationSnapshot(_ context.Context) (Snapshot, error) {
	m.snapshotCalls.Add(1)
	if m.snapshotErr != nil {
		return Snapshot{}, m.snapshotErr
	}
	return m.snapshot, nil
}

func (m *mockStore) BookAverages(_ context.Context) ([]ItemAverage, error) {
	if m.averagesErr != nil {
		return nil, m.averagesErr
	}
	return m.averages, nil
}

func (m *mockStore) GetBooksByIDs(_ context.Context, ids []int64) ([]models.Book, error) {
	m.hydrated = append(m.hydrated, append([]int64(nil), ids...))
	books := make([]models.Book, len(ids))
	for i, id := range ids {
		books[i] = models.Book{ID: id}
	}
	return books, nil
}

func newTestService(store *mockStore, cfg ServiceConfig) *Service {
	return NewService(NewEngine(zerolog.Nop()), store, store, cfg, zerolog.Nop())
}

func bookIDs(books []models.Book) []int64 {
	out := make([]int64, len(books))
	for i, b := range books {
		out[i] = b.ID
	}
	return out
}

func TestService_Collaborative(t *testing.T) {
	store := &mockStore{snapshot: threeUserSnapshot()}
	svc := newTestService(store, ServiceConfig{Neighbors: 10})

	resp, err := svc.Recommend(context.Background(), 3, 0, 10)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if resp.Outcome != OutcomeCollaborative {
		t.Fatalf("Outcome = %s, want collaborative", resp.Outcome)
	}
	if got := bookIDs(resp.Books); !reflect.DeepEqual(got, []int64{6, 7, 8}) {
		t.Errorf("books = %v, want [6 7 8]", got)
	}
}

func TestService_Pagination(t *testing.T) {
	store := &mockStore{snapshot: threeUserSnapshot()}
	svc := newTestService(store, ServiceConfig{Neighbors: 10})

	tests := []struct {
		skip, limit int
		want        []int64
	}{
		{0, 2, []int64{6, 7}},
		{2, 2, []int64{8}},
		{3, 2, []int64{}},
		{10, 5, []int64{}},
	}
	for _, tt := range tests {
		resp, err := svc.Recommend(context.Background(), 3, tt.skip, tt.limit)
		if err != nil {
			t.Fatalf("skip=%d limit=%d: error = %v", tt.skip, tt.limit, err)
		}
		if got := bookIDs(resp.Books); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("skip=%d limit=%d: books = %v, want %v", tt.skip, tt.limit, got, tt.want)
		}
	}
}

func TestService_FallbackPages(t *testing.T) {
	var averages []ItemAverage
	for id := int64(1); id <= 30; id++ {
		averages = append(averages, ItemAverage{ItemID: id})
	}
	store := &mockStore{
		snapshot: Snapshot{UserIDs: []int64{1}, ItemIDs: ids(1, 30)},
		averages: averages,
	}
	svc := newTestService(store, ServiceConfig{Neighbors: 10})

	first, err := svc.Recommend(context.Background(), 1, 0, 10)
	if err != nil {
		t.Fatalf("first page error = %v", err)
	}
	second, err := svc.Recommend(context.Background(), 1, 10, 10)
	if err != nil {
		t.Fatalf("second page error = %v", err)
	}

	if first.Outcome != OutcomeFallback || first.Reason != ReasonNoObservations {
		t.Errorf("outcome = %s/%s, want fallback/no_observations", first.Outcome, first.Reason)
	}
	if got := bookIDs(first.Books); got[0] != 30 || len(got) != 10 {
		t.Errorf("first page = %v, want newest first, 10 books", got)
	}
	seen := map[int64]bool{}
	for _, b := range first.Books {
		seen[b.ID] = true
	}
	for _, b := range second.Books {
		if seen[b.ID] {
			t.Errorf("book %d appears on both pages", b.ID)
		}
	}
}

func TestService_FallbackExcludesRatedBooks(t *testing.T) {
	store := &mockStore{
		snapshot: Snapshot{
			UserIDs: []int64{1, 2},
			ItemIDs: ids(1, 10),
			Observations: append(rateRange(1, 1, 10, 1),
				Observation{UserID: 2, ItemID: 1, Score: 3}),
		},
		averages: []ItemAverage{{ItemID: 1, Average: 2}, {ItemID: 2, Average: 1}, {ItemID: 3, Average: 1}},
	}
	svc := newTestService(store, ServiceConfig{Neighbors: 10})

	resp, err := svc.Recommend(context.Background(), 2, 0, 10)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	for _, b := range resp.Books {
		if b.ID == 1 {
			t.Error("fallback returned a book the user already rated")
		}
	}
}

func TestService_UnknownUser(t *testing.T) {
	svc := newTestService(&mockStore{snapshot: threeUserSnapshot()}, ServiceConfig{Neighbors: 10})
	_, err := svc.Recommend(context.Background(), 42, 0, 10)
	if !errors.Is(err, ErrUnknownUser) {
		t.Errorf("error = %v, want ErrUnknownUser", err)
	}
}

func TestService_BreakerOpensOnStorageFailures(t *testing.T) {
	store := &mockStore{snapshotErr: errors.New("io error")}
	svc := newTestService(store, ServiceConfig{
		Neighbors:          10,
		BreakerMaxFailures: 2,
		BreakerTimeout:     time.Minute,
	})

	for i := 0; i < 2; i++ {
		_, err := svc.Recommend(context.Background(), 1, 0, 10)
		if !errors.Is(err, ErrCatalogUnavailable) {
			t.Fatalf("attempt %d: error = %v, want ErrCatalogUnavailable", i, err)
		}
	}
	if got := svc.BreakerState(); got != "open" {
		t.Fatalf("BreakerState() = %q, want open", got)
	}

	calls := store.snapshotCalls.Load()
	_, err := svc.Recommend(context.Background(), 1, 0, 10)
	if !errors.Is(err, ErrCatalogUnavailable) {
		t.Errorf("open breaker: error = %v, want ErrCatalogUnavailable", err)
	}
	if store.snapshotCalls.Load() != calls {
		t.Error("open breaker should not call storage")
	}
}

func TestService_CanceledContextDoesNotTripBreaker(t *testing.T) {
	store := &mockStore{snapshotErr: context.Canceled}
	svc := newTestService(store, ServiceConfig{Neighbors: 10, BreakerMaxFailures: 1})

	for i := 0; i < 3; i++ {
		if _, err := svc.Recommend(context.Background(), 1, 0, 10); err == nil {
			t.Fatal("expected error")
		}
	}
	if got := svc.BreakerState(); got != "closed" {
		t.Errorf("BreakerState() = %q, want closed", got)
	}
}

func TestService_ZeroLimit(t *testing.T) {
	store := &mockStore{snapshot: threeUserSnapshot()}
	resp, err := newTestService(store, ServiceConfig{}).Recommend(context.Background(), 3, 0, 0)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if len(resp.Books) != 0 || store.snapshotCalls.Load() != 0 {
		t.Errorf("limit 0 should return nothing without loading the snapshot")
	}
}

func TestService_SnapshotCache(t *testing.T) {
	store := &mockStore{snapshot: threeUserSnapshot()}
	svc := newTestService(store, ServiceConfig{Neighbors: 10, SnapshotTTL: time.Minute})
	ctx := context.Background()

	tests := []struct {
		name      string
		before    func()
		wantCalls int32
	}{
		{"first request loads", func() {}, 1},
		{"second request is cached", func() {}, 1},
		{"invalidate reloads", svc.Invalidate, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.before()
			if _, err := svc.Recommend(ctx, 3, 0, 10); err != nil {
				t.Fatalf("Recommend() error = %v", err)
			}
			if got := store.snapshotCalls.Load(); got != tt.wantCalls {
				t.Errorf("snapshot loads = %d, want %d", got, tt.wantCalls)
			}
		})
	}

	if n, err := svc.Cleanup(ctx); err != nil || n != 0 {
		t.Errorf("Cleanup() = %d, %v; live entries should stay", n, err)
	}
}

func TestService_SnapshotErrorsNotCached(t *testing.T) {
	store := &mockStore{snapshotErr: errors.New("io error")}
	svc := newTestService(store, ServiceConfig{Neighbors: 10, SnapshotTTL: time.Minute, BreakerMaxFailures: 10})

	if _, err := svc.Recommend(context.Background(), 3, 0, 10); err == nil {
		t.Fatal("expected error")
	}
	store.snapshotErr = nil
	store.snapshot = threeUserSnapshot()
	if _, err := svc.Recommend(context.Background(), 3, 0, 10); err != nil {
		t.Fatalf("Recommend() after recovery error = %v", err)
	}
}

func TestPaginate(t *testing.T) {
	in := []int64{1, 2, 3, 4, 5}
	if got := paginate(in, 1, 2); !reflect.DeepEqual(got, []int64{2, 3}) {
		t.Errorf("paginate(1, 2) = %v", got)
	}
	if got := paginate(in, 4, 10); !reflect.DeepEqual(got, []int64{5}) {
		t.Errorf("paginate(4, 10) = %v", got)
	}
	if got := paginate(in, 5, 1); got != nil {
		t.Errorf("paginate(5, 1) = %v, want nil", got)
	}
	if got := paginate(in, 3, math.MaxInt); !reflect.DeepEqual(got, []int64{4, 5}) {
		t.Errorf("paginate(3, MaxInt) = %v", got)
	}
}

func TestRankWindow(t *testing.T) {
	tests := []struct {
		skip, limit, want int
	}{
		{0, 10, 10},
		{20, 10, 30},
		{math.MaxInt - 10, 10, math.MaxInt},
		{math.MaxInt - 5, 10, math.MaxInt},
		{math.MaxInt, 1, math.MaxInt},
	}
	for _, tt := range tests {
		if got := rankWindow(tt.skip, tt.limit); got != tt.want {
			t.Errorf("rankWindow(%d, %d) = %d, want %d", tt.skip, tt.limit, got, tt.want)
		}
	}
}

// A skip near math.MaxInt is past the end of the ranking, not a reason to
// fall back.
func TestService_HugeSkipKeepsOutcome(t *testing.T) {
	store := &mockStore{snapshot: threeUserSnapshot()}
	svc := newTestService(store, ServiceConfig{Neighbors: 10})

	resp, err := svc.Recommend(context.Background(), 3, math.MaxInt-5, 10)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if resp.Outcome != OutcomeCollaborative || resp.Reason != ReasonCollaborative {
		t.Errorf("outcome = %s/%s, want collaborative/collaborative", resp.Outcome, resp.Reason)
	}
	if len(resp.Books) != 0 {
		t.Errorf("books = %v, want none", bookIDs(resp.Books))
	}
}
