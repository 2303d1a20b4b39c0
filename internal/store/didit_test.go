package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func setupDidItTestDB(t *testing.T) (*DidItStore, *DoItStore) {
	t.Helper()
	db := setupTestDB(t)
	return NewDidItStore(db), NewDoItStore(db)
}

func TestRecordCompletion(t *testing.T) {
	dis, ds := setupDidItTestDB(t)
	ctx := context.Background()

	d, _ := ds.Create(ctx, "Feed Fish", "Feed the fish")
	doneAt := time.Date(2026, 10, 18, 9, 30, 15, 123456789, time.UTC)

	res := dis.RecordCompletion(ctx, d.ID, doneAt)
	if !res.OK() {
		t.Fatalf("record completion: %v", res.Err)
	}
	if res.ID == 0 {
		t.Error("expected non-zero completion ID")
	}

	got, err := dis.GetByID(ctx, res.ID)
	if err != nil {
		t.Fatalf("get didit: %v", err)
	}
	if got == nil {
		t.Fatal("expected completion, got nil")
	}
	if got.DoItID != d.ID {
		t.Errorf("doit_id = %d, want %d", got.DoItID, d.ID)
	}
	if got.DoItName != "Feed Fish" {
		t.Errorf("doit_name = %q, want %q", got.DoItName, "Feed Fish")
	}
	if !got.DoneAt.Equal(doneAt) {
		t.Errorf("done_at = %v, want %v", got.DoneAt, doneAt)
	}
}

func TestRecordCompletionIsNotIdempotent(t *testing.T) {
	dis, ds := setupDidItTestDB(t)
	ctx := context.Background()

	d, _ := ds.Create(ctx, "Feed Fish", "Feed the fish")
	now := time.Now()
	first := dis.RecordCompletion(ctx, d.ID, now)
	second := dis.RecordCompletion(ctx, d.ID, now)
	if !first.OK() || !second.OK() {
		t.Fatalf("record completions: %v, %v", first.Err, second.Err)
	}
	if first.ID == second.ID {
		t.Error("expected distinct completion rows")
	}

	list, err := dis.ListByDoIt(ctx, d.ID)
	if err != nil {
		t.Fatalf("list by doit: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("completions = %d, want 2", len(list))
	}
}

func TestRecordCompletionUnknownDoItRollsBack(t *testing.T) {
	dis, _ := setupDidItTestDB(t)
	ctx := context.Background()

	res := dis.RecordCompletion(ctx, 4242, time.Now())
	if res.OK() {
		t.Fatal("expected failure for dangling chore reference")
	}
	if !res.Recoverable {
		t.Errorf("foreign key failure should be recoverable: %v", res.Err)
	}

	n, err := dis.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Errorf("didit count = %d, want 0 after rollback", n)
	}
}

func TestRecordCompletionCanceledContext(t *testing.T) {
	dis, ds := setupDidItTestDB(t)
	d, _ := ds.Create(context.Background(), "Feed Fish", "Feed the fish")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := dis.RecordCompletion(ctx, d.ID, time.Now())
	if res.OK() {
		t.Fatal("expected failure for canceled context")
	}
	if res.Recoverable {
		t.Error("canceled context should not be recoverable")
	}
	if !errors.Is(res.Err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", res.Err)
	}
}

func TestRecordCompletionConcurrent(t *testing.T) {
	dis, ds := setupDidItTestDB(t)
	ctx := context.Background()

	d, _ := ds.Create(ctx, "Feed Fish", "Feed the fish")

	var wg sync.WaitGroup
	results := make([]CommitResult, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = dis.RecordCompletion(ctx, d.ID, time.Now())
		}(i)
	}
	wg.Wait()

	for i, res := range results {
		if !res.OK() {
			t.Fatalf("submission %d failed: %v", i, res.Err)
		}
	}
	if results[0].ID == results[1].ID {
		t.Error("expected two distinct completion rows")
	}

	n, err := dis.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Errorf("didit count = %d, want 2", n)
	}
}

func TestDidItListNewestFirst(t *testing.T) {
	dis, ds := setupDidItTestDB(t)
	ctx := context.Background()

	fish, _ := ds.Create(ctx, "Feed Fish", "Feed the fish")
	dishes, _ := ds.Create(ctx, "Unload dishwasher", "Unload dishwasher")

	base := time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)
	dis.RecordCompletion(ctx, fish.ID, base)
	dis.RecordCompletion(ctx, dishes.ID, base.Add(time.Hour))
	dis.RecordCompletion(ctx, fish.ID, base.Add(2*time.Hour))

	list, total, err := dis.List(ctx, ListParams{Limit: 10})
	if err != nil {
		t.Fatalf("list didits: %v", err)
	}
	if total != 3 || len(list) != 3 {
		t.Fatalf("total = %d, len = %d; want 3, 3", total, len(list))
	}
	if !list[0].DoneAt.Equal(base.Add(2 * time.Hour)) {
		t.Errorf("first done_at = %v, want newest", list[0].DoneAt)
	}

	list, total, err = dis.List(ctx, ListParams{Search: "dish", SearchColumns: []string{"doit_name"}})
	if err != nil {
		t.Fatalf("search didits: %v", err)
	}
	if total != 1 || list[0].DoItName != "Unload dishwasher" {
		t.Errorf("search = %+v, want dishwasher completion", list)
	}
}
