package markov

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
)

func TestRepo_EmptyStore(t *testing.T) {
	repo := NewRepo(openTestDB(t))
	ctx := context.Background()

	if w, ok, err := repo.SampleAnyStart(ctx); err != nil || ok {
		t.Fatalf("expected no start, got %q ok=%v err=%v", w, ok, err)
	}
	if w, ok, err := repo.SampleSuccessor(ctx, "a"); err != nil || ok {
		t.Fatalf("expected no successor, got %q ok=%v err=%v", w, ok, err)
	}
}

func TestRepo_RecordAcceptsEmptyWords(t *testing.T) {
	gdb := openTestDB(t)
	repo := NewRepo(gdb)
	ctx := context.Background()

	if err := repo.Record(ctx, "", ""); err != nil {
		t.Fatalf("record empty pair: %v", err)
	}
	if err := repo.Record(ctx, "end", ""); err != nil {
		t.Fatalf("record empty successor: %v", err)
	}
	w, ok, err := repo.SampleSuccessor(ctx, "end")
	if err != nil || !ok || w != "" {
		t.Fatalf("expected empty successor, got %q ok=%v err=%v", w, ok, err)
	}
	if n := len(allPairs(t, gdb)); n != 2 {
		t.Fatalf("expected 2 rows, got %d", n)
	}
}

func TestRepo_SingleCandidateIsDeterministic(t *testing.T) {
	repo := NewRepo(openTestDB(t))
	u := NewUpdater(repo, false)
	mustIngest(t, u, "a b")

	for i := 0; i < 20; i++ {
		w, ok, err := repo.SampleSuccessor(context.Background(), "a")
		if err != nil || !ok || w != "b" {
			t.Fatalf("trial %d: got %q ok=%v err=%v", i, w, ok, err)
		}
	}
}

func TestRepo_SampleSuccessorCoversAllCandidates(t *testing.T) {
	repo := NewRepo(openTestDB(t))
	u := NewUpdater(repo, false)
	mustIngest(t, u, "a b")
	mustIngest(t, u, "a c")

	seen := map[string]int{}
	for i := 0; i < 200; i++ {
		w, ok, err := repo.SampleSuccessor(context.Background(), "a")
		if err != nil || !ok {
			t.Fatalf("sample: ok=%v err=%v", ok, err)
		}
		seen[w]++
	}
	if len(seen) != 2 || seen["b"] == 0 || seen["c"] == 0 {
		t.Fatalf("expected both b and c and nothing else, got %v", seen)
	}
}

func TestRepo_SamplingWeightsByRowMultiplicity(t *testing.T) {
	repo := NewRepo(openTestDB(t))
	u := NewUpdater(repo, false)
	for i := 0; i < 3; i++ {
		mustIngest(t, u, "a b")
	}
	mustIngest(t, u, "a c")

	const trials = 2000
	counts := map[string]int{}
	for i := 0; i < trials; i++ {
		w, _, err := repo.SampleSuccessor(context.Background(), "a")
		if err != nil {
			t.Fatalf("sample: %v", err)
		}
		counts[w]++
	}
	if counts["c"] == 0 {
		t.Fatalf("c never sampled: %v", counts)
	}
	ratio := float64(counts["b"]) / float64(counts["c"])
	if ratio < 2.0 || ratio > 4.5 {
		t.Fatalf("expected b about 3x as frequent as c, got %v (ratio %.2f)", counts, ratio)
	}
}

func TestRepo_SampleAnyStartReturnsStoredWord1(t *testing.T) {
	repo := NewRepo(openTestDB(t))
	u := NewUpdater(repo, false)
	mustIngest(t, u, "x y z")

	for i := 0; i < 20; i++ {
		w, ok, err := repo.SampleAnyStart(context.Background())
		if err != nil || !ok {
			t.Fatalf("sample start: ok=%v err=%v", ok, err)
		}
		if w != "x" && w != "y" {
			t.Fatalf("unexpected start word %q", w)
		}
	}
}

func TestRepo_RecordBatchAndStats(t *testing.T) {
	repo := NewRepo(openTestDB(t))
	ctx := context.Background()

	err := repo.RecordBatch(ctx, []WordPair{{"a", "b"}, {"a", "c"}, {"b", "c"}})
	if err != nil {
		t.Fatalf("record batch: %v", err)
	}
	if err := repo.RecordBatch(ctx, nil); err != nil {
		t.Fatalf("empty batch: %v", err)
	}
	s, err := repo.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if s.Observations != 3 || s.DistinctWords != 2 {
		t.Fatalf("unexpected stats: %+v", s)
	}
}

func TestRepo_ConcurrentAppendsAndReads(t *testing.T) {
	gdb := openTestDB(t)
	repo := NewRepo(gdb)
	u := NewUpdater(repo, false)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for i := 0; i < 16; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			errs <- u.Ingest(ctx, fmt.Sprintf("w%d w%d w%d", i, i+1, i+2))
		}(i)
		go func() {
			defer wg.Done()
			_, _, err := repo.SampleAnyStart(ctx)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent op: %v", err)
		}
	}
	if n := len(allPairs(t, gdb)); n != 32 {
		t.Fatalf("expected 32 rows, got %d", n)
	}
}

func TestRepo_ClosedDBIsUnavailable(t *testing.T) {
	gdb := openTestDB(t)
	repo := NewRepo(gdb)
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("db: %v", err)
	}
	_ = sqlDB.Close()

	err = repo.Record(context.Background(), "a", "b")
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
	_, _, err = repo.SampleSuccessor(context.Background(), "a")
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}
