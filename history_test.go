//go:build cgo

package stockreport

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"testing"
)

func newHistoryEngine(t *testing.T, order ...string) (Engine, string) {
	t.Helper()
	cfg := DefaultConfig()
	cfg.DBPath = filepath.Join(t.TempDir(), "history.db")
	cfg.ProductOrder = order
	e, err := New(cfg)
	if err != nil {
		t.Fatalf("creating engine: %v", err)
	}
	t.Cleanup(func() { e.Close() })
	return e, cfg.DBPath
}

func TestHistoryRecordsRuns(t *testing.T) {
	e, _ := newHistoryEngine(t)
	ctx := context.Background()

	res, err := e.ParseText(ctx, sampleReport)
	if err != nil {
		t.Fatalf("ParseText: %v", err)
	}
	if res.RunID == "" {
		t.Fatal("expected a run id")
	}

	run, err := e.Run(ctx, res.RunID)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if run.Variations != 2 || run.Products != 2 || run.Mode != "lines" {
		t.Errorf("unexpected run: %+v", run)
	}
	if len(run.Snapshots) != 2 || run.Snapshots[0].Variations[0].Ref != "123.AC" {
		t.Errorf("snapshots not round-tripped: %+v", run.Snapshots)
	}
	if run.ContentHash == "" {
		t.Error("expected content hash")
	}

	runs, err := e.Runs(ctx, 0)
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != res.RunID || runs[0].Snapshots != nil {
		t.Errorf("unexpected runs: %+v", runs)
	}
}

func TestHistorySkipsFailedAndOptedOutParses(t *testing.T) {
	e, _ := newHistoryEngine(t)
	ctx := context.Background()

	if _, err := e.ParseText(ctx, "nothing here"); !errors.Is(err, ErrNoVariationsFound) {
		t.Fatalf("expected ErrNoVariationsFound, got %v", err)
	}
	res, err := e.ParseText(ctx, sampleReport, WithoutHistory())
	if err != nil {
		t.Fatalf("ParseText: %v", err)
	}
	if res.RunID != "" {
		t.Errorf("RunID = %q with WithoutHistory", res.RunID)
	}

	runs, err := e.Runs(ctx, 0)
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}
}

func TestHistoryDeleteRun(t *testing.T) {
	e, _ := newHistoryEngine(t)
	ctx := context.Background()

	res, err := e.ParseText(ctx, sampleReport)
	if err != nil {
		t.Fatalf("ParseText: %v", err)
	}
	if err := e.DeleteRun(ctx, res.RunID); err != nil {
		t.Fatalf("DeleteRun: %v", err)
	}
	if _, err := e.Run(ctx, res.RunID); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Run after delete: %v", err)
	}
	if err := e.DeleteRun(ctx, res.RunID); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("second DeleteRun: %v", err)
	}
}

func TestHistorySeedsAndPersistsOrder(t *testing.T) {
	e, dbPath := newHistoryEngine(t, "456")
	ctx := context.Background()

	got, err := e.ProductOrder(ctx)
	if err != nil {
		t.Fatalf("ProductOrder: %v", err)
	}
	if !slices.Equal(got, []string{"456"}) {
		t.Errorf("seeded order = %v", got)
	}

	if err := e.SetProductOrder(ctx, []string{"123", "456"}); err != nil {
		t.Fatalf("SetProductOrder: %v", err)
	}
	e.Close()

	// A configured order does not overwrite a saved one.
	cfg := DefaultConfig()
	cfg.DBPath = dbPath
	cfg.ProductOrder = []string{"999"}
	e2, err := New(cfg)
	if err != nil {
		t.Fatalf("reopening engine: %v", err)
	}
	defer e2.Close()

	got, err = e2.ProductOrder(ctx)
	if err != nil {
		t.Fatalf("ProductOrder: %v", err)
	}
	if !slices.Equal(got, []string{"123", "456"}) {
		t.Errorf("order after reopen = %v", got)
	}

	res, err := e2.ParseText(ctx, sampleReport)
	if err != nil {
		t.Fatalf("ParseText: %v", err)
	}
	if codes := productCodes(res); !slices.Equal(codes, []string{"123", "456"}) {
		t.Errorf("stored order not applied: %v", codes)
	}
}

func TestHistoryStats(t *testing.T) {
	e, _ := newHistoryEngine(t, "123")
	ctx := context.Background()

	if _, err := e.ParseText(ctx, sampleReport); err != nil {
		t.Fatalf("ParseText: %v", err)
	}
	stats, err := e.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Runs != 1 || stats.OrderedCodes != 1 {
		t.Errorf("stats = %+v", stats)
	}
}
