package gcstats

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/chazu/gcmark/gc"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreRecent(t *testing.T) {
	s := openStore(t)
	base := time.Unix(1700000000, 0)
	for i := 0; i < 3; i++ {
		if err := s.Record(NewReport(sampleStats("a", base.Add(time.Duration(i)*time.Second)))); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.Record(NewReport(sampleStats("b", base))); err != nil {
		t.Fatal(err)
	}

	got, err := s.Recent("a", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("Recent returned %d reports, want 2", len(got))
	}
	if !got[0].Started().After(got[1].Started()) {
		t.Error("reports should be newest first")
	}
}

func TestStoreTotals(t *testing.T) {
	s := openStore(t)
	if _, err := s.Totals("a"); !errors.Is(err, ErrNoCycles) {
		t.Errorf("Totals error = %v, want ErrNoCycles", err)
	}

	s.CycleFinished(sampleStats("a", time.Unix(1, 0)))
	s.CycleFinished(sampleStats("a", time.Unix(2, 0)))

	tot, err := s.Totals("a")
	if err != nil {
		t.Fatal(err)
	}
	if tot.Cycles != 2 || tot.MarkedBytes != 1280 || tot.SweptBytes != 512 {
		t.Errorf("Totals = %+v", tot)
	}
}

type leaf struct {
	n int
}

func TestStoreAsHeapObserver(t *testing.T) {
	s := openStore(t)
	h := gc.NewHeap(gc.Options{Name: "observed"})
	h.AddObserver(s)

	gc.New[leaf](h, nil)
	stats, err := h.Collect(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	got, err := s.Recent("observed", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != stats.ID || got[0].SweptObjects != 1 {
		t.Errorf("Recent = %+v", got)
	}
}
