package history

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	s, err := Open(filepath.Join(t.TempDir(), "history.db"), logger)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRecordAndRecent(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	inv := Invocation{
		Action:    "speak",
		Type:      "speak",
		Payload:   `{"sentence":"hi"}`,
		Status:    "success",
		Source:    "gateway",
		ElapsedMs: 12,
	}
	if err := s.Record(ctx, inv); err != nil {
		t.Fatal(err)
	}

	recent, err := s.Recent(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 1 {
		t.Fatalf("expected 1 invocation, got %d", len(recent))
	}

	got := recent[0]
	if got.ID == "" {
		t.Error("expected generated ID")
	}
	if got.Action != "speak" || got.Status != "success" || got.Source != "gateway" {
		t.Errorf("unexpected invocation: %+v", got)
	}
	if got.StartedAt.IsZero() {
		t.Error("expected started_at to be filled")
	}
}

func TestRecentOrderAndLimit(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Minute)
	for i := 0; i < 5; i++ {
		inv := Invocation{
			Action:    "move",
			Status:    "success",
			StartedAt: base.Add(time.Duration(i) * time.Second),
		}
		if err := s.Record(ctx, inv); err != nil {
			t.Fatal(err)
		}
	}

	recent, err := s.Recent(ctx, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 3 {
		t.Fatalf("expected 3 invocations, got %d", len(recent))
	}
	if !recent[0].StartedAt.After(recent[2].StartedAt) {
		t.Error("expected most recent first")
	}
}

func TestActionStats(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	for _, status := range []string{"success", "success", "error"} {
		if err := s.Record(ctx, Invocation{Action: "wait", Status: status}); err != nil {
			t.Fatal(err)
		}
	}

	st, err := s.ActionStats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if st.Total != 3 || st.Succeeded != 2 || st.Failed != 1 {
		t.Errorf("unexpected stats: %+v", st)
	}
}

func TestOpenCreatesFile(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	path := filepath.Join(t.TempDir(), "fresh.db")

	s, err := Open(path, logger)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected db file to exist: %v", err)
	}
}
