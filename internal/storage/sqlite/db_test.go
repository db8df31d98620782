package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "standupbot-test.db")
	db, err := InitDB(dbPath)
	if err != nil {
		t.Fatalf("InitDB failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestInitDBIsIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "standupbot-test.db")
	for i := 0; i < 2; i++ {
		db, err := InitDB(dbPath)
		if err != nil {
			t.Fatalf("InitDB attempt %d failed: %v", i+1, err)
		}
		_ = db.Close()
	}
}

func TestRunLogRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	runLog := NewRunLog(db)
	base := time.Date(2026, 10, 15, 15, 0, 0, 0, time.UTC)

	runs := []RunRecord{
		{RunDate: "2026-10-14", Outcome: "sent", Body: "Handled successfully", Message: "Hi\n", ChannelID: "C1", Delivered: true, CreatedAt: base.Add(-24 * time.Hour)},
		{RunDate: "2026-10-15", Outcome: "sent", Body: "Handled successfully", Message: "Hi\n", ChannelID: "C1", DeliveryError: "channel_not_found", CreatedAt: base},
		{RunDate: "2026-10-17", Outcome: "weekend", Body: "Skipping standup because it is a weekend.", CreatedAt: base.Add(48 * time.Hour)},
	}
	for _, r := range runs {
		if err := runLog.RecordRun(ctx, r); err != nil {
			t.Fatalf("RecordRun failed: %v", err)
		}
	}

	got, err := RecentRuns(ctx, db, 2)
	if err != nil {
		t.Fatalf("RecentRuns failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(got))
	}
	if got[0].RunDate != "2026-10-17" || got[0].Outcome != "weekend" || got[0].Delivered {
		t.Fatalf("unexpected newest run: %+v", got[0])
	}
	if got[1].RunDate != "2026-10-15" || got[1].Delivered || got[1].DeliveryError != "channel_not_found" {
		t.Fatalf("unexpected second run: %+v", got[1])
	}
	if !got[1].CreatedAt.Equal(base) {
		t.Fatalf("unexpected created_at: %s", got[1].CreatedAt)
	}
	if got[0].ID == 0 || got[1].ID == 0 {
		t.Fatal("expected ids to be populated")
	}

	all, err := RecentRuns(ctx, db, 0)
	if err != nil {
		t.Fatalf("RecentRuns failed: %v", err)
	}
	if len(all) != 3 || !all[2].Delivered {
		t.Fatalf("unexpected runs: %+v", all)
	}
}
