package history

import (
	"context"
	"testing"
	"time"
)

func TestRecordAndRecentRoundTrip(t *testing.T) {
	s, err := Open("sqlite", "file:history_test?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	rec := RunRecord{
		RunID:     "run-1",
		VMID:      "vm-1",
		Symbol:    "main",
		Status:    "SUCCESS",
		StartedAt: time.Now(),
		Duration:  12 * time.Millisecond,
		RobotX:    5, RobotY: 7, RobotD: 0,
	}
	if err := s.Record(ctx, rec); err != nil {
		t.Fatalf("Record: %v", err)
	}

	got, err := s.Recent(ctx, "vm-1", 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Recent returned %d rows, want 1", len(got))
	}
	if got[0].RunID != rec.RunID || got[0].Status != rec.Status || got[0].RobotY != rec.RobotY {
		t.Fatalf("Recent[0] = %+v, want match for %+v", got[0], rec)
	}
}

func TestRecentIsScopedToVMID(t *testing.T) {
	s, err := Open("sqlite", "file:history_test_scope?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	_ = s.Record(ctx, RunRecord{RunID: "a", VMID: "vm-a", Symbol: "main", Status: "SUCCESS", StartedAt: time.Now()})
	_ = s.Record(ctx, RunRecord{RunID: "b", VMID: "vm-b", Symbol: "main", Status: "SUCCESS", StartedAt: time.Now()})

	got, err := s.Recent(ctx, "vm-a", 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 1 || got[0].RunID != "a" {
		t.Fatalf("Recent(vm-a) = %+v, want exactly run a", got)
	}
}
