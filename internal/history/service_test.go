package history

import (
	"context"
	"testing"
	"time"

	"colony-server/internal/colony"
	"colony-server/internal/shared/logger"
)

func newTestService() *Service {
	return NewService(NewMemoryStore(), logger.Discard())
}

func TestNewRecordFromSnapshot(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := colony.Snapshot{
		Resources:      colony.Quantities{colony.Metal: 3, colony.Energy: 4, colony.Food: -1, colony.Oxygen: -2},
		Failed:         true,
		FailureReasons: []colony.ResourceKind{colony.Food, colony.Oxygen},
		Stats:          colony.Stats{StartedAt: start, ModulesBuilt: 2, ConsumptionTicks: 7},
		TakenAt:        start.Add(70 * time.Second),
	}

	rec := NewRecord("c1", OutcomeFailed, snap)
	if rec.Reasons != "food and oxygen" {
		t.Errorf("reasons = %q", rec.Reasons)
	}
	if rec.FinalFood != -1 || rec.FinalOxygen != -2 || rec.ModulesBuilt != 2 {
		t.Errorf("record = %+v", rec)
	}
	if rec.Survived() != 70*time.Second {
		t.Errorf("survived = %s", rec.Survived())
	}
}

func TestRecordOutcomeIdempotent(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	rec := Record{ColonyID: "c1", Outcome: OutcomeAbandoned}
	if err := s.RecordOutcome(ctx, rec); err != nil {
		t.Fatalf("RecordOutcome failed: %v", err)
	}
	if err := s.RecordOutcome(ctx, rec); err != nil {
		t.Fatalf("second RecordOutcome failed: %v", err)
	}

	records, err := s.ListRecent(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Errorf("got %d records, want 1", len(records))
	}
}

func TestListRecentNewestFirst(t *testing.T) {
	s := newTestService()
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		if err := s.RecordOutcome(ctx, Record{ColonyID: id, Outcome: OutcomeFailed}); err != nil {
			t.Fatal(err)
		}
	}

	records, err := s.ListRecent(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 || records[0].ColonyID != "c" || records[1].ColonyID != "b" {
		t.Errorf("records = %+v", records)
	}
}

func TestListRecentEmpty(t *testing.T) {
	records, err := newTestService().ListRecent(context.Background(), 500)
	if err != nil {
		t.Fatal(err)
	}
	if records == nil || len(records) != 0 {
		t.Errorf("records = %#v, want empty slice", records)
	}
}
