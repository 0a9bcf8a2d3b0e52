package colony

import (
	"errors"
	"testing"
)

func TestGridPlaceAndClear(t *testing.T) {
	g := NewGrid(5)

	if err := g.Place(Cell{Row: 4, Col: 0}, Farm); err != nil {
		t.Fatalf("Place failed: %v", err)
	}
	if err := g.Place(Cell{Row: 0, Col: 2}, Farm); err != nil {
		t.Fatalf("Place failed: %v", err)
	}
	if err := g.Place(Cell{Row: 4, Col: 0}, PowerPlant); !errors.Is(err, ErrCellOccupied) {
		t.Errorf("err = %v, want ErrCellOccupied", err)
	}
	if err := g.Place(Cell{Row: 5, Col: 0}, PowerPlant); !errors.Is(err, ErrInvalidCell) {
		t.Errorf("err = %v, want ErrInvalidCell", err)
	}

	if got := g.Count(Farm); got != 2 {
		t.Errorf("Count(Farm) = %d, want 2", got)
	}

	placements := g.Placements()
	if len(placements) != 2 || placements[0].Cell != (Cell{Row: 0, Col: 2}) {
		t.Errorf("placements = %+v, want row-major order", placements)
	}

	if got := g.Clear(Cell{Row: 4, Col: 0}); got != Farm {
		t.Errorf("Clear returned %q", got)
	}
	if g.CountOccupied() != 1 {
		t.Errorf("occupied = %d, want 1", g.CountOccupied())
	}
	if err := g.Place(Cell{Row: 4, Col: 0}, PowerPlant); err != nil {
		t.Errorf("cleared cell not buildable: %v", err)
	}

	rows := g.Rows()
	if rows[4][0] != PowerPlant || rows[0][2] != Farm || rows[1][1] != "" {
		t.Errorf("rows = %v", rows)
	}
}

func TestEventLogOrderingAndLimit(t *testing.T) {
	l := NewEventLog(3)
	for _, m := range []string{"a", "b", "c", "d"} {
		l.Append(testStart, m)
	}

	entries := l.Entries()
	if len(entries) != 3 {
		t.Fatalf("len = %d, want 3", len(entries))
	}
	if entries[0].Message != "d" || entries[2].Message != "b" {
		t.Errorf("entries = %+v, want newest first", entries)
	}
	if entries[0].Seq != 4 {
		t.Errorf("seq = %d, want 4", entries[0].Seq)
	}
	if msgs := l.Messages(); msgs[0] != "b" || msgs[2] != "d" {
		t.Errorf("messages = %v, want oldest first", msgs)
	}
}

func TestEventLogSubscribe(t *testing.T) {
	l := NewEventLog(10)
	sub := l.Subscribe(1)

	l.Append(testStart, "first")
	l.Append(testStart, "dropped")

	ev := <-sub
	if ev.Message != "first" {
		t.Errorf("got %q, want first", ev.Message)
	}

	l.Unsubscribe(sub)
	if _, open := <-sub; open {
		t.Error("channel still open after Unsubscribe")
	}
	l.Append(testStart, "after")
}

func TestSnapshotRestore(t *testing.T) {
	rng := &scriptedRand{t: t, ints: []int{0, 0, 0}, floats: []float64{0.99}}
	e, clock := newTestEngine(t, uncappedConfig(HazardBoth), rng)
	buildAt(t, e, LivingSpace, Cell{Row: 1, Col: 2})
	if _, err := e.Explore(Shallow); err != nil {
		t.Fatalf("Explore failed: %v", err)
	}
	snap := e.Snapshot(true)

	other, _ := newTestEngine(t, uncappedConfig(HazardBoth), nil)
	other.clock = clock
	if err := other.Restore(snap); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}

	restored := other.Snapshot(true)
	for _, kind := range AllResourceKinds() {
		if restored.Resources[kind] != snap.Resources[kind] {
			t.Errorf("%s = %d, want %d", kind, restored.Resources[kind], snap.Resources[kind])
		}
	}
	if other.Grid().At(Cell{Row: 1, Col: 2}) != LivingSpace {
		t.Error("placement not restored")
	}
	if restored.CooldownRemaining != snap.CooldownRemaining {
		t.Errorf("cooldown = %s, want %s", restored.CooldownRemaining, snap.CooldownRemaining)
	}
	if len(restored.Log) != len(snap.Log) || restored.Log[0].Message != snap.Log[0].Message {
		t.Errorf("log not restored: %+v", restored.Log)
	}
}

func TestRestoreRejectsUnknownModule(t *testing.T) {
	e, _ := newTestEngine(t, DefaultConfig(), nil)
	snap := e.Snapshot(false)
	snap.Placements = []Placement{{Cell: Cell{Row: 0, Col: 0}, Module: "Reactor"}}

	if err := e.Restore(snap); !errors.Is(err, ErrUnknownModule) {
		t.Errorf("err = %v, want ErrUnknownModule", err)
	}
}
