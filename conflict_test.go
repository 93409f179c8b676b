package stackmd

import (
	"testing"
	"time"
)

func TestResolveConflict(t *testing.T) {
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	remote := &Page{RemoteID: 40, Name: "P", RemoteUpdatedAt: base}

	tests := []struct {
		name     string
		strategy Strategy
		local    time.Time
		want     Winner
	}{
		{"local-wins regardless", StrategyLocalWins, base.Add(-time.Hour), WinnerLocal},
		{"remote-wins regardless", StrategyRemoteWins, base.Add(time.Hour), WinnerRemote},
		{"newest-wins local newer", StrategyNewestWins, base.Add(time.Minute), WinnerLocal},
		{"newest-wins remote newer", StrategyNewestWins, base.Add(-time.Minute), WinnerRemote},
		{"newest-wins tie favors remote", StrategyNewestWins, base, WinnerRemote},
		{"manual never overwrites", StrategyManual, base.Add(time.Hour), WinnerRemote},
		{"unknown strategy is conservative", Strategy("bogus"), base.Add(time.Hour), WinnerRemote},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveConflict(tt.strategy, remote, tt.local)
			if got.Winner != tt.want {
				t.Errorf("winner = %q, want %q (reason: %s)", got.Winner, tt.want, got.Reason)
			}
			if got.Reason == "" {
				t.Error("decision must carry a reason")
			}
		})
	}
}

func TestResolveConflictDeterministic(t *testing.T) {
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	remote := &Page{RemoteID: 40, RemoteUpdatedAt: base}
	local := base.Add(time.Second)

	first := ResolveConflict(StrategyNewestWins, remote, local)
	for i := 0; i < 10; i++ {
		if got := ResolveConflict(StrategyNewestWins, remote, local); got != first {
			t.Fatalf("run %d diverged: %+v vs %+v", i, got, first)
		}
	}
}

func TestHasConflict(t *testing.T) {
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	remote := &Page{RemoteUpdatedAt: base}

	if HasConflict(StrategyLocalWins, remote, base.Add(-time.Hour)) {
		t.Error("local-wins never conflicts")
	}
	if !HasConflict(StrategyManual, remote, base.Add(time.Hour)) {
		t.Error("manual always conflicts")
	}
	if HasConflict(StrategyNewestWins, remote, base.Add(time.Second)) {
		t.Error("newer local needs no reconciliation")
	}
	if !HasConflict(StrategyNewestWins, remote, base) {
		t.Error("timestamp tie is a conflict")
	}
}

func TestConflictLog(t *testing.T) {
	log := NewConflictLog()
	if log.RunID() == "" {
		t.Fatal("RunID() is empty")
	}
	other := NewConflictLog()
	if log.RunID() == other.RunID() {
		t.Error("run ids must be unique per run")
	}

	log.Add(&Page{RemoteID: 40, Name: "P"}, "docs/p.md", "manual resolution required")
	records := log.Records()
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
	r := records[0]
	if r.RunID != log.RunID() || r.PageRemoteID != 40 || r.LocalPath != "docs/p.md" {
		t.Errorf("record = %+v", r)
	}
}
