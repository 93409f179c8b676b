package stackmd

import (
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

// Winner designates which side of a matched pairing is kept.
type Winner string

const (
	WinnerLocal  Winner = "local"
	WinnerRemote Winner = "remote"
)

// Decision is the outcome of conflict resolution for one pairing.
// It is a pure function of the strategy and the two timestamps.
type Decision struct {
	Winner Winner
	Reason string
}

// HasConflict reports whether updating the matched remote page requires
// reconciliation under the given strategy.
func HasConflict(strategy Strategy, remote *Page, localModified time.Time) bool {
	switch strategy {
	case StrategyLocalWins:
		return false
	case StrategyRemoteWins, StrategyManual:
		return true
	case StrategyNewestWins:
		return !localModified.After(remote.RemoteUpdatedAt)
	default:
		return true
	}
}

// ResolveConflict decides the winner for a matched pairing. Only pages
// with an existing remote match go through here; new documents never
// conflict. Under newest-wins, equal timestamps favor the remote side
// so ambiguous ordering never clobbers remote content.
func ResolveConflict(strategy Strategy, remote *Page, localModified time.Time) Decision {
	switch strategy {
	case StrategyLocalWins:
		return Decision{Winner: WinnerLocal, Reason: "strategy local-wins"}
	case StrategyRemoteWins:
		return Decision{Winner: WinnerRemote, Reason: "strategy remote-wins"}
	case StrategyNewestWins:
		if localModified.After(remote.RemoteUpdatedAt) {
			return Decision{
				Winner: WinnerLocal,
				Reason: fmt.Sprintf("local modified %s after remote %s",
					localModified.UTC().Format(time.RFC3339),
					remote.RemoteUpdatedAt.UTC().Format(time.RFC3339)),
			}
		}
		return Decision{
			Winner: WinnerRemote,
			Reason: fmt.Sprintf("remote modified %s at or after local %s",
				remote.RemoteUpdatedAt.UTC().Format(time.RFC3339),
				localModified.UTC().Format(time.RFC3339)),
		}
	case StrategyManual:
		return Decision{Winner: WinnerRemote, Reason: "manual resolution required"}
	default:
		return Decision{Winner: WinnerRemote, Reason: fmt.Sprintf("unknown strategy %q", strategy)}
	}
}

// ConflictLog collects the structured conflict records of one run under
// the manual strategy. Nothing is overwritten automatically; records are
// surfaced in the run result for human resolution.
type ConflictLog struct {
	runID   string
	records []ConflictRecord
}

// NewConflictLog creates a conflict log with a fresh run id.
func NewConflictLog() *ConflictLog {
	return &ConflictLog{runID: ulid.Make().String()}
}

// RunID returns the unique id of this run.
func (l *ConflictLog) RunID() string { return l.runID }

// Add records a conflict for human resolution.
func (l *ConflictLog) Add(page *Page, localPath, reason string) {
	l.records = append(l.records, ConflictRecord{
		RunID:        l.runID,
		PageRemoteID: page.RemoteID,
		LocalPath:    localPath,
		Name:         page.Name,
		Reason:       reason,
	})
}

// Records returns the conflicts recorded so far.
func (l *ConflictLog) Records() []ConflictRecord { return l.records }
