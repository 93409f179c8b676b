// Package stackmd synchronizes a tree of Markdown documents on local
// disk with a BookStack wiki over its REST API. The engine reconciles
// local files against remote pages through a local SQLite cache, with
// policy-based conflict handling and idempotent, per-item-isolated runs.
package stackmd

import "fmt"

// Engine is the synchronization engine. It is explicitly constructed and
// passed by reference; there is no ambient global instance. Runs against
// the same cache must not overlap; callers are expected to hold
// process-level mutual exclusion.
type Engine struct {
	store    *Store
	client   Client
	strategy Strategy
}

// NewEngine creates an engine over an open cache store and a remote
// client. client may be nil for cache-only operation; remote operations
// then return ErrOffline.
func NewEngine(store *Store, client Client, strategy Strategy) (*Engine, error) {
	if store == nil {
		return nil, fmt.Errorf("engine: %w", ErrStoreUnavailable)
	}
	if strategy == "" {
		strategy = StrategyNewestWins
	}
	if !strategy.IsValid() {
		return nil, &ValidationError{Field: "Strategy", Message: fmt.Sprintf("unknown strategy %q", strategy)}
	}
	return &Engine{store: store, client: client, strategy: strategy}, nil
}

// Store returns the engine's cache store.
func (e *Engine) Store() *Store { return e.store }

// Strategy returns the engine's conflict strategy.
func (e *Engine) Strategy() Strategy { return e.strategy }

func (e *Engine) requireClient() error {
	if e.client == nil {
		return ErrOffline
	}
	return nil
}

// itemError formats a per-item failure for a run's error list.
func itemError(item string, err error) string {
	return fmt.Sprintf("%s: %v", item, err)
}
