package stackmd

import (
	"errors"
	"fmt"
)

// Common errors returned by the stackmd engine and cache store.
var (
	// ErrNotCached is returned when an entity has no cache row.
	ErrNotCached = errors.New("entity not in cache")

	// ErrStoreClosed is returned when operating on a closed cache store.
	ErrStoreClosed = errors.New("cache store is closed")

	// ErrStoreUnavailable is returned when the cache file cannot be
	// opened or its schema cannot be initialized.
	ErrStoreUnavailable = errors.New("cache store unavailable")

	// ErrLocalPathNotFound is returned when a push is started against a
	// directory that does not exist.
	ErrLocalPathNotFound = errors.New("local path not found")

	// ErrTransactionActive is returned when Begin is called while a
	// transaction is already open.
	ErrTransactionActive = errors.New("transaction already in progress")

	// ErrNoTransaction is returned by Commit/Rollback without Begin.
	ErrNoTransaction = errors.New("no transaction in progress")

	// ErrOffline is returned when a remote operation is attempted
	// without a configured base URL.
	ErrOffline = errors.New("no wiki URL configured")
)

// ParentNotFoundError is returned when a chapter or page is upserted
// before its parent entity exists in the cache. It signals a calling-order
// bug: structure writes must process books before chapters before pages.
// Extractable via errors.As().
type ParentNotFoundError struct {
	Kind           string // entity kind being inserted: "chapter" or "page"
	ParentKind     string // missing parent kind: "book" or "chapter"
	ParentRemoteID int64
}

func (e *ParentNotFoundError) Error() string {
	return fmt.Sprintf("cache: %s parent %s %d not in cache", e.Kind, e.ParentKind, e.ParentRemoteID)
}

// ValidationError is returned when configuration validation fails.
// Extractable via errors.As().
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// ErrorKind classifies a failed remote request.
type ErrorKind string

const (
	KindAuth       ErrorKind = "auth"
	KindNotFound   ErrorKind = "not_found"
	KindValidation ErrorKind = "validation"
	KindRateLimit  ErrorKind = "rate_limit"
	KindServer     ErrorKind = "server"
	KindConnection ErrorKind = "connection"
)

// RequestError is returned when a remote API call fails.
// Extractable via errors.As(). Supports Unwrap().
type RequestError struct {
	Kind       ErrorKind
	Operation  string
	StatusCode int
	Resource   string // entity kind for not-found errors
	ID         int64  // entity id for not-found errors
	Message    string // response body excerpt or field errors
	Err        error
}

func (e *RequestError) Error() string {
	switch e.Kind {
	case KindNotFound:
		if e.Resource != "" {
			return fmt.Sprintf("api: %s: %s %d not found", e.Operation, e.Resource, e.ID)
		}
		return fmt.Sprintf("api: %s: not found", e.Operation)
	case KindConnection:
		return fmt.Sprintf("api: %s: connection failed: %v", e.Operation, e.Err)
	default:
		if e.Message != "" {
			return fmt.Sprintf("api: %s failed (status %d): %s", e.Operation, e.StatusCode, e.Message)
		}
		return fmt.Sprintf("api: %s failed (status %d): %v", e.Operation, e.StatusCode, e.Err)
	}
}

func (e *RequestError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is a remote not-found error.
func IsNotFound(err error) bool {
	var re *RequestError
	return errors.As(err, &re) && re.Kind == KindNotFound
}

// IsRetryable reports whether err is a remote error worth retrying:
// rate-limit, server, or connection failures.
func IsRetryable(err error) bool {
	var re *RequestError
	if !errors.As(err, &re) {
		return false
	}
	switch re.Kind {
	case KindRateLimit, KindServer, KindConnection:
		return true
	default:
		return false
	}
}
