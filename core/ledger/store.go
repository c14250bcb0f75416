// Package ledger keeps a durable history of every run the scheduler
// performed, across sessions, for the history command.
package ledger

import (
	"context"
	"fmt"
	"time"
)

// Record captures one scheduled run.
type Record struct {
	Timestamp   time.Time `json:"timestamp"`
	Session     string    `json:"session"`
	Campaign    string    `json:"campaign"`
	Method      string    `json:"method"`
	Fingerprint string    `json:"fingerprint"`
	Instance    string    `json:"instance"`
	Estimate    float64   `json:"estimate"`
	Cost        float64   `json:"cost"`
	Known       bool      `json:"known"`
	Cached      bool      `json:"cached"`
	ElapsedMS   int64     `json:"elapsed_ms"`
}

// Query filters records. Set fields are ANDed and zero fields match
// everything. Since and Until bound the record timestamp inclusively.
// Results come back in append order, oldest run first.
type Query struct {
	Since    time.Time
	Until    time.Time
	Session  string
	Campaign string
	Method   string
	// Limit keeps the first Limit matching records in append order. Zero
	// or negative means no limit.
	Limit int
}

func (q Query) match(r Record) bool {
	if !q.Since.IsZero() && r.Timestamp.Before(q.Since) {
		return false
	}
	if !q.Until.IsZero() && r.Timestamp.After(q.Until) {
		return false
	}
	if q.Session != "" && r.Session != q.Session {
		return false
	}
	if q.Campaign != "" && r.Campaign != q.Campaign {
		return false
	}
	if q.Method != "" && r.Method != q.Method {
		return false
	}
	return true
}

// Store persists Records and supports querying.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}

// Backends accepted by Open.
const (
	BackendJSONL  = "jsonl"
	BackendSQLite = "sqlite"
)

// Open returns the store for backend at path.
func Open(backend, path string) (Store, error) {
	switch backend {
	case "", BackendJSONL:
		return NewJSONLStore(path)
	case BackendSQLite:
		return NewSQLiteStore(path)
	default:
		return nil, fmt.Errorf("unknown ledger backend %s", backend)
	}
}

// Nop discards every record.
type Nop struct{}

func (Nop) Append(context.Context, Record) error          { return nil }
func (Nop) Query(context.Context, Query) ([]Record, error) { return nil, nil }
func (Nop) Close() error                                   { return nil }
