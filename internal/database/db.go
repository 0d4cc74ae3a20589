package database

import (
	"context"
	"time"
)

// Durability states what a write needs before it returns.
type Durability int

const (
	// Lazy writes may be coalesced with nearby writes; the file is flushed
	// only when the previous flush is older than the store's interval.
	Lazy Durability = iota
	// Durable writes are flushed to disk before the call returns.
	Durable
)

func (d Durability) String() string {
	switch d {
	case Durable:
		return "durable"
	default:
		return "lazy"
	}
}

type Result struct {
	RowsAffected int64
	LastInsertID int64
}

// DB is the store handle every repository depends on. Reads return fully
// materialized result sets; writes name their durability.
type DB interface {
	Query(ctx context.Context, query string, args ...any) (*ResultSet, error)
	Exec(ctx context.Context, d Durability, query string, args ...any) (Result, error)
	Tx(ctx context.Context, d Durability, fn func(tx Tx) error) error
}

// Tx runs statements inside one transaction. It never flushes on its own.
type Tx interface {
	Query(ctx context.Context, query string, args ...any) (*ResultSet, error)
	Exec(ctx context.Context, query string, args ...any) (Result, error)
}

// Status describes the store handle for health reporting.
type Status struct {
	Path      string    `json:"path"`
	Loaded    bool      `json:"loaded"`
	Dirty     bool      `json:"dirty"`
	LastFlush time.Time `json:"last_flush"`
	Opens     int       `json:"opens"`
}
