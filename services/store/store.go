package store

import (
	"context"
	"time"

	"github.com/aahmdakml/MatkulBigdata/internal/record"
)

// Query filters the records returned by List
type Query struct {
	Commodity     string
	Location      string
	Source        string
	MinConfidence int
	Since         time.Time
	Limit         int
}

// Store persists records
type Store interface {
	// Save upserts records and returns how many rows changed
	Save(ctx context.Context, records []record.Record) (int, error)

	// List returns stored records, newest first
	List(ctx context.Context, q Query) ([]record.Record, error)

	// Close releases the connection
	Close() error
}
