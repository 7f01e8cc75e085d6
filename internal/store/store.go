package store

import (
	"context"
	"database/sql"

	"github.com/safar/go-commerce/internal/database"
	"github.com/safar/go-commerce/internal/orders"
)

// Store is the Postgres-backed orders.Repository. Units of work run through
// database.WithRetry so serialization conflicts and deadlocks are retried
// before surfacing.
type Store struct {
	DB *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{DB: db}
}

func (s *Store) View(ctx context.Context, fn func(orders.Tx) error) error {
	opts := database.DefaultTxOptions()
	opts.ReadOnly = true
	return database.WithTransaction(ctx, s.DB, opts, func(tx *sql.Tx) error {
		return fn(&storeTx{tx: tx})
	})
}

func (s *Store) Update(ctx context.Context, fn func(orders.Tx) error) error {
	return database.WithRetry(ctx, s.DB, database.SerializableTxOptions(), func(tx *sql.Tx) error {
		return fn(&storeTx{tx: tx})
	})
}

// storeTx adapts one *sql.Tx to the workflow's Tx surface.
type storeTx struct {
	tx *sql.Tx
}
