package sqldb

import (
	"context"
	"database/sql"
)

// batch queues argument rows for a prepared statement and executes them
// together. database/sql has no batch API, so exec runs the rows in order
// on the statement's transaction.
type batch struct {
	stmt *sql.Stmt
	rows [][]any
}

func newBatch(stmt *sql.Stmt) *batch {
	return &batch{stmt: stmt}
}

func (b *batch) add(args ...any) {
	b.rows = append(b.rows, args)
}

func (b *batch) len() int {
	return len(b.rows)
}

// exec runs every queued row and clears the queue. It stops at the first
// error.
func (b *batch) exec(ctx context.Context) error {
	defer func() { b.rows = b.rows[:0] }()
	for _, args := range b.rows {
		if _, err := b.stmt.ExecContext(ctx, args...); err != nil {
			return err
		}
	}
	return nil
}
