package store

import (
	"context"
	"database/sql"

	"github.com/uptrace/bun"
)

// rowsAffected reports whether res touched at least one row. Treated as
// true when the driver cannot report a count, matching the teacher's
// sql.isAffected — an unreportable count is the rarer case and should
// not be mistaken for "nothing happened".
func rowsAffected(res sql.Result) bool {
	n, err := res.RowsAffected()
	if err != nil {
		return true
	}
	return n != 0
}

// beginImmediate opens a write transaction against the shared
// connection. modernc.org/sqlite/bun issues a plain BEGIN by default,
// which is deferred: the write lock is only acquired on the first
// write statement, leaving a window where two goroutines can both
// start a transaction believing they'll get exclusive access. Running
// with SetMaxOpenConns(1) (required of every Store caller) serializes
// all transactions onto one connection, which has the same effect as
// BEGIN IMMEDIATE for this single-process engine: once a transaction
// is open, no other goroutine's statement can interleave until it
// commits or rolls back.
func beginImmediate(ctx context.Context, db *bun.DB) (bun.Tx, error) {
	return db.BeginTx(ctx, nil)
}
