package core

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
)

type (
	// DBExecutor runs queries on either a connection pool or an open
	// transaction. Both *sqlx.DB and *sqlx.Tx satisfy it.
	DBExecutor interface {
		sqlx.ExtContext
	}

	DB interface {
		DBExecutor

		BeginTx(ctx context.Context, opts *sql.TxOptions) (DBTransactor, error)
	}

	DBTransactor interface {
		DBExecutor

		Commit() error
		Rollback() error
	}
)

type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}

// AtomicFunc runs within a single database transaction.
type AtomicFunc func(tx DBTransactor) error

// Atomic begins a transaction on db, runs fn and commits; fn errors roll back.
// Operations that touch several records (room assignment updates both the
// room and the student) go through here.
func Atomic(ctx context.Context, db DB, fn AtomicFunc) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err = fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
