// Package dummydb provides in-memory repositories for tests and offline
// development. Tables are plain maps behind RW mutexes.
package dummydb

import (
	"context"
	"database/sql"
	"sync"

	"github.com/jmoiron/sqlx"

	"github.com/nkashama/bweni/core"
	"github.com/nkashama/bweni/core/attendance"
	"github.com/nkashama/bweni/core/complaint"
	"github.com/nkashama/bweni/core/leave"
	"github.com/nkashama/bweni/core/notif"
	"github.com/nkashama/bweni/core/room"
	"github.com/nkashama/bweni/core/user"
)

type (
	DB struct {
		noopExecutor

		user       *userTable
		room       *roomTable
		complaint  *complaintTable
		leave      *leaveTable
		attendance *attendanceTable
		notif      *notifTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}
	roomTable struct {
		sync.RWMutex
		table map[string]*room.Room
	}
	complaintTable struct {
		sync.RWMutex
		table map[string]*complaint.Complaint
	}
	leaveTable struct {
		sync.RWMutex
		table map[string]*leave.LeaveRequest
	}
	attendanceTable struct {
		sync.RWMutex
		table map[string]*attendance.Record
		order []string // insertion order; breaks same-date ties
	}
	notifTable struct {
		sync.RWMutex
		table map[string]*notif.Notification
		order []string // insertion order; the outbox drains oldest first
	}
)

var _ core.DB = (*DB)(nil)

func Open() (*DB, error) {
	db := &DB{
		user:       &userTable{table: make(map[string]*user.User)},
		room:       &roomTable{table: make(map[string]*room.Room)},
		complaint:  &complaintTable{table: make(map[string]*complaint.Complaint)},
		leave:      &leaveTable{table: make(map[string]*leave.LeaveRequest)},
		attendance: &attendanceTable{table: make(map[string]*attendance.Record)},
		notif:      &notifTable{table: make(map[string]*notif.Notification)},
	}
	return db, nil
}

// Reset empties all tables.
func (db *DB) Reset() {
	db.user.Lock()
	db.user.table = make(map[string]*user.User)
	db.user.Unlock()

	db.room.Lock()
	db.room.table = make(map[string]*room.Room)
	db.room.Unlock()

	db.complaint.Lock()
	db.complaint.table = make(map[string]*complaint.Complaint)
	db.complaint.Unlock()

	db.leave.Lock()
	db.leave.table = make(map[string]*leave.LeaveRequest)
	db.leave.Unlock()

	db.attendance.Lock()
	db.attendance.table = make(map[string]*attendance.Record)
	db.attendance.order = nil
	db.attendance.Unlock()

	db.notif.Lock()
	db.notif.table = make(map[string]*notif.Notification)
	db.notif.order = nil
	db.notif.Unlock()
}

// BeginTx hands back a no-op transactor; map writes apply immediately, so
// transactional services work unchanged on top of this DB.
func (db *DB) BeginTx(ctx context.Context, opts *sql.TxOptions) (core.DBTransactor, error) {
	return noopTx{}, nil
}

type noopTx struct {
	noopExecutor
}

func (noopTx) Commit() error   { return nil }
func (noopTx) Rollback() error { return nil }

// noopExecutor satisfies core.DBExecutor; the dummy repositories never run
// SQL, they only accept the executor arguments services thread through.
type noopExecutor struct{}

func (noopExecutor) DriverName() string     { return "dummy" }
func (noopExecutor) Rebind(q string) string { return q }
func (noopExecutor) BindNamed(q string, arg interface{}) (string, []interface{}, error) {
	return q, nil, nil
}
func (noopExecutor) QueryContext(ctx context.Context, q string, args ...interface{}) (*sql.Rows, error) {
	return nil, nil
}
func (noopExecutor) QueryxContext(ctx context.Context, q string, args ...interface{}) (*sqlx.Rows, error) {
	return nil, nil
}
func (noopExecutor) QueryRowxContext(ctx context.Context, q string, args ...interface{}) *sqlx.Row {
	return nil
}
func (noopExecutor) ExecContext(ctx context.Context, q string, args ...interface{}) (sql.Result, error) {
	return nil, nil
}
