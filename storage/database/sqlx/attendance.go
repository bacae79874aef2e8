package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/nkashama/bweni/core"
	"github.com/nkashama/bweni/core/attendance"
)

type attendanceRow struct {
	ID             string    `db:"id"`
	StudentID      string    `db:"student_id"`
	Date           null.Time `db:"date"`
	TimeIn         null.Time `db:"time_in"`
	TimeOut        null.Time `db:"time_out"`
	IsPresent      bool      `db:"is_present"`
	IsLate         bool      `db:"is_late"`
	IsOnLeave      bool      `db:"is_on_leave"`
	ParentNotified bool      `db:"parent_notified"`
	NotifiedAt     null.Time `db:"notification_time"`
	CreatedAt      null.Time `db:"created_at"`
	UpdatedAt      null.Time `db:"updated_at"`
}

type attendanceRepository struct {
	exec core.DBExecutor
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(exec core.DBExecutor) *attendanceRepository {
	return &attendanceRepository{exec: exec}
}

func (repo attendanceRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo.exec
}

func (repo attendanceRepository) unrow(row attendanceRow) attendance.Record {
	return attendance.Record{
		ID:             row.ID,
		StudentID:      row.StudentID,
		Date:           row.Date.Time,
		TimeIn:         row.TimeIn,
		TimeOut:        row.TimeOut,
		IsPresent:      row.IsPresent,
		IsLate:         row.IsLate,
		IsOnLeave:      row.IsOnLeave,
		ParentNotified: row.ParentNotified,
		NotifiedAt:     row.NotifiedAt,
		CreatedAt:      row.CreatedAt.Time,
		UpdatedAt:      row.UpdatedAt.Time,
	}
}

func (repo attendanceRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return attendance.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo attendanceRepository) CreateRecord(ctx context.Context, rec attendance.Record, exec ...core.DBExecutor) (attendance.Record, error) {
	rec.ID = uuid.New().String()
	exe := repo.getExec(exec)

	q := exe.Rebind(`
INSERT INTO attendance (id, student_id, date, time_in, time_out, is_present, is_late, is_on_leave,
                        parent_notified, notification_time, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := exe.ExecContext(ctx, q,
		rec.ID, rec.StudentID, rec.Date.UTC(), rec.TimeIn, rec.TimeOut,
		rec.IsPresent, rec.IsLate, rec.IsOnLeave, rec.ParentNotified, rec.NotifiedAt,
		rec.CreatedAt.UTC(), rec.UpdatedAt.UTC(),
	)
	if err != nil {
		return attendance.Record{}, errors.Wrap(err, "inserting attendance record")
	}
	return rec, nil
}

func (repo attendanceRepository) GetRecord(ctx context.Context, id string, exec ...core.DBExecutor) (attendance.Record, error) {
	if _, err := uuid.Parse(id); err != nil {
		return attendance.Record{}, attendance.ErrNotFound
	}
	exe := repo.getExec(exec)

	var row attendanceRow
	q := exe.Rebind(`SELECT * FROM attendance WHERE id = ?`)
	if err := sqlx.GetContext(ctx, exe, &row, q, id); err != nil {
		return attendance.Record{}, repo.trapNoRowsErr(err, "getting attendance record")
	}
	return repo.unrow(row), nil
}

func (repo attendanceRepository) GetRecordForDate(ctx context.Context, studentID string, date time.Time, exec ...core.DBExecutor) (attendance.Record, error) {
	exe := repo.getExec(exec)

	var row attendanceRow
	q := exe.Rebind(`SELECT * FROM attendance WHERE student_id = ? AND date = ?`)
	if err := sqlx.GetContext(ctx, exe, &row, q, studentID, date.UTC()); err != nil {
		return attendance.Record{}, repo.trapNoRowsErr(err, "getting attendance record")
	}
	return repo.unrow(row), nil
}

func (repo attendanceRepository) QueryRecords(ctx context.Context, filter *attendance.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]attendance.Record, error) {
	exe := repo.getExec(exec)

	var conds []string
	var args []interface{}
	if filter != nil {
		if filter.StudentID != "" {
			conds = append(conds, "student_id = ?")
			args = append(args, filter.StudentID)
		}
		if filter.DateFrom != nil {
			conds = append(conds, "date >= ?")
			args = append(args, filter.DateFrom.UTC())
		}
		if filter.DateTo != nil {
			conds = append(conds, "date <= ?")
			args = append(args, filter.DateTo.UTC())
		}
	}

	q := `SELECT * FROM attendance`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += orderBy(ordering)

	var rows []attendanceRow
	if err := sqlx.SelectContext(ctx, exe, &rows, exe.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying attendance records")
	}
	records := make([]attendance.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, repo.unrow(row))
	}
	return records, nil
}

func (repo attendanceRepository) UpdateRecord(ctx context.Context, rec attendance.Record, exec ...core.DBExecutor) (attendance.Record, error) {
	exe := repo.getExec(exec)

	q := exe.Rebind(`
UPDATE attendance
SET time_in = ?, time_out = ?, is_present = ?, is_late = ?, is_on_leave = ?,
    parent_notified = ?, notification_time = ?, updated_at = ?
WHERE id = ?`)
	res, err := exe.ExecContext(ctx, q,
		rec.TimeIn, rec.TimeOut, rec.IsPresent, rec.IsLate, rec.IsOnLeave,
		rec.ParentNotified, rec.NotifiedAt, rec.UpdatedAt.UTC(), rec.ID,
	)
	if err != nil {
		return attendance.Record{}, errors.Wrap(err, "updating attendance record")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return attendance.Record{}, attendance.ErrNotFound
	}
	return rec, nil
}
