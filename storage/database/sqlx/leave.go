package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/nkashama/bweni/core"
	"github.com/nkashama/bweni/core/leave"
)

type leaveRow struct {
	ID                 string      `db:"id"`
	StudentID          string      `db:"student_id"`
	Reason             string      `db:"reason"`
	StartDate          null.Time   `db:"start_date"`
	EndDate            null.Time   `db:"end_date"`
	Status             string      `db:"status"`
	ParentApproval     bool        `db:"parent_approval"`
	ParentApprovalDate null.Time   `db:"parent_approval_date"`
	AdminApproval      bool        `db:"admin_approval"`
	AdminApprovalDate  null.Time   `db:"admin_approval_date"`
	ApprovedBy         null.String `db:"approved_by"`
	RejectionReason    string      `db:"rejection_reason"`
	CreatedAt          null.Time   `db:"created_at"`
	UpdatedAt          null.Time   `db:"updated_at"`
}

type leaveRepository struct {
	exec core.DBExecutor
}

var _ leave.Repository = (*leaveRepository)(nil) // interface compliance check

func NewLeaveRepository(exec core.DBExecutor) *leaveRepository {
	return &leaveRepository{exec: exec}
}

func (repo leaveRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo.exec
}

func (repo leaveRepository) unrow(row leaveRow) leave.LeaveRequest {
	return leave.LeaveRequest{
		ID:                 row.ID,
		StudentID:          row.StudentID,
		Reason:             row.Reason,
		StartDate:          row.StartDate.Time,
		EndDate:            row.EndDate.Time,
		Status:             row.Status,
		ParentApproval:     row.ParentApproval,
		ParentApprovalDate: row.ParentApprovalDate,
		AdminApproval:      row.AdminApproval,
		AdminApprovalDate:  row.AdminApprovalDate,
		ApprovedBy:         row.ApprovedBy,
		RejectionReason:    row.RejectionReason,
		CreatedAt:          row.CreatedAt.Time,
		UpdatedAt:          row.UpdatedAt.Time,
	}
}

func (repo leaveRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return leave.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo leaveRepository) CreateLeaveRequest(ctx context.Context, lr leave.LeaveRequest, exec ...core.DBExecutor) (leave.LeaveRequest, error) {
	lr.ID = uuid.New().String()
	exe := repo.getExec(exec)

	q := exe.Rebind(`
INSERT INTO leave_request (id, student_id, reason, start_date, end_date, status,
                           parent_approval, parent_approval_date, admin_approval, admin_approval_date,
                           approved_by, rejection_reason, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := exe.ExecContext(ctx, q,
		lr.ID, lr.StudentID, lr.Reason, lr.StartDate.UTC(), lr.EndDate.UTC(), lr.Status,
		lr.ParentApproval, lr.ParentApprovalDate, lr.AdminApproval, lr.AdminApprovalDate,
		lr.ApprovedBy, lr.RejectionReason, lr.CreatedAt.UTC(), lr.UpdatedAt.UTC(),
	)
	if err != nil {
		return leave.LeaveRequest{}, errors.Wrap(err, "inserting leave request")
	}
	return lr, nil
}

func (repo leaveRepository) GetLeaveRequest(ctx context.Context, id string, exec ...core.DBExecutor) (leave.LeaveRequest, error) {
	if _, err := uuid.Parse(id); err != nil {
		return leave.LeaveRequest{}, leave.ErrNotFound
	}
	exe := repo.getExec(exec)

	var row leaveRow
	q := exe.Rebind(`SELECT * FROM leave_request WHERE id = ?`)
	if err := sqlx.GetContext(ctx, exe, &row, q, id); err != nil {
		return leave.LeaveRequest{}, repo.trapNoRowsErr(err, "getting leave request")
	}
	return repo.unrow(row), nil
}

func (repo leaveRepository) QueryLeaveRequests(ctx context.Context, filter *leave.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]leave.LeaveRequest, error) {
	exe := repo.getExec(exec)

	var conds []string
	var args []interface{}
	if filter != nil {
		if filter.Status != "" {
			conds = append(conds, "status = ?")
			args = append(args, filter.Status)
		}
		if filter.StudentID != "" {
			conds = append(conds, "student_id = ?")
			args = append(args, filter.StudentID)
		}
	}

	q := `SELECT * FROM leave_request`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += orderBy(ordering)

	var rows []leaveRow
	if err := sqlx.SelectContext(ctx, exe, &rows, exe.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying leave requests")
	}
	requests := make([]leave.LeaveRequest, 0, len(rows))
	for _, row := range rows {
		requests = append(requests, repo.unrow(row))
	}
	return requests, nil
}

func (repo leaveRepository) UpdateLeaveRequest(ctx context.Context, lr leave.LeaveRequest, exec ...core.DBExecutor) (leave.LeaveRequest, error) {
	exe := repo.getExec(exec)

	q := exe.Rebind(`
UPDATE leave_request
SET status = ?, parent_approval = ?, parent_approval_date = ?, admin_approval = ?,
    admin_approval_date = ?, approved_by = ?, rejection_reason = ?, updated_at = ?
WHERE id = ?`)
	res, err := exe.ExecContext(ctx, q,
		lr.Status, lr.ParentApproval, lr.ParentApprovalDate, lr.AdminApproval,
		lr.AdminApprovalDate, lr.ApprovedBy, lr.RejectionReason, lr.UpdatedAt.UTC(), lr.ID,
	)
	if err != nil {
		return leave.LeaveRequest{}, errors.Wrap(err, "updating leave request")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return leave.LeaveRequest{}, leave.ErrNotFound
	}
	return lr, nil
}

func (repo leaveRepository) DeleteLeaveRequest(ctx context.Context, id string, exec ...core.DBExecutor) error {
	exe := repo.getExec(exec)

	res, err := exe.ExecContext(ctx, exe.Rebind(`DELETE FROM leave_request WHERE id = ?`), id)
	if err != nil {
		return errors.Wrap(err, "deleting leave request")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return leave.ErrNotFound
	}
	return nil
}
