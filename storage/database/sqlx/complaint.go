package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/nkashama/bweni/core"
	"github.com/nkashama/bweni/core/complaint"
)

type complaintRow struct {
	ID          string         `db:"id"`
	StudentID   string         `db:"student_id"`
	Title       string         `db:"title"`
	Description string         `db:"description"`
	Type        string         `db:"type"`
	IsAnonymous bool           `db:"is_anonymous"`
	Status      string         `db:"status"`
	Upvotes     pq.StringArray `db:"upvotes"`
	Downvotes   pq.StringArray `db:"downvotes"`
	ResolvedAt  null.Time      `db:"resolved_at"`
	ResolvedBy  null.String    `db:"resolved_by"`
	CreatedAt   null.Time      `db:"created_at"`
	UpdatedAt   null.Time      `db:"updated_at"`
}

type complaintRepository struct {
	exec core.DBExecutor
}

var _ complaint.Repository = (*complaintRepository)(nil) // interface compliance check

func NewComplaintRepository(exec core.DBExecutor) *complaintRepository {
	return &complaintRepository{exec: exec}
}

func (repo complaintRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo.exec
}

func (repo complaintRepository) unrow(row complaintRow) complaint.Complaint {
	return complaint.Complaint{
		ID:          row.ID,
		Title:       row.Title,
		Type:        row.Type,
		Description: row.Description,
		StudentID:   row.StudentID,
		Status:      row.Status,
		IsAnonymous: row.IsAnonymous,
		Upvotes:     row.Upvotes,
		Downvotes:   row.Downvotes,
		ResolvedAt:  row.ResolvedAt,
		ResolvedBy:  row.ResolvedBy,
		CreatedAt:   row.CreatedAt.Time,
		UpdatedAt:   row.UpdatedAt.Time,
	}
}

func (repo complaintRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return complaint.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo complaintRepository) CreateComplaint(ctx context.Context, compl complaint.Complaint, exec ...core.DBExecutor) (complaint.Complaint, error) {
	compl.ID = uuid.New().String()
	exe := repo.getExec(exec)

	q := exe.Rebind(`
INSERT INTO complaint (id, student_id, title, description, type, is_anonymous, status,
                       upvotes, downvotes, resolved_at, resolved_by, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := exe.ExecContext(ctx, q,
		compl.ID, compl.StudentID, compl.Title, compl.Description, compl.Type, compl.IsAnonymous,
		compl.Status, pq.Array(compl.Upvotes), pq.Array(compl.Downvotes),
		compl.ResolvedAt, compl.ResolvedBy, compl.CreatedAt.UTC(), compl.UpdatedAt.UTC(),
	)
	if err != nil {
		return complaint.Complaint{}, errors.Wrap(err, "inserting complaint")
	}
	return compl, nil
}

func (repo complaintRepository) GetComplaint(ctx context.Context, id string, exec ...core.DBExecutor) (complaint.Complaint, error) {
	if _, err := uuid.Parse(id); err != nil {
		return complaint.Complaint{}, complaint.ErrNotFound
	}
	exe := repo.getExec(exec)

	var row complaintRow
	q := exe.Rebind(`SELECT * FROM complaint WHERE id = ?`)
	if err := sqlx.GetContext(ctx, exe, &row, q, id); err != nil {
		return complaint.Complaint{}, repo.trapNoRowsErr(err, "getting complaint")
	}
	return repo.unrow(row), nil
}

func (repo complaintRepository) QueryComplaints(ctx context.Context, filter *complaint.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]complaint.Complaint, error) {
	exe := repo.getExec(exec)

	var conds []string
	var args []interface{}
	if filter != nil {
		if filter.Status != "" {
			conds = append(conds, "status = ?")
			args = append(args, filter.Status)
		}
		if filter.Type != "" {
			conds = append(conds, "type = ?")
			args = append(args, filter.Type)
		}
	}

	q := `SELECT * FROM complaint`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += orderBy(ordering)

	var rows []complaintRow
	if err := sqlx.SelectContext(ctx, exe, &rows, exe.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying complaints")
	}
	complaints := make([]complaint.Complaint, 0, len(rows))
	for _, row := range rows {
		complaints = append(complaints, repo.unrow(row))
	}
	return complaints, nil
}

func (repo complaintRepository) UpdateComplaint(ctx context.Context, compl complaint.Complaint, exec ...core.DBExecutor) (complaint.Complaint, error) {
	exe := repo.getExec(exec)

	q := exe.Rebind(`
UPDATE complaint
SET title = ?, description = ?, type = ?, status = ?, upvotes = ?, downvotes = ?,
    resolved_at = ?, resolved_by = ?, updated_at = ?
WHERE id = ?`)
	res, err := exe.ExecContext(ctx, q,
		compl.Title, compl.Description, compl.Type, compl.Status,
		pq.Array(compl.Upvotes), pq.Array(compl.Downvotes),
		compl.ResolvedAt, compl.ResolvedBy, compl.UpdatedAt.UTC(), compl.ID,
	)
	if err != nil {
		return complaint.Complaint{}, errors.Wrap(err, "updating complaint")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return complaint.Complaint{}, complaint.ErrNotFound
	}
	return compl, nil
}

func (repo complaintRepository) DeleteComplaint(ctx context.Context, id string, exec ...core.DBExecutor) error {
	exe := repo.getExec(exec)

	res, err := exe.ExecContext(ctx, exe.Rebind(`DELETE FROM complaint WHERE id = ?`), id)
	if err != nil {
		return errors.Wrap(err, "deleting complaint")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return complaint.ErrNotFound
	}
	return nil
}
