package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/nkashama/bweni/core"
	"github.com/nkashama/bweni/core/notif"
)

type notifRow struct {
	ID        string      `db:"id"`
	Recipient string      `db:"recipient"`
	Body      string      `db:"body"`
	Attempts  int         `db:"attempts"`
	LastError null.String `db:"last_error"`
	SentAt    null.Time   `db:"sent_at"`
	CreatedAt null.Time   `db:"created_at"`
}

type notifRepository struct {
	exec core.DBExecutor
}

var _ notif.Repository = (*notifRepository)(nil) // interface compliance check

func NewNotifRepository(exec core.DBExecutor) *notifRepository {
	return &notifRepository{exec: exec}
}

func (repo notifRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo.exec
}

func (repo notifRepository) unrow(row notifRow) notif.Notification {
	return notif.Notification{
		ID:        row.ID,
		Recipient: row.Recipient,
		Body:      row.Body,
		Attempts:  row.Attempts,
		LastError: row.LastError,
		SentAt:    row.SentAt,
		CreatedAt: row.CreatedAt.Time,
	}
}

func (repo notifRepository) EnqueueNotification(ctx context.Context, n notif.Notification, exec ...core.DBExecutor) (notif.Notification, error) {
	n.ID = uuid.New().String()
	exe := repo.getExec(exec)

	q := exe.Rebind(`
INSERT INTO notification (id, recipient, body, attempts, last_error, sent_at, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`)
	_, err := exe.ExecContext(ctx, q,
		n.ID, n.Recipient, n.Body, n.Attempts, n.LastError, n.SentAt, n.CreatedAt.UTC(),
	)
	if err != nil {
		return notif.Notification{}, errors.Wrap(err, "enqueueing notification")
	}
	return n, nil
}

func (repo notifRepository) QueryUnsentNotifications(ctx context.Context, limit int, exec ...core.DBExecutor) ([]notif.Notification, error) {
	exe := repo.getExec(exec)

	q := exe.Rebind(`SELECT * FROM notification WHERE sent_at IS NULL ORDER BY created_at ASC LIMIT ?`)
	var rows []notifRow
	if err := sqlx.SelectContext(ctx, exe, &rows, q, limit); err != nil {
		return nil, errors.Wrap(err, "querying unsent notifications")
	}
	notifs := make([]notif.Notification, 0, len(rows))
	for _, row := range rows {
		notifs = append(notifs, repo.unrow(row))
	}
	return notifs, nil
}

func (repo notifRepository) MarkNotificationSent(ctx context.Context, id string, at time.Time, exec ...core.DBExecutor) error {
	exe := repo.getExec(exec)

	q := exe.Rebind(`UPDATE notification SET sent_at = ?, attempts = attempts + 1, last_error = NULL WHERE id = ?`)
	res, err := exe.ExecContext(ctx, q, at.UTC(), id)
	if err != nil {
		return errors.Wrap(err, "marking notification sent")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return notif.ErrNotFound
	}
	return nil
}

func (repo notifRepository) MarkNotificationFailed(ctx context.Context, id, sendErr string, exec ...core.DBExecutor) error {
	exe := repo.getExec(exec)

	q := exe.Rebind(`UPDATE notification SET attempts = attempts + 1, last_error = ? WHERE id = ?`)
	res, err := exe.ExecContext(ctx, q, sendErr, id)
	if err != nil {
		return errors.Wrap(err, "marking notification failed")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return notif.ErrNotFound
	}
	return nil
}
