package dummydb

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"

	"github.com/nkashama/bweni/core"
	"github.com/nkashama/bweni/core/notif"
)

type notifRepository struct {
	db *notifTable
}

var _ notif.Repository = (*notifRepository)(nil) // interface compliance check

func NewNotifRepository(db *DB) notif.Repository {
	return &notifRepository{db: db.notif}
}

func (repo *notifRepository) EnqueueNotification(ctx context.Context, n notif.Notification, exec ...core.DBExecutor) (notif.Notification, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	n.ID = uuid.New().String()
	repo.db.table[n.ID] = &n
	repo.db.order = append(repo.db.order, n.ID)
	return n, nil
}

func (repo *notifRepository) QueryUnsentNotifications(ctx context.Context, limit int, exec ...core.DBExecutor) ([]notif.Notification, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	notifs := make([]notif.Notification, 0, limit)
	for _, id := range repo.db.order {
		n, ok := repo.db.table[id]
		if !ok || n.IsSent() {
			continue
		}
		notifs = append(notifs, *n)
		if len(notifs) == limit {
			break
		}
	}
	return notifs, nil
}

func (repo *notifRepository) MarkNotificationSent(ctx context.Context, id string, at time.Time, exec ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	n, ok := repo.db.table[id]
	if !ok {
		return notif.ErrNotFound
	}
	n.SentAt = null.TimeFrom(at)
	n.Attempts++
	n.LastError = null.String{}
	return nil
}

func (repo *notifRepository) MarkNotificationFailed(ctx context.Context, id, sendErr string, exec ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	n, ok := repo.db.table[id]
	if !ok {
		return notif.ErrNotFound
	}
	n.Attempts++
	n.LastError = null.StringFrom(sendErr)
	return nil
}
