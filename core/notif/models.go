package notif

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/nkashama/bweni/core"
)

var ErrNotFound = errors.New("notification not found")

// Notification is an outbox row: an outbound message recorded in the same
// transaction as the business write that caused it, delivered later by the
// Relay.
type Notification struct {
	ID        string      `json:"id"`
	Recipient string      `json:"recipient"`
	Body      string      `json:"body"`
	Attempts  int         `json:"attempts"`
	LastError null.String `json:"lastError,omitempty"`
	SentAt    null.Time   `json:"sentAt,omitempty"`
	CreatedAt time.Time   `json:"createdAt"` // UTC
}

func (n *Notification) IsSent() bool {
	return n.SentAt.Valid
}

type Repository interface {
	// EnqueueNotification inserts an unsent row; pass the caller's
	// transaction so the enqueue commits or rolls back with the business
	// write.
	EnqueueNotification(ctx context.Context, n Notification, exec ...core.DBExecutor) (Notification, error)
	// QueryUnsentNotifications returns up to limit unsent rows, oldest first.
	QueryUnsentNotifications(ctx context.Context, limit int, exec ...core.DBExecutor) ([]Notification, error)
	MarkNotificationSent(ctx context.Context, id string, at time.Time, exec ...core.DBExecutor) error
	MarkNotificationFailed(ctx context.Context, id, sendErr string, exec ...core.DBExecutor) error
}

// Enqueue records a TextMessage for delivery.
func Enqueue(ctx context.Context, repo Repository, msg core.TextMessage, exec ...core.DBExecutor) error {
	if !msg.HasRecipient() {
		return nil
	}
	_, err := repo.EnqueueNotification(ctx, Notification{
		Recipient: msg.To,
		Body:      msg.Body,
		CreatedAt: time.Now().UTC(),
	}, exec...)
	return errors.Wrap(err, "enqueueing notification")
}
