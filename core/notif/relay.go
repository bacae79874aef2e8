package notif

import (
	"context"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/nkashama/bweni/core"
)

// Relay drains the notification outbox in the background. Failed sends keep
// their row and are retried on the next cycle; a circuit breaker keeps an
// unavailable provider from being hammered.
type Relay struct {
	repo   Repository
	msgSvc core.MessagingService
	logger core.Logger
	conf   *core.Config
	cb     *gobreaker.CircuitBreaker
}

func NewRelay(repo Repository, msgSvc core.MessagingService, logger core.Logger, conf *core.Config) *Relay {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "notif-provider",
		Timeout: conf.Notif.PollInterval * 2,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return &Relay{repo: repo, msgSvc: msgSvc, logger: logger, conf: conf, cb: cb}
}

// Start blocks until ctx is cancelled, processing the outbox every poll
// interval (and once on startup to catch any backlog).
func (r *Relay) Start(ctx context.Context) error {
	r.processBatch(ctx)

	ticker := time.NewTicker(r.conf.Notif.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("notification relay: shutting down")
			return ctx.Err()
		case <-ticker.C:
			r.processBatch(ctx)
		}
	}
}

// ProcessOnce drains one batch; exposed for tests and the admin CLI.
func (r *Relay) ProcessOnce(ctx context.Context) (sent int, err error) {
	return r.processBatch(ctx)
}

func (r *Relay) processBatch(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, r.conf.Notif.SendTimeout*time.Duration(r.conf.Notif.BatchSize))
	defer cancel()

	pending, err := r.repo.QueryUnsentNotifications(ctx, r.conf.Notif.BatchSize)
	if err != nil {
		r.logger.Error(fmt.Sprintf("notification relay: querying outbox: %v", err), err)
		return 0, err
	}

	var sent int
	for _, n := range pending {
		if ctx.Err() != nil {
			return sent, ctx.Err()
		}
		if err := r.deliver(n); err != nil {
			r.logger.Warn(fmt.Sprintf("notification relay: sending %s: %v", n.ID, err))
			if mErr := r.repo.MarkNotificationFailed(ctx, n.ID, err.Error()); mErr != nil {
				r.logger.Error(fmt.Sprintf("notification relay: marking %s failed: %v", n.ID, mErr), mErr)
			}
			continue
		}
		if err := r.repo.MarkNotificationSent(ctx, n.ID, time.Now().UTC()); err != nil {
			r.logger.Error(fmt.Sprintf("notification relay: marking %s sent: %v", n.ID, err), err)
			continue
		}
		sent++
	}
	return sent, nil
}

func (r *Relay) deliver(n Notification) error {
	_, err := r.cb.Execute(func() (interface{}, error) {
		return nil, r.msgSvc.SendMessage(core.TextMessage{To: n.Recipient, Body: n.Body})
	})
	return err
}
