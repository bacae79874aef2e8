package notif_test

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/nkashama/bweni/core"
	"github.com/nkashama/bweni/core/notif"
	logsvc "github.com/nkashama/bweni/services/logger"
	msgsvc "github.com/nkashama/bweni/services/messaging"
	dummydb "github.com/nkashama/bweni/storage/database/dummy"
)

// flakyMsgSvc fails the first failFirst sends, then delivers.
type flakyMsgSvc struct {
	failFirst int
	calls     int
	sent      []core.TextMessage
}

func (svc *flakyMsgSvc) SendMessage(msg core.TextMessage) error {
	svc.calls++
	if svc.calls <= svc.failFirst {
		return errors.New("provider unavailable")
	}
	svc.sent = append(svc.sent, msg)
	return nil
}

func setup(t *testing.T) (*core.Config, notif.Repository) {
	t.Helper()

	conf := &core.Config{TestMode: true, Env: "TEST"}
	conf.Notif.BatchSize = 10
	conf.Notif.PollInterval = time.Minute
	conf.Notif.SendTimeout = 5 * time.Second

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	return conf, dummydb.NewNotifRepository(db)
}

func newLogger(conf *core.Config) core.Logger {
	return logsvc.NewRollbarLogger(log.New(os.Stdout, "TEST : ", log.LstdFlags), conf)
}

func enqueue(t *testing.T, repo notif.Repository, to, body string) {
	t.Helper()
	if err := notif.Enqueue(context.Background(), repo, core.TextMessage{To: to, Body: body}); err != nil {
		t.Fatalf("Enqueue() failed: %v", err)
	}
}

func unsent(t *testing.T, repo notif.Repository) []notif.Notification {
	t.Helper()
	pending, err := repo.QueryUnsentNotifications(context.Background(), 100)
	if err != nil {
		t.Fatalf("QueryUnsentNotifications() failed: %v", err)
	}
	return pending
}

func TestEnqueue_skipsEmptyRecipient(t *testing.T) {
	_, repo := setup(t)
	ctx := context.Background()

	if err := notif.Enqueue(ctx, repo, core.TextMessage{Body: "hello"}); err != nil {
		t.Fatalf("Enqueue() failed: %v", err)
	}
	if got := unsent(t, repo); len(got) != 0 {
		t.Errorf("failed! unsent = %d; want 0", len(got))
	}
}

func TestRelay_ProcessOnce(t *testing.T) {
	conf, repo := setup(t)
	ctx := context.Background()

	enqueue(t, repo, "0810000001", "first")
	enqueue(t, repo, "0810000002", "second")
	enqueue(t, repo, "0810000003", "third")

	msgSvc := msgsvc.NewConsoleServiceMock()
	relay := notif.NewRelay(repo, msgSvc, newLogger(conf), conf)

	sent, err := relay.ProcessOnce(ctx)
	if err != nil {
		t.Fatalf("ProcessOnce() failed: %v", err)
	}
	if sent != 3 {
		t.Errorf("failed! sent = %d; want 3", sent)
	}
	if got := unsent(t, repo); len(got) != 0 {
		t.Errorf("failed! unsent = %d; want 0", len(got))
	}

	messages := msgSvc.SentMessages()
	if len(messages) != 3 {
		t.Fatalf("failed! delivered = %d; want 3", len(messages))
	}
	// oldest first
	if messages[0].To != "0810000001" || messages[0].Body != "first" {
		t.Errorf("failed! first delivery = %+v", messages[0])
	}
	if messages[2].Body != "third" {
		t.Errorf("failed! last delivery = %+v", messages[2])
	}
}

func TestRelay_retriesFailures(t *testing.T) {
	conf, repo := setup(t)
	ctx := context.Background()

	enqueue(t, repo, "0810000001", "flaky")
	enqueue(t, repo, "0810000002", "steady")

	msgSvc := &flakyMsgSvc{failFirst: 1}
	relay := notif.NewRelay(repo, msgSvc, newLogger(conf), conf)

	// first pass: the first send fails and keeps its row
	sent, err := relay.ProcessOnce(ctx)
	if err != nil {
		t.Fatalf("ProcessOnce() failed: %v", err)
	}
	if sent != 1 {
		t.Errorf("failed! sent = %d; want 1", sent)
	}
	pending := unsent(t, repo)
	if len(pending) != 1 {
		t.Fatalf("failed! unsent = %d; want 1", len(pending))
	}
	if n := pending[0]; n.Recipient != "0810000001" || n.Attempts != 1 || !n.LastError.Valid {
		t.Errorf("failed! failure not recorded: %+v", n)
	}

	// second pass drains the retry
	sent, err = relay.ProcessOnce(ctx)
	if err != nil {
		t.Fatalf("ProcessOnce() failed: %v", err)
	}
	if sent != 1 {
		t.Errorf("failed! sent = %d; want 1", sent)
	}
	if got := unsent(t, repo); len(got) != 0 {
		t.Errorf("failed! unsent = %d; want 0", len(got))
	}
	if len(msgSvc.sent) != 2 {
		t.Errorf("failed! delivered = %d; want 2", len(msgSvc.sent))
	}
}

func TestRelay_breakerTripsAfterConsecutiveFailures(t *testing.T) {
	conf, repo := setup(t)
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		enqueue(t, repo, "0810000001", "down")
	}

	msgSvc := &flakyMsgSvc{failFirst: 100}
	relay := notif.NewRelay(repo, msgSvc, newLogger(conf), conf)

	sent, err := relay.ProcessOnce(ctx)
	if err != nil {
		t.Fatalf("ProcessOnce() failed: %v", err)
	}
	if sent != 0 {
		t.Errorf("failed! sent = %d; want 0", sent)
	}
	// the breaker opens after 5 consecutive failures; the rest of the batch
	// is failed fast without hitting the provider
	if msgSvc.calls != 5 {
		t.Errorf("failed! provider calls = %d; want 5", msgSvc.calls)
	}
	for _, n := range unsent(t, repo) {
		if n.Attempts != 1 || !n.LastError.Valid {
			t.Errorf("failed! failure not recorded: %+v", n)
		}
	}
}
