package messaging

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/nats-io/nats.go"

	"kino-alert-matching-service/internal/models"
)

func TestPushAlertSubject(t *testing.T) {
	got, err := PushAlertSubject("user-42")
	if err != nil || got != "kino.alerts.push.user-42" {
		t.Errorf("PushAlertSubject() = %q, %v", got, err)
	}
}

func TestPushAlertSubject_RejectsInvalidTokens(t *testing.T) {
	for _, id := range []string{"", "a.b", "user*", "user>", "john doe", "tab\tid"} {
		if _, err := PushAlertSubject(id); !errors.Is(err, models.ErrInvalidRecipient) {
			t.Errorf("PushAlertSubject(%q): expected ErrInvalidRecipient, got %v", id, err)
		}
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("nats://localhost:4222", "test")
	if cfg.MaxReconnects != -1 || cfg.ReconnectWait != 2*time.Second {
		t.Errorf("unexpected defaults %+v", cfg)
	}
}

func testURL() string {
	if url := os.Getenv("TEST_NATS_URL"); url != "" {
		return url
	}
	return "nats://localhost:4222"
}

func TestPublishPushAlert(t *testing.T) {
	url := testURL()
	client, err := NewClient(DefaultConfig(url, "kino-alert-test"))
	if err != nil {
		t.Skipf("NATS not available at %s: %v", url, err)
	}
	defer client.Close()

	if !client.Connected() {
		t.Fatal("expected client to be connected")
	}

	sub, err := nats.Connect(url)
	if err != nil {
		t.Fatalf("subscriber connect: %v", err)
	}
	defer sub.Close()

	got := make(chan *nats.Msg, 1)
	if _, err := sub.ChanSubscribe(SubjectPushAlert+".*", got); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := sub.Flush(); err != nil {
		t.Fatalf("flush subscription: %v", err)
	}

	if err := client.PublishPushAlert("u1", []byte(`{"ok":true}`)); err != nil {
		t.Fatalf("PublishPushAlert() error: %v", err)
	}

	select {
	case m := <-got:
		if m.Subject != "kino.alerts.push.u1" || string(m.Data) != `{"ok":true}` {
			t.Errorf("unexpected message %s %s", m.Subject, m.Data)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for push alert")
	}

	if err := client.PublishPushAlert("a.b", []byte(`{}`)); !errors.Is(err, models.ErrInvalidRecipient) {
		t.Errorf("expected ErrInvalidRecipient for dotted id, got %v", err)
	}
}
