package notify

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tradeloom/portal/internal/core/ports"
)

func TestLogNotifierMasksSecrets(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(zerolog.New(&buf))

	err := n.Send(context.Background(), ports.Notification{
		Kind:      ports.NotifyInvestorCredentials,
		Recipient: "inv@x.com",
		Subject:   "Your investor access",
		Fields:    map[string]string{"investor_login": "8829102", "investor_password": "hunter2"},
		Secret:    []string{"investor_password"},
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	out := buf.String()
	if strings.Contains(out, "hunter2") {
		t.Fatalf("secret leaked into log: %s", out)
	}
	for _, want := range []string{"8829102", masked, "inv@x.com", "investor_credentials"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in log, got %s", want, out)
		}
	}
}

func TestLogNotifierHonoursCancelledContext(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(zerolog.New(&buf))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := n.Send(ctx, ports.Notification{Kind: ports.NotifyLicenseIssued}); err == nil {
		t.Fatal("expected context error")
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no log output, got %s", buf.String())
	}
}
