package email

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"peopleguard/internal/platform/config"
)

func TestNewReturnsNoopWhenDisabled(t *testing.T) {
	mailer := New(config.Config{EmailEnabled: false, SMTPHost: "smtp.example.com"})
	if _, ok := mailer.(noopMailer); !ok {
		t.Fatalf("expected noop mailer, got %T", mailer)
	}
	if err := mailer.Send(context.Background(), "a@example.com", "b@example.com", "s", "b"); err != nil {
		t.Fatalf("noop send: %v", err)
	}
}

func TestNewReturnsSMTPWhenConfigured(t *testing.T) {
	mailer := New(config.Config{EmailEnabled: true, SMTPHost: "smtp.example.com", SMTPPort: 587})
	if _, ok := mailer.(*smtpMailer); !ok {
		t.Fatalf("expected smtp mailer, got %T", mailer)
	}
}

func TestBuildMessageHeaders(t *testing.T) {
	msg := buildMessage("no-reply@example.com", "er@example.com", "New QR submission", "A complaint was received.")
	var buf bytes.Buffer
	if _, err := msg.WriteTo(&buf); err != nil {
		t.Fatalf("write message: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"From: no-reply@example.com", "To: er@example.com", "Subject: New QR submission", "A complaint was received."} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in message:\n%s", want, out)
		}
	}
}
