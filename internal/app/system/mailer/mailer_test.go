package mailer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dalemusser/waffle/pantry/email"
	"go.uber.org/zap"
)

type captured struct {
	msgs []email.Message
	err  error
}

func (c *captured) Send(_ context.Context, msg email.Message) error {
	c.msgs = append(c.msgs, msg)
	return c.err
}

func TestSend_PassesMessageToSender(t *testing.T) {
	out := &captured{}
	m := &Mailer{sender: out, log: zap.NewNop()}

	e := BuildEmailChangeEmail(LinkEmailData{SiteName: "CouponHub", Link: "https://x.test/verify?token=abc", ExpiresIn: "24 hours"})
	e.To = "new@example.com"
	if err := m.Send(context.Background(), e); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	if len(out.msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(out.msgs))
	}
	got := out.msgs[0]
	if len(got.To) != 1 || got.To[0] != "new@example.com" {
		t.Errorf("to: got %v", got.To)
	}
	if got.Subject != e.Subject {
		t.Errorf("subject: got %q, want %q", got.Subject, e.Subject)
	}
	if !strings.Contains(got.TextBody, "https://x.test/verify?token=abc") || !strings.Contains(got.HTMLBody, "https://x.test/verify?token=abc") {
		t.Error("both bodies should carry the link")
	}
}

func TestSend_Errors(t *testing.T) {
	out := &captured{}
	m := &Mailer{sender: out, log: zap.NewNop()}
	if err := m.Send(context.Background(), Email{}); err == nil {
		t.Error("expected error for empty recipient")
	}
	if len(out.msgs) != 0 {
		t.Error("nothing should be sent without a recipient")
	}

	boom := errors.New("refused")
	out.err = boom
	if err := m.Send(context.Background(), Email{To: "a@b.c", TextBody: "x"}); !errors.Is(err, boom) {
		t.Errorf("got %v, want %v", err, boom)
	}
}

func TestNew_BacksOntoSMTPSender(t *testing.T) {
	m := New(Config{Host: "localhost", Port: 1025, From: "noreply@couponhub.test"}, zap.NewNop())
	if _, ok := m.sender.(*email.Sender); !ok {
		t.Errorf("sender: got %T", m.sender)
	}
}

func TestBuildVerifyCurrentEmail(t *testing.T) {
	e := BuildVerifyCurrentEmail(LinkEmailData{SiteName: "CouponHub", Link: "https://x.test/v", ExpiresIn: "1 hour"})
	if !strings.Contains(e.Subject, "Verify") {
		t.Errorf("subject: %q", e.Subject)
	}
	if !strings.Contains(e.HTMLBody, `href="https://x.test/v"`) || !strings.Contains(e.TextBody, "1 hour") {
		t.Error("bodies should carry link and expiry")
	}
}
