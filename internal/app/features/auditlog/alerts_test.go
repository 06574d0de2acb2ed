package auditlog

import (
	"testing"
	"time"

	"github.com/dalemusser/couponhub/internal/domain/models"
)

func TestAlertTracker(t *testing.T) {
	t0 := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	entry := func(action string, at time.Time) models.AuditEntry {
		return models.AuditEntry{Action: action, Object: "coupon", Time: at}
	}

	var tr alertTracker
	if got := tr.next(nil); got != nil {
		t.Fatalf("empty snapshot should not alert, got %v", got)
	}

	got := tr.next([]models.AuditEntry{entry("created", t0)})
	if len(got) != 1 || got[0].(alert).Message != "Audit log updated: created coupon" {
		t.Fatalf("first snapshot: got %+v", got)
	}

	if got := tr.next([]models.AuditEntry{entry("created", t0)}); got != nil {
		t.Errorf("same newest entry should not alert again, got %v", got)
	}
	if got := tr.next([]models.AuditEntry{entry("older", t0.Add(-time.Minute))}); got != nil {
		t.Errorf("older newest entry should not alert, got %v", got)
	}

	got = tr.next([]models.AuditEntry{entry("deleted", t0.Add(time.Second)), entry("created", t0)})
	if len(got) != 1 || got[0].(alert).Message != "Audit log updated: deleted coupon" {
		t.Errorf("newer entry: got %+v", got)
	}
}
