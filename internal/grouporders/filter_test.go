package grouporders

import (
	"testing"
	"time"

	"github.com/angelmondragon/pintuan-backend/pkg/db/models"
)

func TestDueForClosingInclusiveBoundary(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	past := openGroup(now.Add(-time.Hour))
	exact := openGroup(now)
	future := openGroup(now.Add(time.Second))
	groups := []models.GroupOrder{future, past, exact}

	due := DueForClosing(groups, now)

	if len(due) != 2 {
		t.Fatalf("expected 2 due groups, got %d", len(due))
	}
	if due[0].ID != past.ID || due[1].ID != exact.ID {
		t.Fatal("due groups should keep input order")
	}
	if len(groups) != 3 || groups[0].ID != future.ID {
		t.Fatal("input slice must not be modified")
	}
}

func TestDueForClosingEmpty(t *testing.T) {
	due := DueForClosing(nil, time.Now())
	if due == nil || len(due) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", due)
	}
}

func TestDueForClosingResultIsIndependent(t *testing.T) {
	now := time.Now().UTC()
	groups := []models.GroupOrder{openGroup(now.Add(-time.Minute))}
	due := DueForClosing(groups, now)
	due[0].CloseDeadline = now.Add(time.Hour)
	if groups[0].CloseDeadline.After(now) {
		t.Fatal("mutating the result leaked into the input")
	}
}
