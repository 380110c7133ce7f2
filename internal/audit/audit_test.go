package audit

import (
	"log/slog"
	"testing"

	"github.com/google/uuid"
)

func TestLog_DropsWhenFull(t *testing.T) {
	logger := slog.Default()
	w := NewWriter(nil, logger)
	// Don't start the background goroutine — nothing drains the channel.

	tenantID := uuid.New()
	for i := 0; i < bufferSize; i++ {
		w.Log(Entry{TenantID: tenantID, Action: "test", Resource: "test"})
	}

	// The next log should be dropped (non-blocking), not deadlock the caller.
	w.Log(Entry{TenantID: tenantID, Action: "dropped", Resource: "dropped"})

	if len(w.entries) != bufferSize {
		t.Errorf("buffer size = %d, want %d", len(w.entries), bufferSize)
	}
}

func TestLog_EnqueuesEntry(t *testing.T) {
	logger := slog.Default()
	w := NewWriter(nil, logger)

	tenantID := uuid.New()
	resourceID := uuid.New()
	w.Log(Entry{
		TenantID:   tenantID,
		Actor:      "scheduler",
		Action:     "whitelist_add",
		Resource:   "whitelist",
		ResourceID: resourceID,
	})

	entry := <-w.entries
	if entry.TenantID != tenantID {
		t.Errorf("TenantID = %v, want %v", entry.TenantID, tenantID)
	}
	if entry.Actor != "scheduler" {
		t.Errorf("Actor = %q, want %q", entry.Actor, "scheduler")
	}
	if entry.Action != "whitelist_add" {
		t.Errorf("Action = %q, want %q", entry.Action, "whitelist_add")
	}
}
