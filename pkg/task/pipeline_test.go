package task

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/wisbric/meshdrift/pkg/drift"
	"github.com/wisbric/meshdrift/pkg/integration"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeNotifier struct {
	mu    sync.Mutex
	cards []drift.Card
}

func (f *fakeNotifier) Notify(ctx context.Context, tenantID uuid.UUID, card drift.Card) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cards = append(f.cards, card)
	return nil
}

func TestPipeline_HandleSendNotification_FansOutToAllNotifiers(t *testing.T) {
	n1 := &fakeNotifier{}
	n2 := &fakeNotifier{}

	p := NewPipeline(nil, PipelineDeps{
		Notifiers: []integration.Notifier{n1, n2},
	}, drift.DefaultRuleConfig(), discardLogger())

	event, err := drift.NewEvent(drift.NewEdge, "order-svc", "payments-db", drift.Details{})
	if err != nil {
		t.Fatalf("building event: %v", err)
	}

	payload, err := json.Marshal(sendNotificationPayload{
		TenantID: uuid.New(),
		Event:    event,
		Score:    90,
		Severity: drift.SeverityCritical,
	})
	if err != nil {
		t.Fatalf("marshaling payload: %v", err)
	}

	if err := p.handleSendNotification(context.Background(), payload); err != nil {
		t.Fatalf("handleSendNotification: %v", err)
	}

	if len(n1.cards) != 1 || len(n2.cards) != 1 {
		t.Fatalf("expected both notifiers to receive one card, got %d and %d", len(n1.cards), len(n2.cards))
	}
	if n1.cards[0].Title == "" {
		t.Error("expected rendered card to have a title")
	}
}

func TestShouldNotify_OnlyHighAndCriticalClearThreshold(t *testing.T) {
	tests := []struct {
		score int
		want  bool
	}{
		{39, false}, // low
		{40, false}, // medium
		{59, false}, // medium
		{60, true},  // high
		{79, true},  // high
		{80, true},  // critical
		{100, true}, // critical
	}
	for _, tt := range tests {
		if got := shouldNotify(tt.score); got != tt.want {
			t.Errorf("shouldNotify(%d) = %v, want %v", tt.score, got, tt.want)
		}
	}
}

func TestPipeline_HandleSendNotification_RejectsMalformedPayload(t *testing.T) {
	p := NewPipeline(nil, PipelineDeps{}, drift.DefaultRuleConfig(), discardLogger())

	err := p.handleSendNotification(context.Background(), []byte("not json"))
	if err == nil {
		t.Fatal("expected error for malformed payload")
	}
}
