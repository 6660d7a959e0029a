package pipeline

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"vasafe/backend/internal/domain"
	"vasafe/backend/internal/store"
)

// Broadcaster pushes an alert event to connected dashboard clients.
type Broadcaster interface {
	Broadcast(payload []byte)
}

// AlertNotifier consumes violation events from the ingest loop and
// fans them out: audit row in the time-series store, Redis publish for
// external consumers, live push to the dashboard. A Redis dedup window
// keeps a flapping sensor from spamming the trail.
type AlertNotifier struct {
	ch       <-chan domain.AlertEvent
	db       *store.TimescaleStore
	redis    *store.RedisStore
	hub      Broadcaster
	dedupTTL time.Duration
}

func NewAlertNotifier(
	ch <-chan domain.AlertEvent,
	db *store.TimescaleStore,
	redis *store.RedisStore,
	hub Broadcaster,
	dedupTTL time.Duration,
) *AlertNotifier {
	return &AlertNotifier{
		ch:       ch,
		db:       db,
		redis:    redis,
		hub:      hub,
		dedupTTL: dedupTTL,
	}
}

func (n *AlertNotifier) Run(ctx context.Context) {
	for {
		select {
		case event, ok := <-n.ch:
			if !ok {
				return
			}
			n.notify(ctx, event)

		case <-ctx.Done():
			return
		}
	}
}

func (n *AlertNotifier) notify(ctx context.Context, event domain.AlertEvent) {
	isDuplicate, err := n.redis.CheckAlertDedup(ctx, event.LotID)
	if err != nil {
		slog.Error("alert dedup check failed", "lot", event.LotID, "err", err)
		return
	}
	if isDuplicate {
		return
	}

	if err := n.db.InsertAlert(ctx, event.LotID, event.AlertCode, event.Temperature); err != nil {
		slog.Error("alert insert failed", "lot", event.LotID, "err", err)
		return
	}

	if err := n.redis.SetAlertDedup(ctx, event.LotID, n.dedupTTL); err != nil {
		slog.Error("alert dedup set failed", "lot", event.LotID, "err", err)
	}

	payload, _ := json.Marshal(event)
	if err := n.redis.PublishAlert(ctx, event.LotID, payload); err != nil {
		slog.Error("alert publish failed", "lot", event.LotID, "err", err)
	}
	if n.hub != nil {
		n.hub.Broadcast(payload)
	}

	slog.Warn("violation alert",
		"lot", event.LotID,
		"code", event.AlertCode,
		"temperature", event.Temperature,
	)
}
