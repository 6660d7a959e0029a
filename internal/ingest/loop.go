// Package ingest owns the telemetry subscription: it receives raw
// sensor messages, normalizes and classifies them, and writes them to
// the time-series store, surviving broker outages indefinitely.
package ingest

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"vasafe/backend/internal/domain"
	"vasafe/backend/internal/metrics"
	"vasafe/backend/internal/normalize"
)

// Transport is one live pub/sub connection. Done fires once when the
// connection is lost; the loop then dials a fresh transport.
type Transport interface {
	Subscribe(ctx context.Context, filter string, handler func(topic string, payload []byte)) error
	Done() <-chan error
	Disconnect() error
}

// DialFunc establishes a new transport connection.
type DialFunc func(ctx context.Context) (Transport, error)

// Writer persists classified readings.
type Writer interface {
	InsertReading(ctx context.Context, r *domain.Reading) error
}

const msgBufSize = 256

type rawMessage struct {
	topic   string
	payload []byte
}

// Loop drives the ingestion pipeline. Messages are processed strictly
// one at a time in arrival order so per-lot write order is preserved.
type Loop struct {
	dial           DialFunc
	filter         string
	writer         Writer
	normalizer     *normalize.Normalizer
	policy         domain.ViolationPolicy
	reconnectDelay time.Duration
	alertC         chan<- domain.AlertEvent

	msgC chan rawMessage
}

func NewLoop(
	dial DialFunc,
	filter string,
	writer Writer,
	policy domain.ViolationPolicy,
	reconnectDelay time.Duration,
	alertC chan<- domain.AlertEvent,
) *Loop {
	return &Loop{
		dial:           dial,
		filter:         filter,
		writer:         writer,
		normalizer:     normalize.New(),
		policy:         policy,
		reconnectDelay: reconnectDelay,
		alertC:         alertC,
		msgC:           make(chan rawMessage, msgBufSize),
	}
}

// Run connects, subscribes and processes messages until ctx is
// cancelled. Every disconnect is followed by a fixed-delay redial,
// forever — ingestion self-heals without operator intervention.
func (l *Loop) Run(ctx context.Context) {
	for {
		transport, err := l.dial(ctx)
		if err != nil {
			slog.Warn("broker unreachable, retrying", "err", err, "delay", l.reconnectDelay)
			if !l.sleep(ctx) {
				return
			}
			continue
		}

		if err := transport.Subscribe(ctx, l.filter, func(topic string, payload []byte) {
			select {
			case l.msgC <- rawMessage{topic: topic, payload: payload}:
			default:
				slog.Warn("ingest buffer full, dropping message", "topic", topic)
			}
		}); err != nil {
			slog.Warn("subscribe failed, reconnecting", "err", err)
			transport.Disconnect()
			if !l.sleep(ctx) {
				return
			}
			continue
		}

		slog.Info("subscribed", "filter", l.filter)

		if !l.consume(ctx, transport) {
			transport.Disconnect()
			return
		}

		metrics.Reconnects.Add(1)
		if !l.sleep(ctx) {
			return
		}
	}
}

// consume processes messages until the transport dies (returns true)
// or ctx is cancelled (returns false).
func (l *Loop) consume(ctx context.Context, transport Transport) bool {
	for {
		select {
		case msg := <-l.msgC:
			l.process(ctx, msg)
		case err := <-transport.Done():
			slog.Warn("transport lost, reconnecting", "err", err)
			transport.Disconnect()
			return true
		case <-ctx.Done():
			return false
		}
	}
}

// process runs one message through normalize, classify and store.
// Failures here are message-scoped: logged and dropped, never allowed
// to affect the connection or the next message.
func (l *Loop) process(ctx context.Context, msg rawMessage) {
	metrics.MessagesReceived.Add(1)

	reading, err := l.normalizer.Normalize(msg.payload)
	if err != nil {
		metrics.MessagesRejected.Add(1)
		if !errors.Is(err, normalize.ErrLogNoise) {
			slog.Debug("message rejected", "topic", msg.topic, "err", err)
		}
		return
	}

	reading.Violation = domain.Classify(reading, l.policy)

	if err := l.writer.InsertReading(ctx, reading); err != nil {
		metrics.StoreWriteFailures.Add(1)
		slog.Error("store write failed", "lot", reading.LotID, "err", err)
		return
	}
	metrics.StoreWriteSuccess.Add(1)

	if reading.Violation && l.alertC != nil {
		event := domain.AlertEvent{
			LotID:       reading.LotID,
			AlertCode:   reading.AlertCode,
			Temperature: reading.Temperature,
			Timestamp:   reading.Timestamp,
		}
		select {
		case l.alertC <- event:
		default:
			metrics.AlertChannelDrops.Add(1)
		}
	}
}

// sleep waits out the reconnect delay. Returns false when ctx was
// cancelled during the wait.
func (l *Loop) sleep(ctx context.Context) bool {
	select {
	case <-time.After(l.reconnectDelay):
		return true
	case <-ctx.Done():
		return false
	}
}
