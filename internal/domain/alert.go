package domain

import "time"

// AlertEvent is emitted by the ingest loop when a reading is
// classified as a violation. Consumed asynchronously by the alert
// notifier so fan-out never blocks ingestion.
type AlertEvent struct {
	LotID       string    `json:"lote"`
	AlertCode   string    `json:"alerta"`
	Temperature float64   `json:"temperatura"`
	Timestamp   time.Time `json:"timestamp"`
}
