// Package normalize turns raw MQTT payloads into canonical readings.
//
// Sensor firmware in the field is messy: payloads arrive with log
// prefixes glued on, field names drift between firmware generations
// (temperatura vs temp, luz vs luz_raw), and single fields show up
// malformed inside otherwise valid messages. The normalizer absorbs
// all of that at one boundary so nothing downstream has to.
package normalize

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"vasafe/backend/internal/domain"
)

// Rejection reasons. These are message-scoped: the caller logs and
// moves on, it never tears down the subscription over one of these.
var (
	ErrLogNoise     = errors.New("payload is an operational log line")
	ErrNoPayload    = errors.New("no structured payload found")
	ErrMissingLotID = errors.New("missing box_id")
)

// logNoiseMarkers identify serial-console output that some firmware
// builds mistakenly publish on the telemetry topic.
var logNoiseMarkers = []string{
	">>>",
	"DESLIGANDO",
}

// strippablePrefixes are known wrappers the firmware prepends to an
// otherwise valid JSON payload.
var strippablePrefixes = []string{
	"[ONLINE] Enviando:",
	"[BUFFER]",
}

// Normalizer converts opaque transport payloads into domain.Reading
// values. The zero value is not usable; use New.
type Normalizer struct {
	now func() time.Time // injectable for deterministic tests
}

func New() *Normalizer {
	return &Normalizer{now: time.Now}
}

// Normalize parses a raw payload into a Reading. A non-nil error means
// the message is rejected; rejected messages are dropped, never
// retried. The returned Reading has no Violation flag set — that is
// the classifier's job.
func (n *Normalizer) Normalize(payload []byte) (*domain.Reading, error) {
	text := strings.ToValidUTF8(string(payload), "")

	for _, marker := range logNoiseMarkers {
		if strings.Contains(text, marker) {
			return nil, ErrLogNoise
		}
	}

	for _, prefix := range strippablePrefixes {
		text = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(text), prefix))
	}

	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end < start {
		return nil, ErrNoPayload
	}
	text = text[start : end+1]

	var fields map[string]any
	if err := json.Unmarshal([]byte(text), &fields); err != nil {
		return nil, fmt.Errorf("parse payload: %w", err)
	}

	lotID, _ := fields["box_id"].(string)
	if lotID == "" {
		return nil, ErrMissingLotID
	}

	now := n.now()
	r := &domain.Reading{
		ReceivedAt:  now,
		Timestamp:   now,
		LotID:       lotID,
		Temperature: floatField(fields, 0, "temperatura", "temp"),
		LidOpen:     boolField(fields, "aberta"),
		Battery:     intField(fields, "bateria"),
		Light:       intField(fields, "luz", "luz_raw"),
		Kind:        domain.SendAuto,
		RawPayload:  []byte(text),
	}

	if code, ok := fields["alerta"].(string); ok {
		r.AlertCode = code
	}
	if kind, ok := fields["tipo"].(string); ok && kind == "SYNC_MANUAL" {
		r.Kind = domain.SendManualSync
	}

	return r, nil
}

// floatField returns the first alias present that coerces to a float.
// A field that is present but malformed degrades to the default — one
// bad field never discards the rest of the reading.
func floatField(fields map[string]any, def float64, names ...string) float64 {
	for _, name := range names {
		if v, ok := fields[name]; ok {
			if f, ok := coerceFloat(v); ok {
				return f
			}
		}
	}
	return def
}

// intField returns nil when every alias is absent or malformed.
// Absence must stay distinguishable from zero.
func intField(fields map[string]any, names ...string) *int {
	for _, name := range names {
		if v, ok := fields[name]; ok {
			if f, ok := coerceFloat(v); ok {
				i := int(f)
				return &i
			}
		}
	}
	return nil
}

func boolField(fields map[string]any, name string) bool {
	switch v := fields[name].(type) {
	case bool:
		return v
	case string:
		return v == "true"
	default:
		return false
	}
}

func coerceFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
