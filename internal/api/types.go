package api

import (
	"math"
	"time"

	"vasafe/backend/internal/domain"
)

// AnalysisResponse is the payload of GET /analise/{lote}. Field names
// are the wire contract the dashboard renders; they never change shape,
// even when the backend is degraded.
type AnalysisResponse struct {
	Lot       string            `json:"lote"`
	Risk      RiskAnalysis      `json:"analise_risco"`
	Telemetry TelemetrySnapshot `json:"telemetria"`
}

// RiskAnalysis carries the evaluator verdict. HealthScore is null when
// the lot has no data or the store is unreachable — null means "no
// data", 0 means "evaluated and found critical".
type RiskAnalysis struct {
	HealthScore    *float64 `json:"health_score"`
	Status         string   `json:"status_operacional"`
	Indicator      string   `json:"indicador_led"`
	Recommendation string   `json:"recomendacao"`
}

// TelemetrySnapshot is the latest reading plus the history window for
// display. Bateria and Luz are null when the sensor omitted them.
type TelemetrySnapshot struct {
	CurrentTemp float64        `json:"temperatura_atual"`
	Violation   bool           `json:"violacao"`
	LidOpen     bool           `json:"tampa_aberta"`
	Battery     *int           `json:"bateria"`
	Light       *int           `json:"luz"`
	History     []HistoryEntry `json:"historico"`
}

type HistoryEntry struct {
	Time        time.Time `json:"time"`
	Temperature float64   `json:"temperatura"`
	LidOpen     bool      `json:"tampa_aberta"`
	Violation   bool      `json:"violacao"`
	Battery     *int      `json:"bateria"`
	Light       *int      `json:"luz"`
}

// LoginRequest matches the dashboard login form.
type LoginRequest struct {
	User     string `json:"usuario"`
	Password string `json:"senha"`
}

type LoginResponse struct {
	Token string `json:"token"`
	Name  string `json:"nome"`
}

// CommandRequest is the operator command republished to the device.
type CommandRequest struct {
	Command string `json:"comando"`
}

type CommandResponse struct {
	Status  string `json:"status"`
	Lot     string `json:"lote"`
	Command string `json:"comando"`
}

func toRisk(v domain.Verdict) RiskAnalysis {
	return RiskAnalysis{
		HealthScore:    v.Score,
		Status:         string(v.Status),
		Indicator:      v.Indicator,
		Recommendation: v.Recommendation,
	}
}

func toTelemetry(window []*domain.Reading) TelemetrySnapshot {
	snap := TelemetrySnapshot{History: make([]HistoryEntry, 0, len(window))}
	for _, r := range window {
		snap.History = append(snap.History, HistoryEntry{
			Time:        r.Timestamp,
			Temperature: r.Temperature,
			LidOpen:     r.LidOpen,
			Violation:   r.Violation,
			Battery:     r.Battery,
			Light:       r.Light,
		})
	}
	if len(window) > 0 {
		latest := window[0]
		snap.CurrentTemp = round1(latest.Temperature)
		snap.Violation = latest.Violation
		snap.LidOpen = latest.LidOpen
		snap.Battery = latest.Battery
		snap.Light = latest.Light
	}
	return snap
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
