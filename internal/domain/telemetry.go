package domain

import "time"

// SendKind tags the provenance of a reading: periodic automatic
// telemetry vs. an operator-forced synchronization burst.
type SendKind string

const (
	SendAuto       SendKind = "AUTO"
	SendManualSync SendKind = "MANUAL_SYNC"
)

// Reading is one normalized telemetry sample for a shipment lot.
// Battery and Light are nil when the sensor omitted them — a nil
// pointer and a zero value mean different things and must stay
// distinguishable all the way down to storage.
type Reading struct {
	ReceivedAt time.Time

	Timestamp time.Time
	LotID     string

	Temperature float64
	LidOpen     bool
	Violation   bool

	Battery *int
	Light   *int

	AlertCode string
	Kind      SendKind

	RawPayload []byte
}

// Status is the operational status reported to the dashboard.
// Values are the Portuguese wire strings the dashboard renders.
type Status string

const (
	StatusAwaiting  Status = "AGUARDANDO"
	StatusFraud     Status = "FRAUDE"
	StatusApproved  Status = "APROVADO"
	StatusAlert     Status = "ALERTA"
	StatusAttention Status = "ATENCAO"
	StatusCritical  Status = "CRITICO"
	StatusOffline   Status = "OFFLINE"
)

// LED indicator colors, matched to the dashboard palette.
const (
	IndicatorGray   = "#808080"
	IndicatorBlack  = "#000000"
	IndicatorGreen  = "#22c55e"
	IndicatorYellow = "#eab308"
	IndicatorRed    = "#ef4444"
)

// Verdict is the risk assessment for one lot. Score is nil when the
// lot has no data in the lookback window ("no data" is not 0).
type Verdict struct {
	Score          *float64
	Status         Status
	Indicator      string
	Recommendation string
}
