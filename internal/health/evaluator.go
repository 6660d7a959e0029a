// Package health computes the risk verdict for a shipment lot from its
// recent telemetry window.
package health

import (
	"math"

	"vasafe/backend/internal/domain"
)

// Penalties applied to the base score of 100.
const (
	tempPenalty = 20
	lidPenalty  = 10

	criticalScore = 60

	// Inside the safe band but within one degree of either edge the
	// lot is flagged for attention before it actually drifts out.
	attentionLow  = 3.0
	attentionHigh = 7.0
)

// Evaluate turns a newest-first history window into a Verdict. It is a
// pure function: same window in, same verdict out, no I/O and no state.
//
// Only the most recent reading decides the verdict. Folding the whole
// window into a cumulative penalty keeps a lot painted critical for the
// rest of the 24h lookback after a transient condition clears; scoring
// the freshest sample keeps the verdict synchronized with the physical
// state while the window stays available for history display.
func Evaluate(window []*domain.Reading) domain.Verdict {
	if len(window) == 0 {
		return domain.Verdict{
			Status:         domain.StatusAwaiting,
			Indicator:      domain.IndicatorGray,
			Recommendation: "Aguardando dados da caixa...",
		}
	}

	latest := window[0]

	// A positive violation flag has absolute priority.
	if latest.Violation {
		return domain.Verdict{
			Score:          ptr(0),
			Status:         domain.StatusFraud,
			Indicator:      domain.IndicatorBlack,
			Recommendation: "Violacao detectada!",
		}
	}

	score := 100.0
	outOfBand := latest.Temperature > domain.TempMax || latest.Temperature < domain.TempMin
	if outOfBand {
		score -= tempPenalty
	}
	if latest.LidOpen {
		score -= lidPenalty
	}
	score = math.Round(clamp(score, 0, 100)*10) / 10

	switch {
	case latest.LidOpen:
		return domain.Verdict{
			Score:          &score,
			Status:         domain.StatusAlert,
			Indicator:      domain.IndicatorYellow,
			Recommendation: "Tampa aberta — verificar lacre.",
		}
	case score < criticalScore:
		return domain.Verdict{
			Score:          &score,
			Status:         domain.StatusCritical,
			Indicator:      domain.IndicatorRed,
			Recommendation: "Risco biologico!",
		}
	case latest.Temperature > attentionHigh || latest.Temperature < attentionLow:
		return domain.Verdict{
			Score:          &score,
			Status:         domain.StatusAttention,
			Indicator:      domain.IndicatorYellow,
			Recommendation: "Monitorar condicoes.",
		}
	default:
		return domain.Verdict{
			Score:          &score,
			Status:         domain.StatusApproved,
			Indicator:      domain.IndicatorGreen,
			Recommendation: "Carga segura.",
		}
	}
}

// Offline is the degraded verdict returned when the store cannot be
// reached. Score stays nil: "unknown" is not 0.
func Offline() domain.Verdict {
	return domain.Verdict{
		Status:         domain.StatusOffline,
		Indicator:      domain.IndicatorGray,
		Recommendation: "Backend indisponivel",
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func ptr(v float64) *float64 { return &v }
