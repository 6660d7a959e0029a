package health

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vasafe/backend/internal/domain"
)

func reading(temp float64, lidOpen, violation bool) *domain.Reading {
	return &domain.Reading{
		LotID:       "box_01",
		Temperature: temp,
		LidOpen:     lidOpen,
		Violation:   violation,
	}
}

func TestEvaluate_EmptyWindow(t *testing.T) {
	v := Evaluate(nil)

	assert.Nil(t, v.Score, "no data must not score as zero")
	assert.Equal(t, domain.StatusAwaiting, v.Status)
	assert.Equal(t, domain.IndicatorGray, v.Indicator)
}

func TestEvaluate_ViolationHasAbsolutePriority(t *testing.T) {
	// Even a perfect temperature cannot override a violation flag.
	v := Evaluate([]*domain.Reading{reading(5.0, false, true)})

	require.NotNil(t, v.Score)
	assert.Equal(t, 0.0, *v.Score)
	assert.Equal(t, domain.StatusFraud, v.Status)
	assert.Equal(t, domain.IndicatorBlack, v.Indicator)
}

func TestEvaluate_SafeReading(t *testing.T) {
	v := Evaluate([]*domain.Reading{reading(5.0, false, false)})

	require.NotNil(t, v.Score)
	assert.Equal(t, 100.0, *v.Score)
	assert.Equal(t, domain.StatusApproved, v.Status)
	assert.Equal(t, domain.IndicatorGreen, v.Indicator)
}

func TestEvaluate_TemperaturePenalty(t *testing.T) {
	// 9.0 without an alert: penalized to 80, flagged for attention.
	v := Evaluate([]*domain.Reading{reading(9.0, false, false)})

	require.NotNil(t, v.Score)
	assert.Equal(t, 80.0, *v.Score)
	assert.Equal(t, domain.StatusAttention, v.Status)
	assert.Equal(t, domain.IndicatorYellow, v.Indicator)
}

func TestEvaluate_LidOpenAlert(t *testing.T) {
	v := Evaluate([]*domain.Reading{reading(5.0, true, false)})

	require.NotNil(t, v.Score)
	assert.Equal(t, 90.0, *v.Score)
	assert.Equal(t, domain.StatusAlert, v.Status)
	assert.Equal(t, domain.IndicatorYellow, v.Indicator)
}

func TestEvaluate_AttentionNearBandEdge(t *testing.T) {
	tests := []struct {
		temp float64
		want domain.Status
	}{
		{2.5, domain.StatusAttention}, // cold edge
		{7.5, domain.StatusAttention}, // warm edge
		{5.0, domain.StatusApproved},  // center of band
		{3.0, domain.StatusApproved},  // margin boundary is inclusive-safe
		{7.0, domain.StatusApproved},
	}

	for _, tt := range tests {
		v := Evaluate([]*domain.Reading{reading(tt.temp, false, false)})
		assert.Equal(t, tt.want, v.Status, "temp %.1f", tt.temp)
	}
}

func TestEvaluate_OnlyMostRecentReadingCounts(t *testing.T) {
	// A past violation no longer colors the verdict once the latest
	// reading is clean.
	window := []*domain.Reading{
		reading(5.0, false, false), // newest
		reading(12.0, true, true),  // older violation
	}
	v := Evaluate(window)

	require.NotNil(t, v.Score)
	assert.Equal(t, 100.0, *v.Score)
	assert.Equal(t, domain.StatusApproved, v.Status)
}

func TestEvaluate_Idempotent(t *testing.T) {
	window := []*domain.Reading{reading(9.0, true, false)}

	first := Evaluate(window)
	second := Evaluate(window)

	assert.Equal(t, first, second)
}

func TestEvaluate_ScoreNeverNegative(t *testing.T) {
	v := Evaluate([]*domain.Reading{reading(20.0, true, false)})

	require.NotNil(t, v.Score)
	assert.GreaterOrEqual(t, *v.Score, 0.0)
	assert.LessOrEqual(t, *v.Score, 100.0)
}

func TestOffline(t *testing.T) {
	v := Offline()

	assert.Nil(t, v.Score)
	assert.Equal(t, domain.StatusOffline, v.Status)
	assert.Equal(t, domain.IndicatorGray, v.Indicator)
}
