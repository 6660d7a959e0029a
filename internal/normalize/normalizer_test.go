package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vasafe/backend/internal/domain"
)

func TestNormalize_ValidPayload(t *testing.T) {
	n := New()
	r, err := n.Normalize([]byte(`{"box_id":"box_01","temperatura":5.0,"aberta":false}`))
	require.NoError(t, err)

	assert.Equal(t, "box_01", r.LotID)
	assert.Equal(t, 5.0, r.Temperature)
	assert.False(t, r.LidOpen)
	assert.Nil(t, r.Battery)
	assert.Nil(t, r.Light)
	assert.Equal(t, domain.SendAuto, r.Kind)
	assert.False(t, r.Timestamp.IsZero())
}

func TestNormalize_AllFields(t *testing.T) {
	n := New()
	payload := `{"box_id":"box_02","temperatura":10.0,"aberta":true,"luz":420,"bateria":87,"alerta":"EVENTO_CRITICO","tipo":"SYNC_MANUAL"}`
	r, err := n.Normalize([]byte(payload))
	require.NoError(t, err)

	assert.Equal(t, 10.0, r.Temperature)
	assert.True(t, r.LidOpen)
	require.NotNil(t, r.Light)
	assert.Equal(t, 420, *r.Light)
	require.NotNil(t, r.Battery)
	assert.Equal(t, 87, *r.Battery)
	assert.Equal(t, "EVENTO_CRITICO", r.AlertCode)
	assert.Equal(t, domain.SendManualSync, r.Kind)
}

func TestNormalize_FieldAliases(t *testing.T) {
	// Older firmware and the bench simulator use temp/luz_raw.
	n := New()
	r, err := n.Normalize([]byte(`{"box_id":"box_03","temp":4.5,"luz_raw":900}`))
	require.NoError(t, err)

	assert.Equal(t, 4.5, r.Temperature)
	require.NotNil(t, r.Light)
	assert.Equal(t, 900, *r.Light)
}

func TestNormalize_LogNoise(t *testing.T) {
	n := New()
	_, err := n.Normalize([]byte(">>> DESLIGANDO WIFI (Economia) <<<"))
	assert.ErrorIs(t, err, ErrLogNoise)
}

func TestNormalize_PrefixWrapper(t *testing.T) {
	n := New()
	r, err := n.Normalize([]byte(`[ONLINE] Enviando: {"box_id":"box_01","temperatura":6.1}`))
	require.NoError(t, err)
	assert.Equal(t, "box_01", r.LotID)
	assert.Equal(t, 6.1, r.Temperature)
}

func TestNormalize_BraceSlicing(t *testing.T) {
	n := New()

	// Garbage around the structural payload is sliced away.
	r, err := n.Normalize([]byte(`noise {"box_id":"box_01","temperatura":3.0} trailing`))
	require.NoError(t, err)
	assert.Equal(t, 3.0, r.Temperature)

	// Nested braces: first { to last } keeps the full object.
	r, err = n.Normalize([]byte(`{"box_id":"box_01","extra":{"a":1},"temperatura":4.0}`))
	require.NoError(t, err)
	assert.Equal(t, 4.0, r.Temperature)
}

func TestNormalize_Rejections(t *testing.T) {
	n := New()

	tests := []struct {
		name    string
		payload string
		wantErr error
	}{
		{"empty", "", ErrNoPayload},
		{"no braces", "just text", ErrNoPayload},
		{"open brace only", "{", ErrNoPayload},
		{"missing box_id", `{"temperatura":5.0}`, ErrMissingLotID},
		{"empty box_id", `{"box_id":"","temperatura":5.0}`, ErrMissingLotID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := n.Normalize([]byte(tt.payload))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNormalize_TruncatedPayload(t *testing.T) {
	n := New()
	_, err := n.Normalize([]byte(`{"box_id":"box_01","temperatura":`))
	assert.Error(t, err)
}

func TestNormalize_MalformedFieldDegrades(t *testing.T) {
	n := New()

	// A malformed temperature falls back to the default; the reading
	// itself survives.
	r, err := n.Normalize([]byte(`{"box_id":"box_01","temperatura":"hot"}`))
	require.NoError(t, err)
	assert.Equal(t, 0.0, r.Temperature)

	// A malformed optional field degrades to absent, not zero.
	r, err = n.Normalize([]byte(`{"box_id":"box_01","temperatura":5.0,"bateria":"low","luz":null}`))
	require.NoError(t, err)
	assert.Nil(t, r.Battery)
	assert.Nil(t, r.Light)
}

func TestNormalize_NumericStringsCoerce(t *testing.T) {
	n := New()
	r, err := n.Normalize([]byte(`{"box_id":"box_01","temperatura":"6.5","bateria":"42"}`))
	require.NoError(t, err)
	assert.Equal(t, 6.5, r.Temperature)
	require.NotNil(t, r.Battery)
	assert.Equal(t, 42, *r.Battery)
}

func TestNormalize_InvalidUTF8(t *testing.T) {
	n := New()
	payload := append([]byte{0xff, 0xfe}, []byte(`{"box_id":"box_01","temperatura":5.0}`)...)
	r, err := n.Normalize(payload)
	require.NoError(t, err)
	assert.Equal(t, "box_01", r.LotID)
}
