package billingctx

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/smallbiznis/glidebill/internal/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetAmountDefaultsZero(t *testing.T) {
	ctx := New()
	assert.True(t, ctx.GetAmount("1001", "k2024").IsZero())
}

func TestRoundTripJSON(t *testing.T) {
	ctx := New()
	ctx.SetAmount("1001", "k2024", money.FromCents(9000))
	ctx.SetDate("1001", "since", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	b, err := json.Marshal(ctx)
	require.NoError(t, err)

	loaded := New()
	require.NoError(t, json.Unmarshal(b, loaded))

	assert.Equal(t, "90.00", loaded.GetAmount("1001", "k2024").Display())
	d, ok := loaded.GetDate("1001", "since")
	require.True(t, ok)
	assert.Equal(t, 2024, d.Year())
}

func TestRoundTripJSONRetainsSubCentPrecision(t *testing.T) {
	ctx := New()
	ctx.SetAmount("1001", "k2024", money.FromMicros(1234567))

	b, err := json.Marshal(ctx)
	require.NoError(t, err)

	loaded := New()
	require.NoError(t, json.Unmarshal(b, loaded))

	assert.Equal(t, int64(1234567), loaded.GetAmount("1001", "k2024").Micros())
}
