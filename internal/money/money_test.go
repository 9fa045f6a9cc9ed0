package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAndDisplay(t *testing.T) {
	m, err := Parse("18")
	require.NoError(t, err)
	assert.Equal(t, "18.00", m.Display())

	m, err = Parse("-3.005")
	require.NoError(t, err)
	assert.Equal(t, "-3.01", m.Display())
}

func TestDivMinutesOverSixty(t *testing.T) {
	rate := FromCents(12200) // 122.00
	minutes, err := Parse("15")
	require.NoError(t, err)

	got := DivMinutesOverSixty(rate, minutes)
	assert.Equal(t, "30.50", got.Display())
}

func TestAbsLessThanCent(t *testing.T) {
	assert.True(t, Zero.AbsLessThanCent())
	half, _ := Parse("0.004")
	assert.True(t, half.AbsLessThanCent())
	cent, _ := Parse("0.01")
	assert.False(t, cent.AbsLessThanCent())
}

func TestCmpAndArith(t *testing.T) {
	a := FromCents(4000)
	b := FromCents(9000)
	assert.Equal(t, -1, a.Cmp(b))
	assert.Equal(t, "130.00", a.Add(b).Display())
	assert.Equal(t, "50.00", b.Sub(a).Display())
}
