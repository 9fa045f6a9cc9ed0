package filter

import (
	"testing"
	"time"

	"github.com/smallbiznis/glidebill/internal/billingctx"
	"github.com/smallbiznis/glidebill/internal/event"
	"github.com/smallbiznis/glidebill/internal/money"
	"github.com/stretchr/testify/assert"
)

func flight(aircraft string, transferTow bool) event.Event {
	dur, _ := money.Parse("60")
	return event.NewFlight("1001", time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), 1, aircraft, dur, "KOU", transferTow, "")
}

func TestAircraftAndTransferTow(t *testing.T) {
	f := flight("650", false)
	assert.True(t, Aircraft("650", "651").Match(f))
	assert.False(t, Aircraft("999").Match(f))
	assert.False(t, TransferTow().Match(f))
	assert.True(t, TransferTow().Match(flight("TOW", true)))
}

func TestBirthDateAgeBoundary(t *testing.T) {
	table := map[string]time.Time{
		"1001": time.Date(2000, 6, 15, 0, 0, 0, 0, time.UTC),
	}
	f := flight("650", false) // event date 2024-06-15, exactly 24 years
	assert.True(t, BirthDate(table, 24).Match(f))
	assert.False(t, BirthDate(table, 23.99).Match(f))
	assert.False(t, BirthDate(map[string]time.Time{}, 24).Match(f))
}

func TestSinceDateMissingIsFalse(t *testing.T) {
	ctx := billingctx.New()
	f := flight("650", false)
	assert.False(t, SinceDate(ctx, "since").Match(f))

	ctx.SetDate("1001", "since", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.True(t, SinceDate(ctx, "since").Match(f))
}

func TestOrFlattensAllElements(t *testing.T) {
	f := flight("650", false)
	or := Or(Aircraft("999"), Aircraft("650"))
	assert.True(t, or.Match(f))
	assert.False(t, Or(Aircraft("1"), Aircraft("2")).Match(f))
}

func TestAllEmptyIsSatisfied(t *testing.T) {
	assert.True(t, All(nil, flight("650", false)))
}
