package rule

import (
	"testing"
	"time"

	"github.com/smallbiznis/glidebill/internal/billingctx"
	"github.com/smallbiznis/glidebill/internal/event"
	"github.com/smallbiznis/glidebill/internal/filter"
	"github.com/smallbiznis/glidebill/internal/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustMoney(t *testing.T, s string) money.Money {
	t.Helper()
	m, err := money.Parse(s)
	require.NoError(t, err)
	return m
}

func TestS1HourlyFlightRule(t *testing.T) {
	ctx := billingctx.New()
	dur := mustMoney(t, "60")
	ev := event.NewFlight("1001", time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), 1, "650", dur, "KOU", false, "")

	ledgerID := int64(3220)
	r := NewFlightRule("flight", Hourly(mustMoney(t, "18")), &ledgerID, "F, {aircraft}", filter.Aircraft("650"))

	lines := r.Evaluate(ev, ctx)
	require.Len(t, lines, 1)
	assert.Equal(t, "18.00", lines[0].Amount.Display())
	assert.Equal(t, "F, 650", lines[0].Description)
	assert.Equal(t, int64(3220), *lines[0].LedgerAccountID)
}

func TestS2MinimumDuration(t *testing.T) {
	ctx := billingctx.New()
	dur := mustMoney(t, "10")
	ev := event.NewFlight("1001", time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), 1, "TOW", dur, "KOU", false, "")

	ledgerID := int64(3130)
	inner := NewFlightRule("tow", Hourly(mustMoney(t, "122")), &ledgerID, "T, {duration}", filter.Aircraft("TOW"))
	wrapped := NewMinimumDurationRule(inner, mustMoney(t, "15"), "(min 15)", filter.Aircraft("TOW"))

	lines := wrapped.Evaluate(ev, ctx)
	require.Len(t, lines, 1)
	assert.Equal(t, "30.50", lines[0].Amount.Display())
	assert.Equal(t, "T, 15 (min 15)", lines[0].Description)

	assert.Equal(t, "10.00", ev.Duration.Display())
}

func TestS3FirstRuleDiscrimination(t *testing.T) {
	ctx := billingctx.New()
	dur := mustMoney(t, "60")

	towEvent := event.NewFlight("1001", time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), 1, "650", dur, "KOU", true, "")
	plainEvent := event.NewFlight("1001", time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), 2, "650", dur, "KOU", false, "")

	towRule := NewFlightRule("tow", Hourly(mustMoney(t, "10")), nil, "tow", filter.TransferTow())
	plainRule := NewFlightRule("plain", Hourly(mustMoney(t, "20")), nil, "plain")
	first := NewFirstRule(towRule, plainRule)

	lines := first.Evaluate(towEvent, ctx)
	require.Len(t, lines, 1)
	assert.Equal(t, "tow", lines[0].Description)

	lines = first.Evaluate(plainEvent, ctx)
	require.Len(t, lines, 1)
	assert.Equal(t, "plain", lines[0].Description)
}

func TestS4CappedRule(t *testing.T) {
	ctx := billingctx.New()
	cap := mustMoney(t, "90.00")

	makeFlight := func(seq int64) event.Event {
		dur := mustMoney(t, "120")
		return event.NewFlight("1001", time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), seq, "650", dur, "KOU", false, "")
	}

	inner := NewFlightRule("flight", Hourly(mustMoney(t, "20")), nil, "flight")
	capped := NewCappedRule("k2024", cap, ctx, inner, false, " (cap)")

	l1 := capped.Evaluate(makeFlight(1), ctx)
	l2 := capped.Evaluate(makeFlight(2), ctx)
	l3 := capped.Evaluate(makeFlight(3), ctx)

	require.Len(t, l1, 1)
	require.Len(t, l2, 1)
	require.Len(t, l3, 1)
	assert.Equal(t, "40.00", l1[0].Amount.Display())
	assert.Equal(t, "40.00", l2[0].Amount.Display())
	assert.Equal(t, "10.00", l3[0].Amount.Display())
	assert.Contains(t, l3[0].Description, "(cap)")
	assert.False(t, l1[0].Capped)
	assert.True(t, l3[0].Capped)
	assert.Equal(t, "90.00", ctx.GetAmount("1001", "k2024").Display())
}

func TestS6DeterministicReplayAfterCap(t *testing.T) {
	ctx := billingctx.New()
	ctx.SetAmount("1001", "k2024", mustMoney(t, "90.00"))

	cap := mustMoney(t, "90.00")
	dur := mustMoney(t, "120")
	ev := event.NewFlight("1001", time.Date(2024, 6, 16, 0, 0, 0, 0, time.UTC), 4, "650", dur, "KOU", false, "")

	inner := NewFlightRule("flight", Hourly(mustMoney(t, "20")), nil, "flight")
	capped := NewCappedRule("k2024", cap, ctx, inner, false, " (cap)")

	lines := capped.Evaluate(ev, ctx)
	require.Len(t, lines, 1)
	assert.Equal(t, "0.00", lines[0].Amount.Display())
	assert.True(t, lines[0].Capped)
	assert.Equal(t, "90.00", ctx.GetAmount("1001", "k2024").Display())
}

func TestS6DeterministicReplayDropOverCap(t *testing.T) {
	ctx := billingctx.New()
	ctx.SetAmount("1001", "k2024", mustMoney(t, "90.00"))

	cap := mustMoney(t, "90.00")
	dur := mustMoney(t, "120")
	ev := event.NewFlight("1001", time.Date(2024, 6, 16, 0, 0, 0, 0, time.UTC), 4, "650", dur, "KOU", false, "")

	inner := NewFlightRule("flight", Hourly(mustMoney(t, "20")), nil, "flight")
	capped := NewCappedRule("k2024", cap, ctx, inner, true, " (cap)")

	lines := capped.Evaluate(ev, ctx)
	assert.Len(t, lines, 0)
	assert.Equal(t, "90.00", ctx.GetAmount("1001", "k2024").Display())
}

func TestEmptyCompositesEmitNothing(t *testing.T) {
	ctx := billingctx.New()
	ev := event.NewFlight("1001", time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), 1, "650", mustMoney(t, "60"), "KOU", false, "")

	assert.Empty(t, NewAllRules().Evaluate(ev, ctx))
	assert.Empty(t, NewFirstRule().Evaluate(ev, ctx))
}

func TestSetLedgerYearIdempotent(t *testing.T) {
	ctx := billingctx.New()
	ev := event.NewSimpleEvent("1001", time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), 1, "fee", mustMoney(t, "10"), nil, nil, false)

	simple := NewSimpleRule("simple")
	wrapped := NewSetLedgerYearRule(simple, 2024)

	lines := wrapped.Evaluate(ev, ctx)
	require.Len(t, lines, 1)
	assert.Equal(t, 2024, *lines[0].LedgerYear)

	// Re-wrapping with a different year must not override an already-set value.
	again := NewSetLedgerYearRule(&fixedResultRule{lines: lines}, 2099)
	lines2 := again.Evaluate(ev, ctx)
	assert.Equal(t, 2024, *lines2[0].LedgerYear)
}

type fixedResultRule struct{ lines []ChargeLine }

func (f *fixedResultRule) Evaluate(event.Event, *billingctx.BillingContext) []ChargeLine {
	return append([]ChargeLine(nil), f.lines...)
}

func TestSetDateRuleRecordsLastLineDate(t *testing.T) {
	ctx := billingctx.New()
	day := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	ev := event.NewFlight("1001", day, 1, "650", mustMoney(t, "60"), "KOU", false, "")

	inner := NewFlightRule("flight", Hourly(mustMoney(t, "18")), nil, "flight", filter.Aircraft("650"))
	wrapped := NewSetDateRule("last_flight", ctx, inner)

	lines := wrapped.Evaluate(ev, ctx)
	require.Len(t, lines, 1)
	got, ok := ctx.GetDate("1001", "last_flight")
	require.True(t, ok)
	assert.Equal(t, day, got)
}

func TestDebugRulePassesThroughAndLogsOnMatch(t *testing.T) {
	ctx := billingctx.New()
	ev := event.NewFlight("1001", time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), 1, "650", mustMoney(t, "60"), "KOU", false, "")

	inner := NewFlightRule("flight", Hourly(mustMoney(t, "18")), nil, "flight", filter.Aircraft("650"))

	var logged bool
	wrapped := NewDebugRule(inner,
		func(e event.Event, lines []ChargeLine) bool { return len(lines) > 0 },
		func(e event.Event, lines []ChargeLine) { logged = true },
	)

	lines := wrapped.Evaluate(ev, ctx)
	require.Len(t, lines, 1)
	assert.True(t, logged)
}
