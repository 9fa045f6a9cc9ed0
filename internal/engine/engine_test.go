package engine

import (
	"testing"
	"time"

	"github.com/smallbiznis/glidebill/internal/billingctx"
	"github.com/smallbiznis/glidebill/internal/event"
	"github.com/smallbiznis/glidebill/internal/filter"
	"github.com/smallbiznis/glidebill/internal/money"
	"github.com/smallbiznis/glidebill/internal/rule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngineSkipsNoInvoicingPrefix(t *testing.T) {
	ctx := billingctx.New()
	dur, _ := money.Parse("60")
	ev := event.NewFlight("TEST01", time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), 1, "650", dur, "KOU", false, "")

	rate, _ := money.Parse("18")
	r := rule.NewFlightRule("flight", rule.Hourly(rate), nil, "F", filter.Aircraft("650"))

	eng := New([]rule.Rule{r}, ctx, []string{"TEST"})
	lines, summary := eng.Run([]event.Event{ev})

	assert.Empty(t, lines)
	assert.Equal(t, []string{"TEST01"}, summary.NoInvoicingSkipped)
	assert.Equal(t, 0, summary.MatchedEvents)
}

func TestEngineReportsUnmatched(t *testing.T) {
	ctx := billingctx.New()
	dur, _ := money.Parse("60")
	ev := event.NewFlight("1001", time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), 1, "650", dur, "KOU", false, "")

	r := rule.NewFlightRule("flight", rule.Hourly(money.Zero), nil, "F", filter.Aircraft("999"))

	eng := New([]rule.Rule{r}, ctx, nil)
	lines, summary := eng.Run([]event.Event{ev})

	assert.Empty(t, lines)
	require.Len(t, summary.UnmatchedEvents, 1)
	assert.Equal(t, "1001", summary.UnmatchedEvents[0].AccountID)
	assert.Equal(t, "Flight", summary.UnmatchedEvents[0].EventKind)
}

func TestEngineDeterministic(t *testing.T) {
	makeEvents := func() []event.Event {
		dur, _ := money.Parse("60")
		return []event.Event{
			event.NewFlight("1001", time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), 1, "650", dur, "KOU", false, ""),
			event.NewFlight("1001", time.Date(2024, 6, 16, 0, 0, 0, 0, time.UTC), 2, "650", dur, "KOU", false, ""),
		}
	}

	rate, _ := money.Parse("18")
	run := func() ([]rule.ChargeLine, RunSummary) {
		ctx := billingctx.New()
		r := rule.NewFlightRule("flight", rule.Hourly(rate), nil, "F", filter.Aircraft("650"))
		eng := New([]rule.Rule{r}, ctx, nil)
		return eng.Run(makeEvents())
	}

	lines1, summary1 := run()
	lines2, summary2 := run()

	require.Len(t, lines1, 2)
	require.Len(t, lines2, 2)
	assert.Equal(t, lines1, lines2)
	assert.Equal(t, summary1.MatchedEvents, summary2.MatchedEvents)
}
