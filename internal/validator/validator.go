// Package validator rejects events whose account_id is unknown or
// malformed and produces a diagnostic summary, per spec.md §4.5. It never
// removes events; the engine still processes everything.
package validator

import (
	"go.uber.org/zap"

	"github.com/smallbiznis/glidebill/internal/event"
	"github.com/smallbiznis/glidebill/internal/money"
)

// Report is the diagnostic summary produced by Run: counts and amount
// totals of invalid events, broken down by event-variant name, mirroring
// validate_events's invalid_counts/invalid_totals pair.
type Report struct {
	InvalidCounts map[string]int
	InvalidTotals map[string]money.Money
}

func newReport() Report {
	return Report{
		InvalidCounts: make(map[string]int),
		InvalidTotals: make(map[string]money.Money),
	}
}

// Validator checks whether an account_id is acceptable: either it is in
// the known (pik) id set with length 4 or 6, or it appears exactly in the
// external id set (cmd/glidebill fills it with the no-invoicing prefixes).
type Validator struct {
	KnownIDs    map[string]struct{}
	ExternalIDs map[string]struct{}
	Log         *zap.Logger
}

func New(knownIDs, externalIDs map[string]struct{}, log *zap.Logger) *Validator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Validator{KnownIDs: knownIDs, ExternalIDs: externalIDs, Log: log.Named("validator")}
}

// Valid reports whether id passes the account-id acceptance rule.
func (v *Validator) Valid(id string) bool {
	if _, known := v.KnownIDs[id]; known && (len(id) == 4 || len(id) == 6) {
		return true
	}
	_, external := v.ExternalIDs[id]
	return external
}

// Run validates every event, logging and counting invalid ones by event
// variant, without removing any event from the stream.
func (v *Validator) Run(events []event.Event) Report {
	report := newReport()

	for _, e := range events {
		if v.Valid(e.AccountID()) {
			continue
		}

		kind := event.Kind(e)
		report.InvalidCounts[kind]++
		v.Log.Warn("invalid account id", zap.String("account_id", e.AccountID()), zap.String("event_kind", kind))

		if s, ok := event.IsSimpleEvent(e); ok {
			report.InvalidTotals[kind] = report.InvalidTotals[kind].Add(s.Amount)
		}
	}

	return report
}
