// Package engine implements the single-pass Engine driver: dispatch each
// event to every top-level rule, collecting emitted lines, per spec.md
// §4.3.
package engine

import (
	"strings"

	"github.com/smallbiznis/glidebill/internal/billingctx"
	"github.com/smallbiznis/glidebill/internal/event"
	"github.com/smallbiznis/glidebill/internal/rule"
)

// RunSummary is the diagnostic summary the engine produces alongside the
// charge lines: matched/unmatched/skipped counts, handed to internal/audit
// and internal/metrics after the pass.
type RunSummary struct {
	EventsProcessed    int
	MatchedEvents      int
	UnmatchedEvents    []UnmatchedEvent
	NoInvoicingSkipped []string
}

// UnmatchedEvent records an event no top-level rule produced a line for.
// Diagnostic only, per spec.md §7 — never a failure.
type UnmatchedEvent struct {
	AccountID string
	EventKind string
}

// Engine runs one deterministic pass over an ordered event stream.
type Engine struct {
	Rules             []rule.Rule
	Context           *billingctx.BillingContext
	NoInvoicingPrefix []string
}

// New builds an Engine over the given top-level rules, context, and
// uppercased no-invoicing account-id prefixes.
func New(rules []rule.Rule, ctx *billingctx.BillingContext, noInvoicingPrefix []string) *Engine {
	upper := make([]string, len(noInvoicingPrefix))
	for i, p := range noInvoicingPrefix {
		upper[i] = strings.ToUpper(p)
	}
	return &Engine{Rules: rules, Context: ctx, NoInvoicingPrefix: upper}
}

// Run evaluates events in order against every top-level rule, returning
// the collected ChargeLines and a RunSummary. Same inputs always produce
// the same outputs and the same final context (spec.md §8 property 1).
func (e *Engine) Run(events []event.Event) ([]rule.ChargeLine, RunSummary) {
	var lines []rule.ChargeLine
	summary := RunSummary{}

	for _, ev := range events {
		summary.EventsProcessed++

		if e.skipNoInvoicing(ev.AccountID()) {
			summary.NoInvoicingSkipped = append(summary.NoInvoicingSkipped, ev.AccountID())
			continue
		}

		var eventLines []rule.ChargeLine
		for _, r := range e.Rules {
			eventLines = append(eventLines, r.Evaluate(ev, e.Context)...)
		}

		if len(eventLines) == 0 {
			summary.UnmatchedEvents = append(summary.UnmatchedEvents, UnmatchedEvent{
				AccountID: ev.AccountID(),
				EventKind: event.Kind(ev),
			})
			continue
		}

		summary.MatchedEvents++
		lines = append(lines, eventLines...)
	}

	return lines, summary
}

func (e *Engine) skipNoInvoicing(accountID string) bool {
	upper := strings.ToUpper(accountID)
	for _, prefix := range e.NoInvoicingPrefix {
		if strings.HasPrefix(upper, prefix) {
			return true
		}
	}
	return false
}
