// Package rule implements the composable Rule tree: the core of the
// billing engine. A Rule consumes an Event and the shared BillingContext
// and emits zero or more ChargeLines.
package rule

import (
	"strconv"
	"strings"
	"time"

	"github.com/smallbiznis/glidebill/internal/billingctx"
	"github.com/smallbiznis/glidebill/internal/event"
	"github.com/smallbiznis/glidebill/internal/filter"
	"github.com/smallbiznis/glidebill/internal/money"
)

// ChargeLine is one atomic billable item produced by a rule. Lines are
// immutable after emission except for LedgerYear, which a wrapping rule
// (SetLedgerYearRule) may stamp.
type ChargeLine struct {
	AccountID       string
	Date            time.Time
	Description     string
	Amount          money.Money
	RuleRef         string
	SourceEvent     event.Event
	LedgerAccountID *int64
	LedgerYear      *int
	Rollup          bool
	// Capped is true when a CappedRule zeroed or reduced this line's
	// amount to stay within its annual ceiling, so callers can report a
	// structured rewrite metric instead of matching CapDescription text.
	Capped bool
}

// Rule is the tree-node contract every combinator implements.
type Rule interface {
	Evaluate(e event.Event, ctx *billingctx.BillingContext) []ChargeLine
}

// SimpleRule emits the SimpleEvent's own amount unchanged when every
// filter passes.
type SimpleRule struct {
	Filters []filter.Predicate
	Ref     string
}

func NewSimpleRule(ref string, filters ...filter.Predicate) *SimpleRule {
	return &SimpleRule{Filters: filters, Ref: ref}
}

func (r *SimpleRule) Evaluate(e event.Event, _ *billingctx.BillingContext) []ChargeLine {
	s, ok := event.IsSimpleEvent(e)
	if !ok || !filter.All(r.Filters, e) {
		return nil
	}
	return []ChargeLine{{
		AccountID:       s.AccountID(),
		Date:            s.Date(),
		Description:     s.Item,
		Amount:          s.Amount,
		RuleRef:         r.Ref,
		SourceEvent:     e,
		LedgerAccountID: s.LedgerAccountID,
		LedgerYear:      s.LedgerYear,
		Rollup:          s.Rollup,
	}}
}

// Pricer is the sum type spec.md §9 calls for: a scalar hourly Money rate,
// or a function computing the whole line amount from the Flight.
type Pricer struct {
	hourly  *money.Money
	perLine func(f *event.Flight) money.Money
}

// Hourly builds a Pricer that charges duration_minutes * rate / 60.
func Hourly(rate money.Money) Pricer {
	return Pricer{hourly: &rate}
}

// PerLine builds a Pricer computing the full line amount from the Flight.
func PerLine(fn func(f *event.Flight) money.Money) Pricer {
	return Pricer{perLine: fn}
}

func (p Pricer) price(f *event.Flight) money.Money {
	if p.perLine != nil {
		// Pricing-function exceptions (here: panics) MUST propagate per
		// spec.md §4.6 — they indicate a configuration bug, unlike a
		// filter predicate's false result.
		return p.perLine(f)
	}
	return money.DivMinutesOverSixty(*p.hourly, f.Duration)
}

// FlightRule prices a Flight event. Template supports interpolation of
// {aircraft}, {duration}, {purpose}, {invoicing_comment}; duration is
// formatted as truncated integer minutes, per spec.md §9.
type FlightRule struct {
	Price           Pricer
	LedgerAccountID *int64
	Filters         []filter.Predicate
	Template        string
	Ref             string
}

func NewFlightRule(ref string, price Pricer, ledgerAccountID *int64, template string, filters ...filter.Predicate) *FlightRule {
	return &FlightRule{Price: price, LedgerAccountID: ledgerAccountID, Filters: filters, Template: template, Ref: ref}
}

func (r *FlightRule) Evaluate(e event.Event, _ *billingctx.BillingContext) []ChargeLine {
	f, ok := event.IsFlight(e)
	if !ok || !filter.All(r.Filters, e) {
		return nil
	}

	amount := r.Price.price(f)
	description := formatTemplate(r.Template, f)

	return []ChargeLine{{
		AccountID:       f.AccountID(),
		Date:            f.Date(),
		Description:     description,
		Amount:          amount,
		RuleRef:         r.Ref,
		SourceEvent:     e,
		LedgerAccountID: r.LedgerAccountID,
	}}
}

func formatTemplate(template string, f *event.Flight) string {
	out := template
	out = strings.ReplaceAll(out, "{aircraft}", f.Aircraft)
	out = strings.ReplaceAll(out, "{duration}", truncatedMinutes(f.Duration))
	out = strings.ReplaceAll(out, "{purpose}", f.Purpose)
	out = strings.ReplaceAll(out, "{invoicing_comment}", f.InvoicingComment)
	return out
}

func truncatedMinutes(m money.Money) string {
	whole := m.Micros() / money.Micros
	if m.Micros() < 0 && m.Micros()%money.Micros != 0 {
		// Truncation toward zero for negative fractional minutes, which
		// never occurs for real flight durations but keeps the helper
		// total.
		whole++
	}
	return strconv.FormatInt(whole, 10)
}

// AllRules evaluates every inner rule in order and concatenates emitted
// lines.
type AllRules struct {
	Inner []Rule
}

func NewAllRules(inner ...Rule) *AllRules { return &AllRules{Inner: inner} }

func (r *AllRules) Evaluate(e event.Event, ctx *billingctx.BillingContext) []ChargeLine {
	var lines []ChargeLine
	for _, inner := range r.Inner {
		lines = append(lines, inner.Evaluate(e, ctx)...)
	}
	return lines
}

// FirstRule evaluates in order and returns the first non-empty result,
// skipping remaining rules. The primary discriminator for alternative
// pricing tiers.
type FirstRule struct {
	Inner []Rule
}

func NewFirstRule(inner ...Rule) *FirstRule { return &FirstRule{Inner: inner} }

func (r *FirstRule) Evaluate(e event.Event, ctx *billingctx.BillingContext) []ChargeLine {
	for _, inner := range r.Inner {
		if lines := inner.Evaluate(e, ctx); len(lines) > 0 {
			return lines
		}
	}
	return nil
}

// MinimumDurationRule clamps a Flight's duration up to minMinutes for the
// scope of evaluating Inner, restoring the original duration before
// returning so downstream rules see the untouched event.
type MinimumDurationRule struct {
	Inner           Rule
	AircraftFilters []filter.Predicate
	MinMinutes      money.Money
	Suffix          string
}

func NewMinimumDurationRule(inner Rule, minMinutes money.Money, suffix string, aircraftFilters ...filter.Predicate) *MinimumDurationRule {
	return &MinimumDurationRule{Inner: inner, AircraftFilters: aircraftFilters, MinMinutes: minMinutes, Suffix: suffix}
}

func (r *MinimumDurationRule) Evaluate(e event.Event, ctx *billingctx.BillingContext) []ChargeLine {
	f, ok := event.IsFlight(e)
	if !ok {
		return r.Inner.Evaluate(e, ctx)
	}

	matchesAircraft := false
	for _, af := range r.AircraftFilters {
		if af.Match(e) {
			matchesAircraft = true
			break
		}
	}
	if !matchesAircraft || f.TransferTow || f.Duration.Cmp(r.MinMinutes) >= 0 {
		return r.Inner.Evaluate(e, ctx)
	}

	original := f.Duration
	f.Duration = r.MinMinutes
	lines := r.Inner.Evaluate(e, ctx)
	f.Duration = original

	for i := range lines {
		lines[i].Description += " " + r.Suffix
	}
	return lines
}

// SetLedgerYearRule stamps year onto every emitted line whose LedgerYear
// is nil. Idempotent for lines whose LedgerYear is already set.
type SetLedgerYearRule struct {
	Inner Rule
	Year  int
}

func NewSetLedgerYearRule(inner Rule, year int) *SetLedgerYearRule {
	return &SetLedgerYearRule{Inner: inner, Year: year}
}

func (r *SetLedgerYearRule) Evaluate(e event.Event, ctx *billingctx.BillingContext) []ChargeLine {
	lines := r.Inner.Evaluate(e, ctx)
	for i := range lines {
		if lines[i].LedgerYear == nil {
			year := r.Year
			lines[i].LedgerYear = &year
		}
	}
	return lines
}

// SetDateRule evaluates Inner and, for every emitted line, writes
// ctx[line.account_id, VarID] := line.date. The line stream passes
// through unchanged.
type SetDateRule struct {
	VarID string
	Ctx   *billingctx.BillingContext
	Inner Rule
}

func NewSetDateRule(varID string, ctx *billingctx.BillingContext, inner Rule) *SetDateRule {
	return &SetDateRule{VarID: varID, Ctx: ctx, Inner: inner}
}

func (r *SetDateRule) Evaluate(e event.Event, ctx *billingctx.BillingContext) []ChargeLine {
	lines := r.Inner.Evaluate(e, ctx)
	for _, line := range lines {
		r.Ctx.SetDate(line.AccountID, r.VarID, line.Date)
	}
	return lines
}

// CappedRule is the core accumulator rule: an annual ceiling on cumulative
// charges emitted under VarID. Lines are processed in arrival order; the
// accumulator is updated between lines.
//
// The over-cap branch and the per-line accumulator update collapse the two
// source ambiguities spec.md §9 flags into one deterministic rule: once
// acc >= CapAmount the line is either dropped or zeroed-and-suffixed, and
// exactly one ctx.Set happens per emitted line, equal to acc + the line's
// final (possibly rewritten) amount — which is a no-op add when the line
// was zeroed, and otherwise the ordinary running total. A dropped line
// leaves the context untouched.
type CappedRule struct {
	VarID          string
	CapAmount      money.Money
	Ctx            *billingctx.BillingContext
	Inner          Rule
	DropOverCap    bool
	CapDescription string
}

func NewCappedRule(varID string, cap money.Money, ctx *billingctx.BillingContext, inner Rule, dropOverCap bool, capDescription string) *CappedRule {
	return &CappedRule{VarID: varID, CapAmount: cap, Ctx: ctx, Inner: inner, DropOverCap: dropOverCap, CapDescription: capDescription}
}

func (r *CappedRule) Evaluate(e event.Event, ctx *billingctx.BillingContext) []ChargeLine {
	lines := r.Inner.Evaluate(e, ctx)
	out := make([]ChargeLine, 0, len(lines))

	for _, line := range lines {
		acc := r.Ctx.GetAmount(line.AccountID, r.VarID)

		switch {
		case acc.Cmp(r.CapAmount) >= 0:
			if r.DropOverCap {
				continue
			}
			line.Amount = money.Zero
			line.Description += ", " + r.CapDescription
			line.Capped = true
		case acc.Add(line.Amount).Cmp(r.CapAmount) > 0:
			line.Amount = r.CapAmount.Sub(acc)
			line.Description += ", " + r.CapDescription
			line.Capped = true
		}

		r.Ctx.SetAmount(line.AccountID, r.VarID, acc.Add(line.Amount))
		out = append(out, line)
	}
	return out
}

// DebugRule is a transparent wrapper: it evaluates Inner, calls Log when
// ShouldLog is true, and always returns Inner's result unchanged.
type DebugRule struct {
	Inner     Rule
	ShouldLog func(e event.Event, lines []ChargeLine) bool
	Log       func(e event.Event, lines []ChargeLine)
}

func NewDebugRule(inner Rule, shouldLog func(event.Event, []ChargeLine) bool, log func(event.Event, []ChargeLine)) *DebugRule {
	return &DebugRule{Inner: inner, ShouldLog: shouldLog, Log: log}
}

func (r *DebugRule) Evaluate(e event.Event, ctx *billingctx.BillingContext) []ChargeLine {
	lines := r.Inner.Evaluate(e, ctx)
	if r.ShouldLog != nil && r.Log != nil && r.ShouldLog(e, lines) {
		r.Log(e, lines)
	}
	return lines
}
