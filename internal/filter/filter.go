// Package filter implements the pure Event -> bool predicates rules use
// for gating. Filters are side-effect free and referentially transparent
// across a single event, per spec.md §4.1.
package filter

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/smallbiznis/glidebill/internal/billingctx"
	"github.com/smallbiznis/glidebill/internal/event"
	"github.com/smallbiznis/glidebill/internal/money"
)

// Predicate is a pure, named gating function. String() gives every filter
// a stable diagnostic representation, as spec.md §4.1 requires.
type Predicate interface {
	Match(e event.Event) bool
	String() string
}

// predicateFunc adapts a plain function into a Predicate with a fixed
// diagnostic label.
type predicateFunc struct {
	label string
	fn    func(e event.Event) bool
}

func (p predicateFunc) Match(e event.Event) bool { return p.fn(e) }
func (p predicateFunc) String() string           { return p.label }

func newPredicate(label string, fn func(event.Event) bool) Predicate {
	return predicateFunc{label: label, fn: fn}
}

// Period matches when event.date falls inside the given Period.
func Period(p money.Period) Predicate {
	return newPredicate(fmt.Sprintf("Period(%s)", p), func(e event.Event) bool {
		return p.Contains(e.Date())
	})
}

// Aircraft matches Flights whose aircraft registration is in set.
func Aircraft(set ...string) Predicate {
	lookup := toSet(set)
	return newPredicate(fmt.Sprintf("Aircraft(%s)", strings.Join(set, ",")), func(e event.Event) bool {
		f, ok := event.IsFlight(e)
		if !ok {
			return false
		}
		_, in := lookup[f.Aircraft]
		return in
	})
}

// Purpose matches Flights whose purpose code is in set.
func Purpose(set ...string) Predicate {
	lookup := toSet(set)
	return newPredicate(fmt.Sprintf("Purpose(%s)", strings.Join(set, ",")), func(e event.Event) bool {
		f, ok := event.IsFlight(e)
		if !ok {
			return false
		}
		_, in := lookup[f.Purpose]
		return in
	})
}

// TransferTow matches Flights flagged as a tow/repositioning flight.
func TransferTow() Predicate {
	return newPredicate("TransferTow", func(e event.Event) bool {
		f, ok := event.IsFlight(e)
		return ok && f.TransferTow
	})
}

// InvoicingCharge matches Flights carrying a non-empty invoicing comment.
func InvoicingCharge() Predicate {
	return newPredicate("InvoicingCharge", func(e event.Event) bool {
		f, ok := event.IsFlight(e)
		return ok && strings.TrimSpace(f.InvoicingComment) != ""
	})
}

// ItemRegex matches SimpleEvents whose item text matches r.
func ItemRegex(r *regexp.Regexp) Predicate {
	return newPredicate(fmt.Sprintf("ItemRegex(%s)", r.String()), func(e event.Event) bool {
		s, ok := event.IsSimpleEvent(e)
		return ok && r.MatchString(s.Item)
	})
}

// PositiveAmount matches SimpleEvents with amount >= 0.
func PositiveAmount() Predicate {
	return newPredicate("PositiveAmount", func(e event.Event) bool {
		s, ok := event.IsSimpleEvent(e)
		return ok && !s.Amount.IsNegative()
	})
}

// NegativeAmount matches SimpleEvents with amount < 0.
func NegativeAmount() Predicate {
	return newPredicate("NegativeAmount", func(e event.Event) bool {
		s, ok := event.IsSimpleEvent(e)
		return ok && s.Amount.IsNegative()
	})
}

// BirthDate matches when the account's age at event.date is <= maxAgeYears,
// using the 365.25-day convention. An account missing from table, or a
// malformed entry, defaults to false rather than raising, per spec.md §4.6.
func BirthDate(table map[string]time.Time, maxAgeYears float64) Predicate {
	return newPredicate(fmt.Sprintf("BirthDate(<=%.2fy)", maxAgeYears), func(e event.Event) bool {
		birth, ok := table[e.AccountID()]
		if !ok {
			return false
		}
		return money.AgeYears(birth, e.Date()) <= maxAgeYears
	})
}

// MemberListMode selects whitelist or blacklist semantics for MemberList.
type MemberListMode int

const (
	Whitelist MemberListMode = iota
	Blacklist
)

// MemberList matches when event.account_id ∈ set iff mode == Whitelist.
func MemberList(set []string, mode MemberListMode) Predicate {
	lookup := toSet(set)
	label := "Whitelist"
	if mode == Blacklist {
		label = "Blacklist"
	}
	return newPredicate(fmt.Sprintf("MemberList(%s,%d)", label, len(set)), func(e event.Event) bool {
		_, in := lookup[e.AccountID()]
		if mode == Whitelist {
			return in
		}
		return !in
	})
}

// SinceDate matches when ctx[account, varID] holds a date <= event.date.
// An uninitialized or malformed context entry is treated as "filter did
// not match" (false), per spec.md §4.6's failure semantics.
func SinceDate(ctx *billingctx.BillingContext, varID string) Predicate {
	return newPredicate(fmt.Sprintf("SinceDate(%s)", varID), func(e event.Event) bool {
		d, ok := ctx.GetDate(e.AccountID(), varID)
		if !ok {
			return false
		}
		return !d.After(e.Date())
	})
}

// Not negates f.
func Not(f Predicate) Predicate {
	return newPredicate(fmt.Sprintf("Not(%s)", f), func(e event.Event) bool {
		return !f.Match(e)
	})
}

// Or matches when any of fs matches. Every predicate passed is consulted
// ("take ALL elements"), the semantics spec.md §9's Open Questions
// resolves as the more recent revision; a nested Or is evaluated as one
// ordinary predicate, not flattened.
func Or(fs ...Predicate) Predicate {
	flat := make([]Predicate, 0, len(fs))
	flat = append(flat, fs...)
	return newPredicate(fmt.Sprintf("Or(%d)", len(flat)), func(e event.Event) bool {
		for _, f := range flat {
			if f.Match(e) {
				return true
			}
		}
		return false
	})
}

// IsFlight matches Flight events.
func IsFlight() Predicate {
	return newPredicate("IsFlight", func(e event.Event) bool {
		_, ok := event.IsFlight(e)
		return ok
	})
}

// IsSimpleEvent matches SimpleEvent events.
func IsSimpleEvent() Predicate {
	return newPredicate("IsSimpleEvent", func(e event.Event) bool {
		_, ok := event.IsSimpleEvent(e)
		return ok
	})
}

// All reports whether every filter in fs matches e. An empty filter list
// is always satisfied, per spec.md §4.2's tie-break rules.
func All(fs []Predicate, e event.Event) bool {
	for _, f := range fs {
		if !f.Match(e) {
			return false
		}
	}
	return true
}

func toSet(values []string) map[string]struct{} {
	out := make(map[string]struct{}, len(values))
	for _, v := range values {
		out[v] = struct{}{}
	}
	return out
}
