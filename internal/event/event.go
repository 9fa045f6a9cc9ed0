// Package event defines the tagged-union Event model: Flight and
// SimpleEvent, the two variants the rule engine consumes.
package event

import (
	"strings"
	"time"

	"github.com/smallbiznis/glidebill/internal/money"
)

// Event is the common surface every rule and filter operates on. Concrete
// variants implement it; leaf rules type-switch on the concrete type the
// way spec.md §9's design notes call for instead of class-hierarchy
// polymorphism.
type Event interface {
	AccountID() string
	Date() time.Time
	// seq is an insertion-order tiebreaker for Before, unexported so only
	// this package's constructors can produce a well-formed Event.
	seq() int64
}

// Flight is one logged flight.
type Flight struct {
	accountID        string
	date             time.Time
	sequence         int64
	Aircraft         string
	Duration         money.Money // minutes, decimal
	Purpose          string
	TransferTow      bool
	InvoicingComment string
}

// NewFlight canonicalizes account_id to upper-case, per spec.md §3.
func NewFlight(accountID string, date time.Time, seq int64, aircraft string, duration money.Money, purpose string, transferTow bool, invoicingComment string) *Flight {
	return &Flight{
		accountID:        strings.ToUpper(strings.TrimSpace(accountID)),
		date:             date.UTC(),
		sequence:         seq,
		Aircraft:         aircraft,
		Duration:         duration,
		Purpose:          purpose,
		TransferTow:      transferTow,
		InvoicingComment: invoicingComment,
	}
}

func (f *Flight) AccountID() string { return f.accountID }
func (f *Flight) Date() time.Time   { return f.date }
func (f *Flight) seq() int64        { return f.sequence }

// SimpleEvent is a manual ledger item or a lifted bank transaction.
type SimpleEvent struct {
	accountID       string
	date            time.Time
	sequence        int64
	Item            string
	Amount          money.Money
	LedgerAccountID *int64
	LedgerYear      *int
	Rollup          bool
}

// NewSimpleEvent canonicalizes account_id to upper-case, per spec.md §3.
func NewSimpleEvent(accountID string, date time.Time, seq int64, item string, amount money.Money, ledgerAccountID *int64, ledgerYear *int, rollup bool) *SimpleEvent {
	return &SimpleEvent{
		accountID:       strings.ToUpper(strings.TrimSpace(accountID)),
		date:            date.UTC(),
		sequence:        seq,
		Item:            item,
		Amount:          amount,
		LedgerAccountID: ledgerAccountID,
		LedgerYear:      ledgerYear,
		Rollup:          rollup,
	}
}

func (s *SimpleEvent) AccountID() string { return s.accountID }
func (s *SimpleEvent) Date() time.Time   { return s.date }
func (s *SimpleEvent) seq() int64        { return s.sequence }

// Before implements the total order spec.md §3 requires: by date, then by
// insertion order on ties.
func Before(a, b Event) bool {
	if !a.Date().Equal(b.Date()) {
		return a.Date().Before(b.Date())
	}
	return a.seq() < b.seq()
}

// IsFlight reports whether e is a Flight and returns it.
func IsFlight(e Event) (*Flight, bool) {
	f, ok := e.(*Flight)
	return f, ok
}

// IsSimpleEvent reports whether e is a SimpleEvent and returns it.
func IsSimpleEvent(e Event) (*SimpleEvent, bool) {
	s, ok := e.(*SimpleEvent)
	return s, ok
}

// Kind names e's concrete variant, for metrics labels and diagnostics
// shared by internal/engine and internal/validator.
func Kind(e Event) string {
	if _, ok := IsFlight(e); ok {
		return "Flight"
	}
	return "SimpleEvent"
}

// SortStable orders events by the Before total order, stable on ties. Ties
// do occur: each loader numbers its own events, so two events from
// different loaders can share both date and seq, and then keep their
// order in the input slice.
func SortStable(events []Event) {
	sortStable(events)
}
