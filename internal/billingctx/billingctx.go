// Package billingctx implements BillingContext, the two-level mutable
// key-value store stateful rules (CappedRule, SetDateRule, SinceDate) read
// and write during a single engine pass.
package billingctx

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/smallbiznis/glidebill/internal/money"
)

// Value is either a decimal accumulator or an ISO-8601 date string, the two
// shapes spec.md §3 names for a context cell.
type Value struct {
	Amount   money.Money
	Date     time.Time
	HasDate  bool
	HasMoney bool
}

// AmountValue wraps a decimal accumulator.
func AmountValue(m money.Money) Value { return Value{Amount: m, HasMoney: true} }

// DateValue wraps an ISO-8601 date.
func DateValue(t time.Time) Value { return Value{Date: t.UTC(), HasDate: true} }

// BillingContext is a process-local map of (account_id, variable_id) ->
// Value, saved between runs only through its JSON form. It is owned by the engine for the
// duration of one pass; rules hold a borrowed reference and mutate it
// in place, so no locking is required for single-threaded use, but the
// embedded mutex makes it safe to inspect from a concurrently-running
// audit/metrics goroutine after the pass completes.
type BillingContext struct {
	mu   sync.RWMutex
	data map[string]map[string]Value
}

// New returns an empty BillingContext.
func New() *BillingContext {
	return &BillingContext{data: make(map[string]map[string]Value)}
}

// Get returns the value stored for (account, variable) and whether it was
// present. A missing entry is never an error; callers (SinceDate,
// CappedRule) default it.
func (c *BillingContext) Get(account, variable string) (Value, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	row, ok := c.data[account]
	if !ok {
		return Value{}, false
	}
	v, ok := row[variable]
	return v, ok
}

// GetAmount returns the accumulator for (account, variable), defaulting to
// zero when absent, matching CappedRule's "default 0" contract.
func (c *BillingContext) GetAmount(account, variable string) money.Money {
	v, ok := c.Get(account, variable)
	if !ok || !v.HasMoney {
		return money.Zero
	}
	return v.Amount
}

// GetDate returns the date stored for (account, variable) and whether it
// is present and well-formed, for SinceDate.
func (c *BillingContext) GetDate(account, variable string) (time.Time, bool) {
	v, ok := c.Get(account, variable)
	if !ok || !v.HasDate {
		return time.Time{}, false
	}
	return v.Date, true
}

// Set stores a value for (account, variable), creating the account row on
// first write.
func (c *BillingContext) Set(account, variable string, v Value) {
	c.mu.Lock()
	defer c.mu.Unlock()
	row, ok := c.data[account]
	if !ok {
		row = make(map[string]Value)
		c.data[account] = row
	}
	row[variable] = v
}

// SetAmount is a convenience wrapper around Set for decimal accumulators.
func (c *BillingContext) SetAmount(account, variable string, m money.Money) {
	c.Set(account, variable, AmountValue(m))
}

// SetDate is a convenience wrapper around Set for ISO date cells.
func (c *BillingContext) SetDate(account, variable string, t time.Time) {
	c.Set(account, variable, DateValue(t))
}

// MarshalJSON serializes the context to the same shape it is loaded from:
// { account_id: { variable_id: value, ... }, ... }.
func (c *BillingContext) MarshalJSON() ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]map[string]string, len(c.data))
	for account, row := range c.data {
		wireRow := make(map[string]string, len(row))
		for variable, v := range row {
			switch {
			case v.HasDate:
				wireRow[variable] = v.Date.Format("2006-01-02")
			case v.HasMoney:
				wireRow[variable] = v.Amount.Raw()
			}
		}
		out[account] = wireRow
	}
	return json.Marshal(out)
}

// UnmarshalJSON loads a context snapshot, inferring each cell's shape: a
// value parseable as a date (YYYY-MM-DD) is a date cell, otherwise it is
// parsed as a decimal accumulator.
func (c *BillingContext) UnmarshalJSON(b []byte) error {
	var raw map[string]map[string]string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	data := make(map[string]map[string]Value, len(raw))
	for account, row := range raw {
		wireRow := make(map[string]Value, len(row))
		for variable, s := range row {
			if t, err := time.Parse("2006-01-02", s); err == nil {
				wireRow[variable] = DateValue(t)
				continue
			}
			m, err := money.Parse(s)
			if err != nil {
				return err
			}
			wireRow[variable] = AmountValue(m)
		}
		data[account] = wireRow
	}

	c.mu.Lock()
	c.data = data
	c.mu.Unlock()
	return nil
}
