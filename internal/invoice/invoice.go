// Package invoice assembles Engine output ChargeLines into per-account
// Invoices, per spec.md §4.4.
package invoice

import (
	"sort"
	"time"

	"github.com/smallbiznis/glidebill/internal/money"
	"github.com/smallbiznis/glidebill/internal/rule"
)

// Invoice groups one account's charge lines for a billing run.
type Invoice struct {
	AccountID   string
	InvoiceDate time.Time
	Lines       []rule.ChargeLine
}

// Total sums every line's amount.
func (inv Invoice) Total() money.Money {
	total := money.Zero
	for _, l := range inv.Lines {
		total = total.Add(l.Amount)
	}
	return total
}

// IsZero reports whether |Total()| < 0.01, per spec.md §3.
func (inv Invoice) IsZero() bool {
	return inv.Total().AbsLessThanCent()
}

// Assemble partitions lines by account, sorts each partition's lines by
// date ascending (stable on ties), and returns one Invoice per account in
// ascending account_id order. Zero invoices are flagged, not removed.
func Assemble(lines []rule.ChargeLine, invoiceDate time.Time) []Invoice {
	byAccount := make(map[string][]rule.ChargeLine)
	for _, l := range lines {
		byAccount[l.AccountID] = append(byAccount[l.AccountID], l)
	}

	accounts := make([]string, 0, len(byAccount))
	for account := range byAccount {
		accounts = append(accounts, account)
	}
	sort.Strings(accounts)

	invoices := make([]Invoice, 0, len(accounts))
	for _, account := range accounts {
		accountLines := byAccount[account]
		sort.SliceStable(accountLines, func(i, j int) bool {
			return accountLines[i].Date.Before(accountLines[j].Date)
		})
		invoices = append(invoices, Invoice{
			AccountID:   account,
			InvoiceDate: invoiceDate,
			Lines:       accountLines,
		})
	}
	return invoices
}
