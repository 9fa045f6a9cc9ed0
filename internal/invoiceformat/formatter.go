// Package format renders the human-readable invoice number stamped into
// each account's invoice text file, per spec.md §6.
package format

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	seqPadRe     = regexp.MustCompile(`\{SEQ(\d+)\}`)
	nonAccountRe = regexp.MustCompile(`[^A-Z0-9]+`)
)

// DefaultInvoiceNumberTemplate ties the number to the gliding club
// account it was invoiced against, so two invoices with the same
// sequence number can never collide across accounts.
const DefaultInvoiceNumberTemplate = "INV-{YYYY}{MM}{DD}-{ACCOUNT}-{SEQ6}"

// FormatInvoiceNumber formats a human-readable invoice number for one
// <account_id>.txt invoice file, based on a template, the invoice's
// issue date, the account it belongs to, and its sequence within the
// run.
//
// This function is PURE:
// - No side effects
// - No DB access
// - Fully deterministic
func FormatInvoiceNumber(
	template string,
	issuedAt time.Time,
	accountID string,
	seq int64,
) (string, error) {

	if template == "" {
		return "", fmt.Errorf("invoice number template is empty")
	}

	if seq <= 0 {
		return "", fmt.Errorf("invalid invoice sequence: %d", seq)
	}

	out := template

	// Date tokens
	out = strings.ReplaceAll(out, "{YYYY}", issuedAt.Format("2006"))
	out = strings.ReplaceAll(out, "{YY}", issuedAt.Format("06"))
	out = strings.ReplaceAll(out, "{MM}", issuedAt.Format("01"))
	out = strings.ReplaceAll(out, "{DD}", issuedAt.Format("02"))

	// Account token: the account ID, upper-cased and stripped of anything
	// that isn't a letter or digit, so it stays filename- and token-safe
	// regardless of how the source CSV spelled it.
	out = strings.ReplaceAll(out, "{ACCOUNT}", sanitizeAccountID(accountID))

	// Simple sequence
	out = strings.ReplaceAll(out, "{SEQ}", strconv.FormatInt(seq, 10))

	// Padded sequence
	out = seqPadRe.ReplaceAllStringFunc(out, func(m string) string {
		match := seqPadRe.FindStringSubmatch(m)
		if len(match) != 2 {
			return m // should never happen
		}

		width, err := strconv.Atoi(match[1])
		if err != nil || width <= 0 {
			return m
		}

		return fmt.Sprintf("%0*d", width, seq)
	})

	// Final safety check: unresolved tokens
	if strings.Contains(out, "{") || strings.Contains(out, "}") {
		return "", fmt.Errorf("unresolved token in invoice format: %s", out)
	}

	return out, nil
}

func sanitizeAccountID(accountID string) string {
	upper := strings.ToUpper(strings.TrimSpace(accountID))
	return nonAccountRe.ReplaceAllString(upper, "")
}
