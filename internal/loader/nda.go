package loader

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/smallbiznis/glidebill/internal/event"
	"github.com/smallbiznis/glidebill/internal/money"
)

// ndaTransaction is one bank transaction lifted from a fixed-format NDA
// file, named after the fields nda2csv.py's output CSV exposes
// (value_date, cents, ref, ...).
type ndaTransaction struct {
	valueDate string
	cents     int64
	ref       string
}

// NDALoader lifts incoming bank transactions into negated-sign
// SimpleEvents. Only transactions whose reference matches an allowed
// account-id length (4 or 6) are lifted, per spec.md §6 — everything
// else is a transaction the club cannot attribute to an account and is
// silently skipped, the same filter original_source/pik/reader.py applies
// before constructing SimpleEvents from NDA transactions.
//
// The on-the-wire NDA record is a vendor-specific (Nordea) fixed-format
// file. This loader accepts the simplified pipe-delimited
// "value_date|cents|ref" projection of that format — the fields
// nda2csv.py itself re-exports to CSV — rather than parsing raw
// fixed-width bank records byte-by-byte.
type NDALoader struct {
	seq int64
}

func NewNDALoader() *NDALoader { return &NDALoader{} }

func (l *NDALoader) Load(path string) ([]event.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("loader: open nda file %s: %w", path, err)
	}
	defer f.Close()

	var events []event.Event
	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		txn, err := parseNDALine(line)
		if err != nil {
			return nil, fmt.Errorf("loader: nda file %s line %d: %w", path, lineNum, err)
		}

		if txn.cents <= 0 || len(txn.ref) != 4 && len(txn.ref) != 6 {
			continue
		}

		date, err := ParseDate(txn.valueDate)
		if err != nil {
			return nil, fmt.Errorf("loader: nda file %s line %d: %w", path, lineNum, err)
		}

		// Incoming money reduces account debt: negate the sign.
		amount := money.FromCents(-txn.cents)

		l.seq++
		events = append(events, event.NewSimpleEvent(txn.ref, date, l.seq, "NDA transaction", amount, nil, nil, false))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("loader: read nda file %s: %w", path, err)
	}
	return events, nil
}

func parseNDALine(line string) (ndaTransaction, error) {
	fields := strings.Split(line, "|")
	if len(fields) < 3 {
		return ndaTransaction{}, fmt.Errorf("expected value_date|cents|ref, got %q", line)
	}
	cents, err := strconv.ParseInt(strings.TrimSpace(fields[1]), 10, 64)
	if err != nil {
		return ndaTransaction{}, fmt.Errorf("invalid cents field %q: %w", fields[1], err)
	}
	return ndaTransaction{
		valueDate: strings.TrimSpace(fields[0]),
		cents:     cents,
		ref:       strings.TrimSpace(fields[2]),
	}, nil
}
