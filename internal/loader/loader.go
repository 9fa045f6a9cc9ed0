// Package loader implements the external-interface CSV/NDA input adapters
// spec.md §6 describes. Loaders are pure I/O: the only state one keeps
// across Load calls is the event loaders' sequence counter, which keeps
// numbering events from one file to the next; all return
// ([]event.Event, error) or populate a lookup table.
package loader

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/smallbiznis/glidebill/internal/event"
	"github.com/smallbiznis/glidebill/internal/money"
)

// ParseDate accepts ISO (YYYY-MM-DD) or Finnish (DD.MM.YYYY) dates, the two
// formats spec.md §6 names across the CSV inputs.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse("02.01.2006", s); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("loader: unparsable date %q", s)
}

// FlightCSVLoader reads the Flights CSV format spec.md §6 describes:
// Selite's first whitespace-separated token is the aircraft registration,
// Tapahtumapäivä is the event date, Maksajan viitenumero is the account
// id, Lentoaika_desimaalinen is decimal hours, Tarkoitus is the purpose
// code, and Laskutuslisä syy is an optional invoicing comment.
type FlightCSVLoader struct {
	seq int64
}

func NewFlightCSVLoader() *FlightCSVLoader { return &FlightCSVLoader{} }

func (l *FlightCSVLoader) Load(path string) ([]event.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("loader: open flights csv %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("loader: read flights csv header %s: %w", path, err)
	}
	col := columnIndex(header)

	required := []string{"Selite", "Tapahtumapäivä", "Maksajan viitenumero", "Lentoaika_desimaalinen"}
	for _, name := range required {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("loader: flights csv %s missing required column %q", path, name)
		}
	}

	var events []event.Event
	rowNum := 0
	for {
		row, err := reader.Read()
		rowNum++
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("loader: flights csv %s row %d: %w", path, rowNum, err)
		}

		selite := field(row, col, "Selite")
		parts := strings.Fields(selite)
		if len(parts) == 0 {
			return nil, fmt.Errorf("loader: flights csv %s row %d: empty Selite (aircraft registration)", path, rowNum)
		}
		aircraft := strings.ToUpper(parts[0])

		date, err := ParseDate(field(row, col, "Tapahtumapäivä"))
		if err != nil {
			return nil, fmt.Errorf("loader: flights csv %s row %d: %w", path, rowNum, err)
		}

		duration, err := money.Parse(field(row, col, "Lentoaika_desimaalinen"))
		if err != nil {
			return nil, fmt.Errorf("loader: flights csv %s row %d: invalid duration: %w", path, rowNum, err)
		}
		// Lentoaika_desimaalinen is decimal hours; FlightRule prices in
		// minutes, so convert here at the loader boundary.
		duration = duration.MulInt(60)

		account := field(row, col, "Maksajan viitenumero")
		purpose := field(row, col, "Tarkoitus")
		comment := field(row, col, "Laskutuslisä syy")

		l.seq++
		events = append(events, event.NewFlight(account, date, l.seq, aircraft, duration, purpose, false, comment))
	}
	return events, nil
}

// SimpleEventCSVLoader reads the positional SimpleEvent CSV format:
// date, account id, item, amount, optional ledger_account_id, optional
// ledger_year, optional rollup flag.
type SimpleEventCSVLoader struct {
	seq int64
}

func NewSimpleEventCSVLoader() *SimpleEventCSVLoader { return &SimpleEventCSVLoader{} }

func (l *SimpleEventCSVLoader) Load(path string) ([]event.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("loader: open simple event csv %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	var events []event.Event
	rowNum := 0
	for {
		row, err := reader.Read()
		rowNum++
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("loader: simple event csv %s row %d: %w", path, rowNum, err)
		}

		if len(row) < 4 {
			return nil, fmt.Errorf("loader: simple event csv %s row %d: expected at least 4 columns, got %d", path, rowNum, len(row))
		}

		date, err := ParseDate(row[0])
		if err != nil {
			return nil, fmt.Errorf("loader: simple event csv %s row %d: %w", path, rowNum, err)
		}
		account := row[1]
		item := row[2]
		amount, err := money.Parse(row[3])
		if err != nil {
			return nil, fmt.Errorf("loader: simple event csv %s row %d: invalid amount: %w", path, rowNum, err)
		}

		var ledgerAccountID *int64
		if len(row) > 4 && strings.TrimSpace(row[4]) != "" {
			v, err := strconv.ParseInt(strings.TrimSpace(row[4]), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("loader: simple event csv %s row %d: invalid ledger_account_id: %w", path, rowNum, err)
			}
			ledgerAccountID = &v
		}

		var ledgerYear *int
		if len(row) > 5 && strings.TrimSpace(row[5]) != "" {
			v, err := strconv.Atoi(strings.TrimSpace(row[5]))
			if err != nil {
				return nil, fmt.Errorf("loader: simple event csv %s row %d: invalid ledger_year: %w", path, rowNum, err)
			}
			ledgerYear = &v
		}

		rollup := false
		if len(row) > 6 {
			rollup = parseBool(row[6])
		}

		l.seq++
		events = append(events, event.NewSimpleEvent(account, date, l.seq, item, amount, ledgerAccountID, ledgerYear, rollup))
	}
	return events, nil
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y":
		return true
	default:
		return false
	}
}

func columnIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}
	return idx
}

func field(row []string, col map[string]int, name string) string {
	i, ok := col[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// BirthDateCSVLoader reads account_id,date rows (DD.MM.YYYY or
// YYYY-MM-DD), comments starting with '#' and blank lines ignored.
type BirthDateCSVLoader struct{}

func (BirthDateCSVLoader) Load(paths []string) (map[string]time.Time, error) {
	out := make(map[string]time.Time)
	for _, path := range paths {
		if err := readCommentedCSV(path, func(row []string) error {
			if len(row) < 2 {
				return fmt.Errorf("birth date row requires 2 columns, got %d", len(row))
			}
			id := strings.TrimSpace(row[0])
			date, err := ParseDate(row[1])
			if err != nil {
				return err
			}
			out[id] = date
			return nil
		}); err != nil {
			return nil, fmt.Errorf("loader: birth date csv %s: %w", path, err)
		}
	}
	return out, nil
}

// MemberIDCSVLoader reads one account id per row.
type MemberIDCSVLoader struct{}

func (MemberIDCSVLoader) Load(paths []string) (map[string]struct{}, error) {
	out := make(map[string]struct{})
	for _, path := range paths {
		if err := readCommentedCSV(path, func(row []string) error {
			if len(row) < 1 {
				return nil
			}
			out[strings.TrimSpace(row[0])] = struct{}{}
			return nil
		}); err != nil {
			return nil, fmt.Errorf("loader: member id csv %s: %w", path, err)
		}
	}
	return out, nil
}

// KnownIDLoader reads one account id per line, '#'-prefixed comments and
// blank lines ignored.
type KnownIDLoader struct{}

func (KnownIDLoader) Load(paths []string) (map[string]struct{}, error) {
	out := make(map[string]struct{})
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("loader: open known id file %s: %w", path, err)
		}
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			out[line] = struct{}{}
		}
		err = scanner.Err()
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("loader: read known id file %s: %w", path, err)
		}
	}
	return out, nil
}

func readCommentedCSV(path string, visit func(row []string) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if len(row) == 0 || strings.HasPrefix(strings.TrimSpace(row[0]), "#") {
			continue
		}
		if err := visit(row); err != nil {
			return err
		}
	}
	return nil
}
