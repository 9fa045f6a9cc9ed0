// Package writer implements the output adapters spec.md §6 describes:
// per-account invoice text files, totals.csv, rows_<year>.csv, and a
// context JSON snapshot. Grounded on original_source/pik/writer.py for
// the exact CSV column order and on internal/invoiceformat's "pure,
// deterministic, no DB access" formatting style.
package writer

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/smallbiznis/glidebill/internal/billingctx"
	"github.com/smallbiznis/glidebill/internal/invoice"
	format "github.com/smallbiznis/glidebill/internal/invoiceformat"
)

// InvoiceTextWriter writes one <account_id>.txt per non-trivial invoice.
// NumberTemplate follows internal/invoiceformat's token syntax
// ({YYYY}/{MM}/{DD}/{ACCOUNT}/{SEQn}); an empty template falls back to
// format.DefaultInvoiceNumberTemplate.
type InvoiceTextWriter struct {
	OutDir         string
	Description    string
	NumberTemplate string
}

func NewInvoiceTextWriter(outDir, description, numberTemplate string) *InvoiceTextWriter {
	return &InvoiceTextWriter{OutDir: outDir, Description: description, NumberTemplate: numberTemplate}
}

// WriteAll writes every invoice's text file. ConfigError semantics: an
// existing out_dir is the caller's concern (spec.md §7 treats a
// pre-existing out_dir as a fatal ConfigError, in contrast to the
// original Python writer which silently reused it); WriteAll itself only
// creates out_dir when entirely absent. Each invoice is stamped with a
// human-readable invoice number, sequential in the account order
// invoice.Assemble already produced.
func (w *InvoiceTextWriter) WriteAll(invoices []invoice.Invoice) error {
	if err := os.MkdirAll(w.OutDir, 0o755); err != nil {
		return fmt.Errorf("writer: create out_dir %s: %w", w.OutDir, err)
	}

	template := w.NumberTemplate
	if template == "" {
		template = format.DefaultInvoiceNumberTemplate
	}

	seq := int64(0)
	for _, inv := range invoices {
		if inv.IsZero() {
			continue
		}
		seq++
		number, err := format.FormatInvoiceNumber(template, inv.InvoiceDate, inv.AccountID, seq)
		if err != nil {
			return fmt.Errorf("writer: format invoice number for %s: %w", inv.AccountID, err)
		}
		path := filepath.Join(w.OutDir, inv.AccountID+".txt")
		if err := os.WriteFile(path, []byte(formatInvoiceText(inv, w.Description, number)), 0o644); err != nil {
			return fmt.Errorf("writer: write invoice text %s: %w", path, err)
		}
	}
	return nil
}

func formatInvoiceText(inv invoice.Invoice, description, invoiceNumber string) string {
	out := fmt.Sprintf("%s\n%s\nInvoice %s\n\n", description, inv.AccountID, invoiceNumber)
	for _, line := range inv.Lines {
		out += fmt.Sprintf("%s  %-40s  %10s\n", line.Date.Format("2006-01-02"), line.Description, line.Amount.Display())
	}
	out += fmt.Sprintf("\nTOTAL: %s\n", inv.Total().Display())
	return out
}

// TotalsCSVWriter writes one row per account with its aggregate total.
type TotalsCSVWriter struct {
	Path string
}

func NewTotalsCSVWriter(path string) *TotalsCSVWriter { return &TotalsCSVWriter{Path: path} }

func (w *TotalsCSVWriter) Write(invoices []invoice.Invoice) error {
	f, err := os.Create(w.Path)
	if err != nil {
		return fmt.Errorf("writer: create totals csv %s: %w", w.Path, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	for _, inv := range invoices {
		if err := cw.Write([]string{inv.AccountID, inv.InvoiceDate.Format("2006-01-02"), inv.Total().Display()}); err != nil {
			return fmt.Errorf("writer: write totals csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// RowsCSVWriter writes non-rollup lines grouped by fiscal year into
// fname_template % year, per spec.md §6.
type RowsCSVWriter struct {
	OutDir       string
	NameTemplate string // must contain one %s/%d for the ledger year
}

func NewRowsCSVWriter(outDir, nameTemplate string) *RowsCSVWriter {
	return &RowsCSVWriter{OutDir: outDir, NameTemplate: nameTemplate}
}

func (w *RowsCSVWriter) Write(invoices []invoice.Invoice) error {
	byYear := make(map[int][][]string)
	for _, inv := range invoices {
		for _, line := range inv.Lines {
			if line.Rollup {
				continue
			}
			year := 0
			if line.LedgerYear != nil {
				year = *line.LedgerYear
			} else {
				year = line.Date.Year()
			}
			ledgerAccount := ""
			if line.LedgerAccountID != nil {
				ledgerAccount = strconv.FormatInt(*line.LedgerAccountID, 10)
			}
			byYear[year] = append(byYear[year], []string{
				line.AccountID,
				line.Date.Format("2006-01-02"),
				line.Description,
				line.Amount.Display(),
				ledgerAccount,
				strconv.Itoa(year),
			})
		}
	}

	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)

	for _, year := range years {
		// config.validate() accepts either a %s or %d verb (spec.md §6
		// documents "%s" as the example); substitute the year as a string
		// for either so an operator's %s template doesn't render as
		// "%!s(int=...)" via fmt.Sprintf.
		name := strings.NewReplacer("%s", strconv.Itoa(year), "%d", strconv.Itoa(year)).Replace(w.NameTemplate)
		path := filepath.Join(w.OutDir, name)
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("writer: create rows csv %s: %w", path, err)
		}
		cw := csv.NewWriter(f)
		for _, row := range byYear[year] {
			if err := cw.Write(row); err != nil {
				f.Close()
				return fmt.Errorf("writer: write rows csv row %s: %w", path, err)
			}
		}
		cw.Flush()
		err = cw.Error()
		f.Close()
		if err != nil {
			return fmt.Errorf("writer: flush rows csv %s: %w", path, err)
		}
	}
	return nil
}

// ContextJSONWriter writes the optional updated-context JSON snapshot.
type ContextJSONWriter struct {
	Path string
}

func NewContextJSONWriter(path string) *ContextJSONWriter { return &ContextJSONWriter{Path: path} }

func (w *ContextJSONWriter) Write(ctx *billingctx.BillingContext) error {
	if w.Path == "" {
		return nil
	}
	b, err := json.MarshalIndent(ctx, "", "  ")
	if err != nil {
		return fmt.Errorf("writer: marshal context: %w", err)
	}
	if err := os.WriteFile(w.Path, b, 0o644); err != nil {
		return fmt.Errorf("writer: write context json %s: %w", w.Path, err)
	}
	return nil
}
