package writer

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/smallbiznis/glidebill/internal/billingctx"
	"github.com/smallbiznis/glidebill/internal/invoice"
	"github.com/smallbiznis/glidebill/internal/money"
	"github.com/smallbiznis/glidebill/internal/rule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvoiceTextWriterSkipsZeroInvoices(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")
	w := NewInvoiceTextWriter(outDir, "Gliding Club", "")

	amount, _ := money.Parse("10")
	invoices := []invoice.Invoice{
		{AccountID: "1001", InvoiceDate: time.Now(), Lines: []rule.ChargeLine{{AccountID: "1001", Date: time.Now(), Amount: amount, Description: "fee"}}},
		{AccountID: "1002", InvoiceDate: time.Now(), Lines: nil},
	}

	require.NoError(t, w.WriteAll(invoices))

	_, err := os.Stat(filepath.Join(outDir, "1001.txt"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(outDir, "1002.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestRowsCSVWriterGroupsByYear(t *testing.T) {
	dir := t.TempDir()
	year := 2024
	amount, _ := money.Parse("10")
	invoices := []invoice.Invoice{
		{AccountID: "1001", Lines: []rule.ChargeLine{{AccountID: "1001", Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Amount: amount, LedgerYear: &year}}},
	}

	w := NewRowsCSVWriter(dir, "rows_%d.csv")
	require.NoError(t, w.Write(invoices))

	_, err := os.Stat(filepath.Join(dir, "rows_2024.csv"))
	assert.NoError(t, err)
}

func TestRowsCSVWriterAcceptsPercentSTemplate(t *testing.T) {
	dir := t.TempDir()
	year := 2024
	amount, _ := money.Parse("10")
	invoices := []invoice.Invoice{
		{AccountID: "1001", Lines: []rule.ChargeLine{{AccountID: "1001", Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Amount: amount, LedgerYear: &year}}},
	}

	w := NewRowsCSVWriter(dir, "rows_%s.csv")
	require.NoError(t, w.Write(invoices))

	_, err := os.Stat(filepath.Join(dir, "rows_2024.csv"))
	assert.NoError(t, err)
}

func TestContextJSONWriterRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "context.json")

	ctx := billingctx.New()
	ctx.SetAmount("1001", "k2024", money.FromCents(9000))

	w := NewContextJSONWriter(path)
	require.NoError(t, w.Write(ctx))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "90.00")
}
