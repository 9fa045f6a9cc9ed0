package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatInvoiceNumberSubstitutesAccountToken(t *testing.T) {
	issuedAt := time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC)

	number, err := FormatInvoiceNumber(DefaultInvoiceNumberTemplate, issuedAt, "pk-1001", 42)
	require.NoError(t, err)
	assert.Equal(t, "INV-20260307-PK1001-000042", number)
}

func TestFormatInvoiceNumberDistinguishesAccounts(t *testing.T) {
	issuedAt := time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC)

	a, err := FormatInvoiceNumber(DefaultInvoiceNumberTemplate, issuedAt, "1001", 1)
	require.NoError(t, err)
	b, err := FormatInvoiceNumber(DefaultInvoiceNumberTemplate, issuedAt, "1002", 1)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestFormatInvoiceNumberRejectsInvalidSequence(t *testing.T) {
	_, err := FormatInvoiceNumber(DefaultInvoiceNumberTemplate, time.Now(), "1001", 0)
	assert.Error(t, err)
}

func TestFormatInvoiceNumberRejectsUnresolvedToken(t *testing.T) {
	_, err := FormatInvoiceNumber("INV-{UNKNOWN}", time.Now(), "1001", 1)
	assert.Error(t, err)
}
