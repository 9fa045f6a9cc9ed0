package invoice

import (
	"testing"
	"time"

	"github.com/smallbiznis/glidebill/internal/money"
	"github.com/smallbiznis/glidebill/internal/rule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func line(account string, date time.Time, amount string) rule.ChargeLine {
	m, _ := money.Parse(amount)
	return rule.ChargeLine{AccountID: account, Date: date, Amount: m}
}

func TestAssembleGroupsSortsAndOrders(t *testing.T) {
	d1 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	lines := []rule.ChargeLine{
		line("2002", d1, "10"),
		line("1001", d1, "5"),
		line("1001", d2, "5"),
	}

	invoices := Assemble(lines, d1)
	require.Len(t, invoices, 2)
	assert.Equal(t, "1001", invoices[0].AccountID)
	assert.Equal(t, "2002", invoices[1].AccountID)
	assert.True(t, invoices[0].Lines[0].Date.Equal(d2))
	assert.Equal(t, "10.00", invoices[0].Total().Display())
}

func TestInvoiceTotalAndIsZero(t *testing.T) {
	d := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	inv := Invoice{AccountID: "1001", Lines: []rule.ChargeLine{line("1001", d, "5"), line("1001", d, "-5")}}
	assert.Equal(t, "0.00", inv.Total().Display())
	assert.True(t, inv.IsZero())
}
