package validator

import (
	"testing"
	"time"

	"github.com/smallbiznis/glidebill/internal/event"
	"github.com/smallbiznis/glidebill/internal/money"
	"github.com/stretchr/testify/assert"
)

func TestS5ValidatorRejection(t *testing.T) {
	known := map[string]struct{}{"1001": {}, "1002": {}}
	external := map[string]struct{}{}
	v := New(known, external, nil)

	amount, _ := money.Parse("25")
	events := []event.Event{
		event.NewSimpleEvent("1001", time.Now(), 1, "fee", amount, nil, nil, false),
		event.NewSimpleEvent("XYZ", time.Now(), 2, "fee", amount, nil, nil, false),
	}

	report := v.Run(events)
	assert.Equal(t, 1, report.InvalidCounts["SimpleEvent"])
	assert.Equal(t, "25.00", report.InvalidTotals["SimpleEvent"].Display())
}

func TestValidLengthRule(t *testing.T) {
	known := map[string]struct{}{"123": {}, "1234": {}, "123456": {}}
	v := New(known, nil, nil)
	assert.False(t, v.Valid("123"))
	assert.True(t, v.Valid("1234"))
	assert.True(t, v.Valid("123456"))
}

func TestExternalIDAlwaysValid(t *testing.T) {
	v := New(nil, map[string]struct{}{"BANK": {}}, nil)
	assert.True(t, v.Valid("BANK"))
}
