package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func baseConfig() RunConfig {
	return RunConfig{
		EventFiles:  []string{"events.csv"},
		OutDir:      "out",
		InvoiceDate: "2024-12-31",
	}
}

func TestValidateAcceptsPercentDTemplate(t *testing.T) {
	cfg := baseConfig()
	cfg.RowCSVNameTemplate = "rows_%d.csv"
	assert.NoError(t, cfg.validate())
}

func TestValidateAcceptsPercentSTemplate(t *testing.T) {
	cfg := baseConfig()
	cfg.RowCSVNameTemplate = "rows_%s.csv"
	assert.NoError(t, cfg.validate())
}

func TestValidateRejectsTemplateWithNoVerb(t *testing.T) {
	cfg := baseConfig()
	cfg.RowCSVNameTemplate = "rows.csv"
	assert.ErrorIs(t, cfg.validate(), ErrInvalidRowTemplate)
}

func TestValidateRejectsTemplateWithTwoVerbs(t *testing.T) {
	cfg := baseConfig()
	cfg.RowCSVNameTemplate = "rows_%s_%s.csv"
	assert.True(t, errors.Is(cfg.validate(), ErrInvalidRowTemplate))
}

func TestValidateRejectsLiteralPercentWithNoVerb(t *testing.T) {
	cfg := baseConfig()
	cfg.RowCSVNameTemplate = "rows_100%.csv"
	assert.ErrorIs(t, cfg.validate(), ErrInvalidRowTemplate)
}

func TestValidateRequiresOutDir(t *testing.T) {
	cfg := baseConfig()
	cfg.OutDir = ""
	assert.ErrorIs(t, cfg.validate(), ErrMissingRequiredKey)
}
