// Package domain describes the single-run audit record glidebill writes
// once per batch pass, the way the teacher's audit domain describes its
// per-request AuditLog rows — narrowed from "one row per API call" down
// to "one row per run" since glidebill has no request loop to audit.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Status is the terminal state of a run, mirroring spec.md §7's exit
// code taxonomy (success, ConfigError, InputFormatError, and any other
// unhandled failure).
type Status string

const (
	StatusSuccess           Status = "success"
	StatusConfigError       Status = "config_error"
	StatusInputFormatError  Status = "input_format_error"
	StatusError             Status = "error"
)

// AuditRecord is one row per glidebill run: what was billed, against
// which inputs, and what the run produced.
type AuditRecord struct {
	ID                      snowflake.ID `gorm:"primaryKey"`
	RunID                   string       `gorm:"uniqueIndex;size:64"`
	ConfigPath              string
	Status                  Status `gorm:"size:32"`
	ErrorMessage            *string
	EventCount              int
	MatchedCount            int
	UnmatchedCount          int
	SkippedNoInvoicingCount int
	InvalidCount            int
	InvoiceCount            int
	TotalAmount             string `gorm:"size:32"`
	ContextChecksum         string `gorm:"size:64"`
	Metadata                datatypes.JSONMap
	StartedAt               time.Time
	FinishedAt              time.Time
}

func (AuditRecord) TableName() string { return "audit_runs" }

// Repository persists audit records.
type Repository interface {
	Insert(ctx context.Context, record *AuditRecord) error
}

// Service records one run's audit trail.
type Service interface {
	Record(ctx context.Context, record *AuditRecord) error
}

var ErrMissingRunID = errors.New("audit: run id is required")

// ErrDuplicateRunID means a record with this RunID was already inserted;
// run IDs are generated fresh per invocation, so this only happens on a
// botched retry of the same run.
var ErrDuplicateRunID = errors.New("audit: run id already recorded")
