package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/glidebill/internal/audit/domain"
	"github.com/smallbiznis/glidebill/internal/audit/masking"
	"github.com/smallbiznis/glidebill/internal/clock"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type Params struct {
	fx.In

	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  auditdomain.Repository
	Clock clock.Clock `optional:"true"`
}

type Service struct {
	log   *zap.Logger
	genID *snowflake.Node
	repo  auditdomain.Repository
	clock clock.Clock
}

func NewService(p Params) auditdomain.Service {
	c := p.Clock
	if c == nil {
		c = clock.NewRealClock()
	}
	return &Service{
		log:   p.Log.Named("audit.service"),
		genID: p.GenID,
		repo:  p.Repo,
		clock: c,
	}
}

// Record stamps an ID and masks sensitive metadata (account IDs, file
// paths) before persisting one run's audit row, the way the teacher's
// AuditLog call stamps an ID and redacts metadata before insert.
func (s *Service) Record(ctx context.Context, record *auditdomain.AuditRecord) error {
	if record == nil {
		return auditdomain.ErrMissingRunID
	}
	if record.RunID == "" {
		return auditdomain.ErrMissingRunID
	}

	record.ID = s.genID.Generate()
	if record.FinishedAt.IsZero() {
		record.FinishedAt = s.clock.Now()
	}
	record.Metadata = datatypes.JSONMap(masking.MaskJSON(record.Metadata))

	if err := s.repo.Insert(ctx, record); err != nil {
		s.log.Warn("failed to write audit record",
			zap.String("run_id", record.RunID),
			zap.String("status", string(record.Status)),
			zap.Error(err),
		)
		return err
	}
	return nil
}
