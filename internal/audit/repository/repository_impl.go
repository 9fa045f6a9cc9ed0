package repository

import (
	"context"

	"github.com/smallbiznis/glidebill/internal/audit/domain"
	"github.com/smallbiznis/glidebill/pkg/db"
	"github.com/smallbiznis/glidebill/pkg/repository"
	"gorm.io/gorm"
)

type repo struct {
	store repository.Repository[domain.AuditRecord]
}

// Provide builds the audit repository on top of glidebill's generic
// gorm-backed store, the way the teacher's rating/invoice/usage
// repositories are all repository.ProvideStore[T] over their domain
// model rather than a hand-rolled DAO per package.
func Provide(db *gorm.DB) domain.Repository {
	return &repo{store: repository.ProvideStore[domain.AuditRecord](db)}
}

func (r *repo) Insert(ctx context.Context, record *domain.AuditRecord) error {
	if record == nil {
		return domain.ErrMissingRunID
	}
	if err := r.store.Create(ctx, record); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.ErrDuplicateRunID
		}
		return err
	}
	return nil
}
