package db

import (
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

// Dialect opens glidebill's embedded, pure-Go audit database. Narrowed
// from the teacher's mysql/postgres/sqlite switch since glidebill never
// talks to a shared server database — the audit store is always a local
// SQLite file at cfg.Path.
func Dialect(cfg Config) (gorm.Dialector, error) {
	return sqlite.Open(cfg.Path), nil
}
