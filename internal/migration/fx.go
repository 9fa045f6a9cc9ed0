package migration

import (
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// Module runs the audit-schema migrations against the audit database
// handle on startup, the way the teacher's migrations module runs its
// billing schema migrations before seeding. glidebill has no
// organization/admin seeding step to run afterward.
var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB) error {
		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return Run(sqlDB)
	}),
)
