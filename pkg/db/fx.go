package db

import (
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// Module wires the audit database handle for fx, the way the teacher's
// db.Module wires its gorm.DB from a db.Config.
var Module = fx.Module("db",
	fx.Provide(func(cfg Config) (*gorm.DB, error) {
		dialector, err := Dialect(cfg)
		if err != nil {
			return nil, err
		}
		return gorm.Open(dialector, &gorm.Config{})
	}),
)
