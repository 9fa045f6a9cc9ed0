// Package option supplies composable gorm query modifiers for
// pkg/repository's generic store, the functional-options shape the
// teacher's repository.Find/FindOne calls accept as variadic opts.
package option

import "gorm.io/gorm"

// QueryOption modifies a gorm query before it runs.
type QueryOption interface {
	Apply(db *gorm.DB) *gorm.DB
}

type optionFunc func(db *gorm.DB) *gorm.DB

func (f optionFunc) Apply(db *gorm.DB) *gorm.DB { return f(db) }

// OrderBy sorts results by the given column expression.
func OrderBy(expr string) QueryOption {
	return optionFunc(func(db *gorm.DB) *gorm.DB { return db.Order(expr) })
}

// Limit caps the number of rows returned.
func Limit(n int) QueryOption {
	return optionFunc(func(db *gorm.DB) *gorm.DB { return db.Limit(n) })
}
