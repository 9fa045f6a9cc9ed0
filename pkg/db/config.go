package db

import "path/filepath"

// Config selects the audit database file. glidebill's audit store is a
// single embedded SQLite file, not a shared server database, so unlike
// the teacher's db.Config this carries only a path.
type Config struct {
	Path string
}

// DefaultConfig points the audit database at a fixed filename inside dir;
// cmd/glidebill passes the .glidebill directory beside the config file,
// giving "<config dir>/.glidebill/audit.db".
func DefaultConfig(dir string) Config {
	return Config{Path: filepath.Join(dir, "audit.db")}
}
