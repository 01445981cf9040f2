package db

import (
	"embed"
	"io/fs"
	"os"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// DevMode switches MigrationsFS to read migration files from the source
// tree instead of the embedded copy, so schema edits do not need a rebuild.
// Enabled by the -dev flag.
var DevMode = false

// MigrationsFS returns the migrations filesystem: the embedded copy in
// production, the on-disk directory in dev mode (relative to the repo
// root).
func MigrationsFS() (fs.FS, error) {
	if DevMode {
		return os.DirFS("internal/db/migrations"), nil
	}
	return fs.Sub(embeddedMigrations, "migrations")
}
