// Package migrate applies the goose migrations of the sql storage driver.
// The migrations ship inside the binary; a directory on disk can stand in
// for them while a new migration is being written.
package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/pressly/goose/v3"
)

// DevDir is where new migrations are written during development.
const DevDir = "pkg/migrate/migrations"

//go:embed migrations/*.sql
var embedded embed.FS

// Source selects the migration files: the embedded set when Dir is empty.
type Source struct {
	Dir string
}

// FS returns the filesystem holding the migrations and the directory within it.
func (s Source) FS() (fs.FS, string) {
	if s.Dir == "" {
		return embedded, "migrations"
	}
	return os.DirFS(s.Dir), "."
}

func (s Source) String() string {
	if s.Dir == "" {
		return "embedded"
	}
	return s.Dir
}

// Dialect maps a db driver name onto the goose dialect.
func Dialect(driver string) string {
	if driver == "sqlite" {
		return "sqlite3"
	}
	return "postgres"
}

func prepare(db *sql.DB, driver string, src Source) (string, error) {
	if db == nil {
		return "", fmt.Errorf("db is required")
	}
	if err := goose.SetDialect(Dialect(driver)); err != nil {
		return "", fmt.Errorf("set goose dialect: %w", err)
	}
	fsys, dir := src.FS()
	goose.SetBaseFS(fsys)
	return dir, nil
}

// Run executes a goose command (up, down, status, ...) against db.
func Run(ctx context.Context, db *sql.DB, driver string, src Source, command string, args ...string) error {
	dir, err := prepare(db, driver, src)
	if err != nil {
		return err
	}
	defer goose.SetBaseFS(nil)
	if err := goose.RunContext(ctx, command, db, dir, args...); err != nil {
		return fmt.Errorf("goose %s (%s): %w", command, src, err)
	}
	return nil
}

// Up applies every pending migration of src.
func Up(ctx context.Context, db *sql.DB, driver string, src Source) error {
	return Run(ctx, db, driver, src, "up")
}

// To moves the schema up or down to version.
func To(ctx context.Context, db *sql.DB, driver string, src Source, version string) error {
	target, err := strconv.ParseInt(version, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid version %q: %w", version, err)
	}
	dir, err := prepare(db, driver, src)
	if err != nil {
		return err
	}
	defer goose.SetBaseFS(nil)

	current, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	switch {
	case current < target:
		err = goose.UpToContext(ctx, db, dir, target)
	case current > target:
		err = goose.DownToContext(ctx, db, dir, target)
	}
	if err != nil {
		return fmt.Errorf("migrate %d -> %d: %w", current, target, err)
	}
	return nil
}
