package database

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
)

// MigrationResult holds the schema version before and after Migrate. Zero means no migration
// has been applied.
type MigrationResult struct {
	From uint
	To   uint
}

// Changed reports whether Migrate applied anything.
func (r MigrationResult) Changed() bool {
	return r.From != r.To
}

// Migrate applies the pending up migrations of dir in migrations and closes db afterwards.
// The connection must allow multi statements, which DSN does.
func Migrate(db *sqlx.DB, migrations fs.FS, dir string) (MigrationResult, error) {
	source, err := iofs.New(migrations, dir)
	if err != nil {
		return MigrationResult{}, fmt.Errorf("iofs.New(%s) > %w", dir, err)
	}
	driver, err := mysql.WithInstance(db.DB, &mysql.Config{})
	if err != nil {
		return MigrationResult{}, fmt.Errorf("mysql.WithInstance() > %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, driverName, driver)
	if err != nil {
		return MigrationResult{}, fmt.Errorf("migrate.NewWithInstance() > %w", err)
	}
	defer func() {
		_, _ = m.Close()
	}()
	m.Log = migrationLogger{}

	from, err := version(m)
	if err != nil {
		return MigrationResult{}, err
	}
	result := MigrationResult{From: from, To: from}
	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return result, nil
		}
		return result, fmt.Errorf("m.Up() > %w", err)
	}

	result.To, err = version(m)
	return result, err
}

func version(m *migrate.Migrate) (uint, error) {
	v, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("m.Version() > %w", err)
	}
	if dirty {
		return v, fmt.Errorf("schema version %d is dirty, fix it by hand and force the version", v)
	}
	return v, nil
}

// migrationLogger forwards migrate's progress to slog.
type migrationLogger struct{}

var _ migrate.Logger = migrationLogger{}

func (migrationLogger) Printf(format string, v ...any) {
	slog.Default().Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (migrationLogger) Verbose() bool {
	return false
}
