package iostore

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/sundog-labs/pvdrift/internal/contract"
	"github.com/sundog-labs/pvdrift/schema"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MigrateArchive moves the archive schema to targetVersion. Negative means
// latest, zero rolls every migration back, positive pins an exact version.
func MigrateArchive(backend schema.StoreBackend, connStr string, targetVersion int) error {
	if backend == schema.NoneBackend {
		return errors.New("migrations are not supported for NoneBackend")
	}

	db, err := openArchiveDB(backend, connStr)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	m, err := newMigrator(db, backend)
	if err != nil {
		return err
	}

	current, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to read migration version: %w", err)
	}
	if dirty {
		return fmt.Errorf("archive schema is dirty at version %d, fix or force it before migrating", current)
	}

	return applyMigration(m, current, targetVersion)
}

// openArchiveDB connects to the backing database without creating a store.
// An empty SQLite connection string falls back to the default archive file.
func openArchiveDB(backend schema.StoreBackend, connStr string) (*sql.DB, error) {
	var driverName, dsn string
	switch backend {
	case schema.SQLiteBackend:
		driverName = "sqlite"
		dsn = connStr
		if dsn == "" {
			dsn = contract.GetArchiveDBFilePath()
		}
	case schema.MySQLBackend:
		driverName, dsn = "mysql", connStr
	case schema.PostgreSQLBackend:
		driverName, dsn = "pgx", connStr
	default:
		return nil, fmt.Errorf("unsupported backend: %s", backend)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", backend, err)
	}
	return db, nil
}

// newMigrator binds the embedded migration scripts to the open connection.
func newMigrator(db *sql.DB, backend schema.StoreBackend) (*migrate.Migrate, error) {
	var driver database.Driver
	var err error
	switch backend {
	case schema.SQLiteBackend:
		driver, err = sqlite.WithInstance(db, &sqlite.Config{})
	case schema.MySQLBackend:
		driver, err = mysql.WithInstance(db, &mysql.Config{})
	case schema.PostgreSQLBackend:
		driver, err = postgres.WithInstance(db, &postgres.Config{})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to prepare %s migrate driver: %w", backend, err)
	}

	scripts, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to access embedded migrations: %w", err)
	}
	source, err := iofs.New(scripts, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to create migration source: %w", err)
	}
	return migrate.NewWithInstance("iofs", source, "pvdrift", driver)
}

// applyMigration runs the requested movement and reports what happened.
func applyMigration(m *migrate.Migrate, current uint, target int) error {
	var err error
	switch {
	case target < 0:
		err = m.Up()
	case target == 0:
		err = m.Down()
	default:
		err = m.Migrate(uint(target))
	}
	if err == migrate.ErrNoChange {
		fmt.Printf("Archive schema already in place, nothing to migrate from version %d\n", current)
		return nil
	}
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	if target == 0 {
		fmt.Printf("Rolled the archive schema back from version %d to empty\n", current)
		return nil
	}
	landed, _, _ := m.Version()
	fmt.Printf("Migrated the archive schema from version %d to %d\n", current, landed)
	return nil
}
