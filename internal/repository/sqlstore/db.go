package sqlstore

import (
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"invoiceqc/internal/config"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrations embed.FS

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// NewDB opens the configured database: PostgreSQL through pgx or a local
// SQLite file.
func NewDB(cfg *config.DBConfig) (*sqlx.DB, error) {
	switch cfg.Driver {
	case "postgres":
		db, err := sqlx.Connect("pgx", cfg.DSN())
		if err != nil {
			return nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		db.SetMaxOpenConns(cfg.MaxOpen)
		db.SetMaxIdleConns(cfg.MaxIdle)
		return db, nil
	case "sqlite", "":
		db, err := sqlx.Connect("sqlite", sqliteDSN(cfg.Path))
		if err != nil {
			return nil, fmt.Errorf("opening sqlite database %s: %w", cfg.Path, err)
		}
		// SQLite allows a single writer.
		db.SetMaxOpenConns(1)
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// NewMigrator returns a migrator over the embedded migrations for the
// configured driver. The caller must Close it.
func NewMigrator(cfg *config.DBConfig) (*migrate.Migrate, error) {
	dir := "migrations/sqlite"
	url := "sqlite://" + cfg.Path
	if cfg.Driver == "postgres" {
		dir = "migrations/postgres"
		url = cfg.DSN()
	}
	source, err := iofs.New(migrations, dir)
	if err != nil {
		return nil, fmt.Errorf("creating migration source: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", source, url)
	if err != nil {
		return nil, fmt.Errorf("creating migrator: %w", err)
	}
	return m, nil
}

// Migrate applies every pending migration.
func Migrate(cfg *config.DBConfig) error {
	m, err := NewMigrator(cfg)
	if err != nil {
		return err
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return nil
}

// Open opens the database and brings its schema up to date.
func Open(cfg *config.DBConfig) (*sqlx.DB, error) {
	if err := Migrate(cfg); err != nil {
		return nil, err
	}
	return NewDB(cfg)
}
