package repository

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"time"

	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
	"github.com/uptrace/bun/migrate"
)

//go:embed migrations
var migrationFiles embed.FS

const migrationsDir = "migrations"

// clientConfig is the persistence client configuration for an already
// opened database
type clientConfig struct {
	driver      string
	pingTimeout time.Duration
}

func (c clientConfig) GetDebug() bool                { return false }
func (c clientConfig) GetDriver() string             { return c.driver }
func (c clientConfig) GetServer() string             { return "" }
func (c clientConfig) GetDSN() string                { return "" }
func (c clientConfig) GetPingTimeout() time.Duration { return c.pingTimeout }
func (c clientConfig) GetOtelIdentifier() string     { return "" }

func driverName(db *bun.DB) string {
	if db.Dialect().Name() == dialect.PG {
		return string(DialectPostgres)
	}
	return string(DialectSQLite)
}

// NewClient wraps db in a persistence client with the per dialect
// migration sets registered and checked for parity
func NewClient(ctx context.Context, db *bun.DB) (*persistence.Client, error) {
	client, err := persistence.New(clientConfig{
		driver:      driverName(db),
		pingTimeout: 5 * time.Second,
	}, db.DB, db.Dialect())
	if err != nil {
		return nil, fmt.Errorf("persistence client: %w", err)
	}

	sub, err := fs.Sub(migrationFiles, migrationsDir)
	if err != nil {
		return nil, fmt.Errorf("migrations: %w", err)
	}

	client.RegisterDialectMigrations(
		sub,
		persistence.WithDialectSourceLabel(migrationsDir),
		persistence.WithValidationTargets(string(DialectPostgres), string(DialectSQLite)),
	)

	if err := client.ValidateDialects(ctx); err != nil {
		return nil, fmt.Errorf("validate migrations: %w", err)
	}

	return client, nil
}

// Migrate applies every pending migration and returns the applied group
func Migrate(ctx context.Context, db *bun.DB) (*migrate.MigrationGroup, error) {
	client, err := NewClient(ctx, db)
	if err != nil {
		return nil, err
	}

	if err := client.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	if report := client.Report(); report != nil {
		return report, nil
	}
	return &migrate.MigrationGroup{}, nil
}

// Migrations returns the SQL migration set for the database dialect
func Migrations(db *bun.DB) (*migrate.Migrations, error) {
	dir := migrationsDir + "/" + driverName(db)

	sub, err := fs.Sub(migrationFiles, dir)
	if err != nil {
		return nil, fmt.Errorf("migrations %s: %w", dir, err)
	}

	migrations := migrate.NewMigrations()
	if err := migrations.Discover(sub); err != nil {
		return nil, fmt.Errorf("discover migrations: %w", err)
	}

	return migrations, nil
}

// Rollback reverts the last applied migration group
func Rollback(ctx context.Context, db *bun.DB) (*migrate.MigrationGroup, error) {
	migrations, err := Migrations(db)
	if err != nil {
		return nil, err
	}

	migrator := migrate.NewMigrator(db, migrations)
	if err := migrator.Init(ctx); err != nil {
		return nil, fmt.Errorf("init migrations: %w", err)
	}

	if err := migrator.Lock(ctx); err != nil {
		return nil, fmt.Errorf("lock migrations: %w", err)
	}
	defer migrator.Unlock(ctx) //nolint:errcheck

	group, err := migrator.Rollback(ctx)
	if err != nil {
		return group, fmt.Errorf("rollback migrations: %w", err)
	}

	return group, nil
}
