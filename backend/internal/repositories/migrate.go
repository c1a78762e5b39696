package repositories

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/gorm"
)

//go:embed migrations
var migrationsFS embed.FS

const migrationsTable = "schema_migrations"

type MigrationConfig struct {
	Driver     string
	DBName     string
	MaxRetries int
	RetryDelay time.Duration
}

func DefaultMigrationConfig() *MigrationConfig {
	return &MigrationConfig{
		Driver:     "postgres",
		DBName:     "todos",
		MaxRetries: 3,
		RetryDelay: 2 * time.Second,
	}
}

func newMigrator(sqlDB *sql.DB, config *MigrationConfig) (*migrate.Migrate, error) {
	var (
		driver database.Driver
		err    error
	)

	switch config.Driver {
	case "postgres", "":
		driver, err = postgres.WithInstance(sqlDB, &postgres.Config{
			DatabaseName:          config.DBName,
			MigrationsTable:       migrationsTable,
			MultiStatementEnabled: true,
			MultiStatementMaxSize: 10 * 1 << 20, // 10 MB
		})
	case "sqlite":
		driver, err = sqlite3.WithInstance(sqlDB, &sqlite3.Config{
			DatabaseName:    config.DBName,
			MigrationsTable: migrationsTable,
		})
	default:
		return nil, fmt.Errorf("no migrations for driver %q", config.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create migration driver: %w", err)
	}

	dir := "migrations/" + config.Driver
	if config.Driver == "" {
		dir = "migrations/postgres"
	}
	source, err := iofs.New(migrationsFS, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, config.DBName, driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration instance: %w", err)
	}
	return m, nil
}

// RunMigrations brings the schema up to the latest embedded version.
func RunMigrations(db *gorm.DB, config *MigrationConfig) error {
	if config == nil {
		config = DefaultMigrationConfig()
	}

	log.Printf("🔄 Starting %s database migrations", config.Driver)

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	if err := waitForDatabase(sqlDB, config.MaxRetries, config.RetryDelay); err != nil {
		return fmt.Errorf("database not ready: %w", err)
	}

	m, err := newMigrator(sqlDB, config)
	if err != nil {
		return err
	}

	currentVersion, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		log.Println("📋 No migrations applied yet")
	case err != nil:
		log.Printf("⚠️  Could not get current migration version: %v", err)
	default:
		log.Printf("📋 Current migration version: %d (dirty: %v)", currentVersion, dirty)
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Println("✅ Database schema is up to date - no migrations needed")
			return nil
		}
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	finalVersion, dirty, err := m.Version()
	if err != nil {
		return fmt.Errorf("failed to get final migration version: %w", err)
	}

	log.Printf("✅ Database migrations completed, version %d (dirty: %v)", finalVersion, dirty)

	if err := logMigrationDetails(sqlDB, config.Driver); err != nil {
		log.Printf("⚠️  Could not retrieve migration details: %v", err)
	}

	return nil
}

func waitForDatabase(db *sql.DB, maxRetries int, retryDelay time.Duration) error {
	if maxRetries < 1 {
		maxRetries = 1
	}
	var err error
	for i := 0; i < maxRetries; i++ {
		if err = db.Ping(); err == nil {
			return nil
		}
		if i < maxRetries-1 {
			log.Printf("⏳ Database not ready, retrying in %v... (attempt %d/%d)", retryDelay, i+1, maxRetries)
			time.Sleep(retryDelay)
		}
	}
	return fmt.Errorf("database not ready after %d attempts: %w", maxRetries, err)
}

func logMigrationDetails(db *sql.DB, driver string) error {
	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public'
		AND table_type = 'BASE TABLE'
		ORDER BY table_name`
	if driver == "sqlite" {
		query = `
			SELECT name FROM sqlite_master
			WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
			ORDER BY name`
	}

	rows, err := db.Query(query)
	if err != nil {
		return err
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			continue
		}
		tables = append(tables, tableName)
	}

	log.Printf("📊 Database tables (%d): %v", len(tables), tables)

	return rows.Err()
}

// RollbackMigration reverts the most recently applied migration.
func RollbackMigration(db *gorm.DB, config *MigrationConfig) error {
	if config == nil {
		config = DefaultMigrationConfig()
	}

	log.Println("⬇️  Rolling back last migration...")

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	m, err := newMigrator(sqlDB, config)
	if err != nil {
		return err
	}

	if err := m.Steps(-1); err != nil {
		return fmt.Errorf("failed to rollback migration: %w", err)
	}

	log.Println("✅ Migration rolled back successfully")
	return nil
}

// GetMigrationVersion returns version 0 when nothing has been applied.
func GetMigrationVersion(db *gorm.DB, config *MigrationConfig) (uint, bool, error) {
	if config == nil {
		config = DefaultMigrationConfig()
	}

	sqlDB, err := db.DB()
	if err != nil {
		return 0, false, fmt.Errorf("failed to get database instance: %w", err)
	}

	m, err := newMigrator(sqlDB, config)
	if err != nil {
		return 0, false, err
	}

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}

	return version, dirty, nil
}
