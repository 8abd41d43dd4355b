package services

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	pgxMigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	sqliteMigrate "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Migrations
//
//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type DatabaseServiceConfig struct {
	Driver       string
	DatabasePath string
	DatabaseURL  string
}

type DatabaseService struct {
	config   DatabaseServiceConfig
	database *gorm.DB
}

func NewDatabaseService(config DatabaseServiceConfig) *DatabaseService {
	if config.Driver == "" {
		config.Driver = DriverSQLite
	}

	return &DatabaseService{
		config: config,
	}
}

func (ds *DatabaseService) Init() error {
	var dialector gorm.Dialector

	switch ds.config.Driver {
	case DriverSQLite:
		dialector = sqlite.Open(ds.config.DatabasePath)
	case DriverPostgres:
		dialector = postgres.Open(ds.config.DatabaseURL)
	default:
		return fmt.Errorf("unsupported database driver %q", ds.config.Driver)
	}

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})

	if err != nil {
		return err
	}

	sqlDB, err := gormDB.DB()

	if err != nil {
		return err
	}

	if ds.config.Driver == DriverSQLite {
		sqlDB.SetMaxOpenConns(1)
	}

	err = ds.migrateDatabase(sqlDB)

	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	ds.database = gormDB
	return nil
}

func (ds *DatabaseService) GetDatabase() *gorm.DB {
	return ds.database
}

func (ds *DatabaseService) Ping(ctx context.Context) error {
	if ds.database == nil {
		return errors.New("database not initialized")
	}

	sqlDB, err := ds.database.DB()

	if err != nil {
		return err
	}

	return sqlDB.PingContext(ctx)
}

func (ds *DatabaseService) Close() error {
	if ds.database == nil {
		return nil
	}

	sqlDB, err := ds.database.DB()

	if err != nil {
		return err
	}

	return sqlDB.Close()
}

func (ds *DatabaseService) migrateDatabase(sqlDB *sql.DB) error {
	data, err := iofs.New(migrationsFS, "migrations/"+ds.config.Driver)

	if err != nil {
		return err
	}

	var target database.Driver

	switch ds.config.Driver {
	case DriverPostgres:
		target, err = pgxMigrate.WithInstance(sqlDB, &pgxMigrate.Config{})
	default:
		target, err = sqliteMigrate.WithInstance(sqlDB, &sqliteMigrate.Config{})
	}

	if err != nil {
		return err
	}

	migrator, err := migrate.NewWithInstance("iofs", data, "signupvault", target)

	if err != nil {
		return err
	}

	return migrator.Up()
}
