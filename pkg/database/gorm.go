package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"notesync-be/internal/model"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

func getLogger(level logger.LogLevel) logger.Interface {
	return logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags), // io writer
		logger.Config{
			SlowThreshold:             time.Second, // Slow SQL threshold
			LogLevel:                  level,       // Log level
			IgnoreRecordNotFoundError: true,        // Ignore ErrRecordNotFound error for logger
			ParameterizedQueries:      true,        // Don't include params in the SQL log
			Colorful:                  true,
		},
	)
}

func configureConnectionPool(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	// SetMaxIdleConns sets the maximum number of connections in the idle connection pool.
	sqlDB.SetMaxIdleConns(10)

	// SetMaxOpenConns sets the maximum number of open connections to the database.
	sqlDB.SetMaxOpenConns(100)

	// SetConnMaxLifetime sets the maximum amount of time a connection may be reused.
	sqlDB.SetConnMaxLifetime(time.Hour)

	return nil
}

// NewGormDBFromDSN opens the object store database. isProd lowers gorm's
// log level to warnings.
func NewGormDBFromDSN(driver, dsn string, isProd bool) (*gorm.DB, error) {
	level := logger.Info
	if isProd {
		level = logger.Warn
	}

	switch driver {
	case "", DriverPostgres:
		db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
			Logger: getLogger(level),
		})
		if err != nil {
			return nil, err
		}
		if err := configureConnectionPool(db); err != nil {
			return nil, err
		}
		return db, nil

	case DriverSQLite:
		return NewSQLiteGormDB(dsn, getLogger(level))

	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// NewSQLiteGormDB opens a single-connection SQLite database. ":memory:" gives
// a private throwaway database, which is what the tests use.
func NewSQLiteGormDB(dsn string, log logger.Interface) (*gorm.DB, error) {
	if log == nil {
		log = logger.Default.LogMode(logger.Silent)
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: log,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// One connection keeps an in-memory database alive and serializes writers.
	sqlDB.SetMaxOpenConns(1)

	return db, nil
}

// AutoMigrate creates or updates the object store tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Note{},
		&model.TreeState{},
	)
}
