package gormrepo

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to postgres when a DSN is configured and falls back to an
// embedded sqlite file otherwise. An empty sqlite path yields a shared
// in-memory database, which is what the tests use.
func Open(dsn, sqlitePath string, log zerolog.Logger) (*gorm.DB, error) {
	if dsn != "" {
		db, err := gorm.Open(postgres.New(postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: true,
		}), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if err == nil {
			log.Info().Msg("connected to postgres")
			return db, nil
		}
		log.Warn().Err(err).Msg("postgres unavailable, falling back to sqlite")
	}

	path := sqlitePath
	if path == "" {
		path = "file::memory:?cache=shared"
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	log.Info().Str("path", path).Msg("using sqlite")
	return db, nil
}

// Migrate creates or updates the schema for every persisted aggregate.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&playerModel{},
		&vehicleModel{},
		&locationModel{},
		&missionModel{},
		&marketEntryModel{},
		&combatRecordModel{},
	)
}
