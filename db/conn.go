// Package db opens the SQL database behind the metadata store and the
// accounts table
package db

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func inDocker() bool {
	_, err := os.Stat("/.dockerenv")
	return err == nil
}

// New opens the database named by database.driver and database.dsn.
// Tables are migrated by the packages that own them.
func New() (*gorm.DB, error) {
	dsn := viper.GetString("database.dsn")
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}

	switch viper.GetString("database.driver") {
	case "postgres":
		db, err := gorm.Open(postgres.Open(dsn), cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Postgres database, %w", err)
		}

		return db, nil
	default:
		// If running in a docker container don't allow the sqlite file to be created.
		// The host should instead mount it using volumes
		if inDocker() {
			if _, err := os.Stat(dsn); errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("SQLite database file not mounted, please use docker volumes to mount it to /app/%s", dsn)
			}
		}

		db, err := gorm.Open(sqlite.Open(dsn), cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite database, %w", err)
		}

		return db, nil
	}
}
