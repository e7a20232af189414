package commands

import (
	"database/sql"

	"github.com/crosscast/crosscast/config"
	"github.com/crosscast/crosscast/db"
	"github.com/crosscast/crosscast/errors"
	"github.com/crosscast/crosscast/logger"
)

// loadConfig resolves configuration from an explicit file or the search path
func loadConfig(configPath string) (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromFile(configPath)
	}
	return config.Load()
}

// openDatabase opens the configured SQLite database and applies migrations
func openDatabase(cfg *config.Config, dbPath string) (*sql.DB, error) {
	path := cfg.Database.Path
	if dbPath != "" {
		path = dbPath
	}

	database, err := db.Open(path, logger.Logger)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database at %s", path)
	}

	if err := db.Migrate(database, logger.Logger); err != nil {
		database.Close()
		return nil, errors.Wrap(err, "failed to apply migrations")
	}

	return database, nil
}
