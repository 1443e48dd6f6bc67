package commands

import (
	"database/sql"

	"github.com/walkwithdeath/SMWApprovedRevsDataSync/config"
	"github.com/walkwithdeath/SMWApprovedRevsDataSync/db"
	"github.com/walkwithdeath/SMWApprovedRevsDataSync/errors"
	"github.com/walkwithdeath/SMWApprovedRevsDataSync/logger"
)

// openDatabase opens and migrates the engine database. If dbPath is empty,
// the configured path is used.
func openDatabase(dbPath string) (*sql.DB, error) {
	if dbPath == "" {
		cfg, err := config.Load()
		if err != nil {
			return nil, errors.Wrap(err, "failed to load configuration")
		}
		dbPath = cfg.Database.Path
	}

	database, err := db.Open(dbPath, logger.Logger)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database at %s", dbPath)
	}

	if err := db.Migrate(database, logger.Logger); err != nil {
		database.Close()
		return nil, errors.Wrapf(err, "failed to run migrations on %s", dbPath)
	}

	return database, nil
}
