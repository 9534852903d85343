package db

import (
	"github.com/pkg/errors"

	"github.com/ariahome/aria/internal/profile"
	"github.com/ariahome/aria/store"
	"github.com/ariahome/aria/store/db/postgres"
	"github.com/ariahome/aria/store/db/sqlite"
)

// NewDBDriver creates a new db driver based on profile.
//
// PostgreSQL is the production driver with full support including semantic
// vector search (pgvector). SQLite is for development/testing; semantic
// documents are not persisted there and fall back to the in-memory vector
// store.
func NewDBDriver(profile *profile.Profile) (store.Driver, error) {
	var driver store.Driver
	var err error

	switch profile.Driver {
	case "sqlite":
		driver, err = sqlite.NewDB(profile)
	case "postgres":
		driver, err = postgres.NewDB(profile)
	default:
		return nil, errors.New("unknown db driver: only 'postgres' and 'sqlite' are supported")
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to create db driver")
	}
	return driver, nil
}
