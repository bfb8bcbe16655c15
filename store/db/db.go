// Package db selects the concrete store driver for a profile.
package db

import (
	"github.com/pkg/errors"

	"github.com/arozco/mesero/internal/profile"
	"github.com/arozco/mesero/store"
	"github.com/arozco/mesero/store/db/postgres"
	"github.com/arozco/mesero/store/db/sqlite"
)

// NewDriver creates a database driver based on the profile's driver setting.
func NewDriver(profile *profile.Profile) (store.Driver, error) {
	switch profile.Driver {
	case "sqlite":
		return sqlite.NewDB(profile)
	case "postgres":
		return postgres.NewDB(profile)
	default:
		return nil, errors.Errorf("unsupported driver %q", profile.Driver)
	}
}
