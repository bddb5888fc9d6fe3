package docstore

import (
	"context"
	"fmt"

	"github.com/weblithic/site/internal/apperr"
)

// Drivers accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Open returns the store for driver. dsn is a file path for sqlite and a
// connection string for postgres.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case DriverSQLite, "":
		return OpenSQLite(dsn)
	case DriverPostgres:
		return OpenPostgres(ctx, dsn)
	default:
		return nil, fmt.Errorf("docstore: unknown driver %q: %w", driver, apperr.ErrInvalid)
	}
}

var (
	_ Store = (*SQLite)(nil)
	_ Store = (*Postgres)(nil)
)
