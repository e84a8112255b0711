// Package backend opens the store.Store selected by configuration.
package backend

import (
	"context"
	"fmt"

	"github.com/alphabot-ai/devconnect/internal/config"
	"github.com/alphabot-ai/devconnect/internal/store"
	"github.com/alphabot-ai/devconnect/internal/store/mongo"
	"github.com/alphabot-ai/devconnect/internal/store/postgres"
	"github.com/alphabot-ai/devconnect/internal/store/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

func Open(ctx context.Context, cfg config.Config) (store.Store, error) {
	switch cfg.DBDriver {
	case DriverSQLite, "":
		return sqlite.Open(cfg.DBDSN)
	case DriverPostgres:
		return postgres.Open(ctx, cfg.DBDSN)
	case DriverMongo:
		return mongo.Open(ctx, cfg.DBDSN, cfg.MongoDB)
	default:
		return nil, fmt.Errorf("unknown db driver %q", cfg.DBDriver)
	}
}
