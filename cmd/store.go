package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/localvantage/gridscan/internal/config"
	"github.com/localvantage/gridscan/internal/store"
)

// initStore opens the configured backend and runs migrations.
func initStore(ctx context.Context, cfg config.StoreConfig) (store.Store, error) {
	var (
		st  store.Store
		err error
	)

	switch cfg.Driver {
	case "postgres":
		st, err = store.NewPostgres(ctx, cfg.DatabaseURL)
	case "sqlite", "":
		st, err = store.NewSQLite(cfg.SQLitePath)
	default:
		return nil, eris.Errorf("cmd: unknown store driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, err
	}

	return st, nil
}
