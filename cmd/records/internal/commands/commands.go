package commands

import (
	"context"

	"github.com/goliatone/go-print"
	"github.com/rs/zerolog"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-records/config"
	"github.com/goliatone/go-records/logging"
	"github.com/goliatone/go-records/repository"
)

type Globals struct {
	Debug   bool
	Version string
}

// setup loads the environment and builds the logger every command uses
func setup(globals *Globals) (config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, logging.Setup(globals.Debug), err
	}

	log := logging.Setup(globals.Debug || cfg.Debug)
	log.Debug().Msg("configuration\n" + print.MaybePrettyJSON(cfg.Redacted()))

	return cfg, log, nil
}

func openDB(ctx context.Context, cfg config.Config, log zerolog.Logger) (*bun.DB, error) {
	db, err := repository.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("dialect", string(repository.DialectFromDSN(cfg.DatabaseURL))).
		Msg("database connected")

	return db, nil
}
