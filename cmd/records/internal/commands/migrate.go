package commands

import (
	"context"

	"github.com/goliatone/go-records/repository"
)

type MigrateCmd struct {
	Rollback bool `help:"Roll back the last migration group instead of migrating."`
}

func (m *MigrateCmd) Run(ctx context.Context, globals *Globals) error {
	cfg, log, err := setup(globals)
	if err != nil {
		return err
	}

	db, err := openDB(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()

	if m.Rollback {
		group, err := repository.Rollback(ctx, db)
		if err != nil {
			return err
		}
		if group.IsZero() {
			log.Info().Msg("nothing to roll back")
			return nil
		}
		log.Info().Str("group", group.String()).Msg("rolled back")
		return nil
	}

	group, err := repository.Migrate(ctx, db)
	if err != nil {
		return err
	}
	if group.IsZero() {
		log.Info().Msg("database is up to date")
		return nil
	}
	log.Info().Str("group", group.String()).Msg("migrated")
	return nil
}
