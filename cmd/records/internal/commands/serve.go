package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-router"

	"github.com/goliatone/go-records/account"
	"github.com/goliatone/go-records/auth"
	"github.com/goliatone/go-records/controller"
	"github.com/goliatone/go-records/logging"
	"github.com/goliatone/go-records/middleware/jwtware"
	"github.com/goliatone/go-records/records"
	"github.com/goliatone/go-records/repository"
)

type ServeCmd struct {
	Listen string `help:"Override the listen address (host:port)." default:""`
}

func (s *ServeCmd) Run(ctx context.Context, globals *Globals) error {
	cfg, log, err := setup(globals)
	if err != nil {
		return err
	}

	log.Info().Str("version", globals.Version).Bool("debug", cfg.Debug || globals.Debug).Msg("starting server")

	policy, err := cfg.Policy()
	if err != nil {
		return err
	}

	db, err := openDB(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.AutoMigrate {
		group, err := repository.Migrate(ctx, db)
		if err != nil {
			return err
		}
		if !group.IsZero() {
			log.Info().Str("group", group.String()).Msg("migrated")
		}
	}

	mngr := repository.NewManager(db)
	mngr.MustValidate()

	authenticator := auth.NewAuthenticator(mngr.Users(), auth.NewPasswordHasher(), policy).
		WithLogger(logging.Named(log, "auth"))

	accounts := account.NewService(mngr.Users(), authenticator).
		WithPhoneRegion(cfg.PhoneRegion).
		WithTransactions(account.ManagerTx(mngr)).
		WithLogger(logging.Named(log, "account"))

	recs := records.NewService(mngr.Records()).
		WithLogger(logging.Named(log, "records"))

	extractor := auth.NewIdentityExtractor(policy).
		WithLogger(logging.Named(log, "auth:extractor"))

	ctrl := controller.NewController(accounts, recs, mngr,
		controller.WithLogger(logging.Named(log, "http")),
	)

	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			UnescapePath:          true,
			StrictRouting:         false,
			DisableStartupMessage: !(cfg.Debug || globals.Debug),
		}))
	})

	r := srv.Router()
	r.Use(logging.RequestLogger(log))

	controller.RegisterRoutes(r, ctrl, jwtware.New(jwtware.Config{
		Extractor: extractor,
		Logger:    logging.Named(log, "auth:jwt"),
	}))

	addr := cfg.ListenAddr()
	if s.Listen != "" {
		addr = s.Listen
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("listening")
		if err := srv.Serve(addr); err != nil {
			errCh <- err
		}
	}()

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	select {
	case err := <-errCh:
		return err
	case <-sigCtx.Done():
	}

	log.Info().Dur("timeout", cfg.ShutdownTimeout).Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
