package logging

import (
	"io"
	"os"
	"time"

	"github.com/goliatone/go-router"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-records/auth"
)

// Setup builds the process logger. Debug switches to the console writer
// and lowers the level.
func Setup(debug bool) zerolog.Logger {
	return SetupWriter(os.Stderr, debug)
}

func SetupWriter(out io.Writer, debug bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	logger := zerolog.New(out).Level(level).With().Timestamp().Logger()

	if debug {
		logger = logger.Output(zerolog.ConsoleWriter{Out: out, FormatTimestamp: func(any) string {
			return time.Now().Format(time.RFC3339)
		}}).Level(level).With().Caller().Logger()
	}

	return logger
}

// Adapter exposes a zerolog logger through the key/value Logger interface
// used by the auth, account and records packages
type Adapter struct {
	logger zerolog.Logger
}

var _ auth.Logger = Adapter{}

func NewAdapter(logger zerolog.Logger) Adapter {
	return Adapter{logger: logger}
}

// Named returns an adapter tagging every entry with component=name
func Named(logger zerolog.Logger, name string) Adapter {
	return Adapter{logger: logger.With().Str("component", name).Logger()}
}

func (a Adapter) Debug(msg string, args ...any) {
	a.logger.Debug().Fields(pairs(args)).Msg(msg)
}

func (a Adapter) Info(msg string, args ...any) {
	a.logger.Info().Fields(pairs(args)).Msg(msg)
}

func (a Adapter) Warn(msg string, args ...any) {
	a.logger.Warn().Fields(pairs(args)).Msg(msg)
}

func (a Adapter) Error(msg string, args ...any) {
	a.logger.Error().Fields(pairs(args)).Msg(msg)
}

// pairs pads a dangling key so the list always has even length
func pairs(args []any) []any {
	if len(args)%2 == 0 {
		return args
	}
	return append(args[:len(args):len(args)], "(MISSING)")
}

// RequestLogger logs one line per request and puts the logger on the
// request context for zerolog.Ctx
func RequestLogger(logger zerolog.Logger) router.MiddlewareFunc {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			started := time.Now()

			reqLogger := logger.With().
				Str("method", ctx.Method()).
				Str("path", ctx.Path()).
				Logger()

			ctx.SetContext(reqLogger.WithContext(ctx.Context()))

			err := next(ctx)

			if err != nil {
				reqLogger.Error().
					Err(err).
					Dur("duration", time.Since(started)).
					Msg("http request")
				return err
			}

			reqLogger.Info().
				Dur("duration", time.Since(started)).
				Msg("http request")

			return nil
		}
	}
}
