package jwtware

import (
	"context"

	"github.com/goliatone/go-records/auth"
	"github.com/goliatone/go-router"
)

// DefaultContextKey is the Locals key the identity is stored under
const DefaultContextKey = "identity"

// UnauthorizedResponse is the body sent for every rejected request
type UnauthorizedResponse struct {
	Message string `json:"message"`
}

// ValidationListener is invoked after a request identity has been established
// and before the protected handler runs.
type ValidationListener func(ctx router.Context, identity auth.Identity) error

type Config struct {
	// Filter skips the middleware when it returns true
	Filter         func(router.Context) bool
	SuccessHandler router.HandlerFunc
	ErrorHandler   router.ErrorHandler
	// ContextKey is the Locals key, defaults to "identity"
	ContextKey string

	// Extractor validates the Authorization header. When nil one is built
	// from Policy.
	Extractor *auth.IdentityExtractor
	Policy    auth.Policy
	Logger    auth.Logger

	// ContextEnricher propagates the identity to the standard Go context.
	// Defaults to auth.WithIdentity.
	ContextEnricher func(c context.Context, identity auth.Identity) context.Context

	ValidationListeners []ValidationListener
}

// New creates a middleware that only lets requests with a valid session
// token through. Rejected requests never reach the wrapped handler.
func New(config ...Config) router.MiddlewareFunc {
	cfg := GetDefaultConfig(config...)
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			if cfg.Filter != nil && cfg.Filter(ctx) {
				return next(ctx)
			}

			identity, err := cfg.Extractor.FromAuthorization(ctx.Header(router.HeaderAuthorization))
			if err != nil {
				return cfg.ErrorHandler(ctx, err)
			}

			if err := cfg.runValidationListeners(ctx, identity); err != nil {
				cfg.Logger.Debug("identity listener rejected request", "user_id", identity.UserID, "error", err)
				return cfg.ErrorHandler(ctx, auth.ErrUnauthorized)
			}

			ctx.Locals(cfg.ContextKey, identity)

			if cfg.ContextEnricher != nil {
				ctx.SetContext(cfg.ContextEnricher(ctx.Context(), identity))
			}

			if cfg.SuccessHandler != nil {
				return cfg.SuccessHandler(ctx)
			}
			return next(ctx)
		}
	}
}

// GetDefaultConfig fills in defaults and panics when neither an
// extractor nor a policy was provided.
func GetDefaultConfig(config ...Config) (cfg Config) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = DefaultErrorHandler
	}

	if cfg.Logger == nil {
		cfg.Logger = auth.DefaultLogger()
	}

	if cfg.Extractor == nil {
		if cfg.Policy.IsZero() {
			panic("AUTH: JWT middleware configuration: Extractor or Policy is required.")
		}
		cfg.Extractor = auth.NewIdentityExtractor(cfg.Policy).WithLogger(cfg.Logger)
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = DefaultContextKey
	}

	if cfg.ContextEnricher == nil {
		cfg.ContextEnricher = auth.WithIdentity
	}

	return cfg
}

// DefaultErrorHandler answers 401 with a fixed body whatever the cause
func DefaultErrorHandler(c router.Context, _ error) error {
	return c.JSON(router.StatusUnauthorized, UnauthorizedResponse{Message: "Unauthorized"})
}

// IdentityFromRouter reads the identity stored by the middleware
func IdentityFromRouter(ctx router.Context, key ...string) (auth.Identity, bool) {
	k := DefaultContextKey
	if len(key) > 0 && key[0] != "" {
		k = key[0]
	}

	if identity, ok := ctx.Locals(k).(auth.Identity); ok && !identity.IsZero() {
		return identity, true
	}

	return auth.IdentityFromContext(ctx.Context())
}

func (cfg *Config) runValidationListeners(ctx router.Context, identity auth.Identity) error {
	for _, listener := range cfg.ValidationListeners {
		if listener == nil {
			continue
		}
		if err := listener(ctx, identity); err != nil {
			return err
		}
	}
	return nil
}
