package controller

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/goliatone/go-router"

	"github.com/goliatone/go-records/account"
	"github.com/goliatone/go-records/auth"
	"github.com/goliatone/go-records/middleware/jwtware"
	"github.com/goliatone/go-records/records"
	"github.com/goliatone/go-records/repository"
)

// AccountService is the account API the controller serves
type AccountService interface {
	Register(ctx context.Context, input account.SignupInput) (*repository.User, error)
	Login(ctx context.Context, input account.LoginInput) (auth.Session, error)
	Profile(ctx context.Context, identity auth.Identity) (*repository.User, error)
	UpdateProfile(ctx context.Context, identity auth.Identity, input account.ProfileInput) (*repository.User, error)
	ChangePassword(ctx context.Context, identity auth.Identity, input account.PasswordChangeInput) error
}

// RecordService is the owner scoped record API the controller serves
type RecordService interface {
	List(ctx context.Context, identity auth.Identity, opts repository.ListOptions) (records.Page, error)
	Get(ctx context.Context, identity auth.Identity, recordID string) (*repository.Record, error)
	Create(ctx context.Context, identity auth.Identity, input records.RecordInput) (*repository.Record, error)
	Update(ctx context.Context, identity auth.Identity, recordID string, patch records.RecordPatch) (*repository.Record, error)
	Delete(ctx context.Context, identity auth.Identity, recordID string) error
}

// Pinger checks the database round trip
type Pinger interface {
	Ping(ctx context.Context) (time.Time, error)
}

type MessageResponse struct {
	Message string `json:"message"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

type PingResponse struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type SignupResponse struct {
	ID      int64  `json:"id"`
	Message string `json:"message"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	Message   string    `json:"message"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Controller struct {
	Accounts    AccountService
	Records     RecordService
	DB          Pinger
	Logger      auth.Logger
	IdentityKey string
}

type ControllerOption func(*Controller) *Controller

func WithLogger(logger auth.Logger) ControllerOption {
	return func(c *Controller) *Controller {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func WithIdentityKey(key string) ControllerOption {
	return func(c *Controller) *Controller {
		if key != "" {
			c.IdentityKey = key
		}
		return c
	}
}

func NewController(accounts AccountService, recs RecordService, db Pinger, opts ...ControllerOption) *Controller {
	c := &Controller{
		Accounts:    accounts,
		Records:     recs,
		DB:          db,
		Logger:      auth.DefaultLogger(),
		IdentityKey: jwtware.DefaultContextKey,
	}

	for _, opt := range opts {
		if opt != nil {
			c = opt(c)
		}
	}

	return c
}

func (c *Controller) Health(ctx router.Context) error {
	return ctx.JSON(http.StatusOK, HealthResponse{Status: "Healthy"})
}

func (c *Controller) Ping(ctx router.Context) error {
	ts, err := c.DB.Ping(ctx.Context())
	if err != nil {
		c.Logger.Error("database ping failed", "error", err)
		return ctx.JSON(http.StatusInternalServerError, MessageResponse{Message: "Database error"})
	}
	return ctx.JSON(http.StatusOK, PingResponse{Message: "Pong", Timestamp: ts})
}

func (c *Controller) Signup(ctx router.Context) error {
	payload := &account.SignupInput{}
	if err := ctx.Bind(payload); err != nil {
		return ctx.JSON(http.StatusBadRequest, MessageResponse{Message: "Invalid request body"})
	}

	user, err := c.Accounts.Register(ctx.Context(), *payload)
	if err != nil {
		return c.ErrorResponse(ctx, err)
	}

	return ctx.JSON(http.StatusCreated, SignupResponse{ID: user.ID, Message: "User created"})
}

func (c *Controller) Login(ctx router.Context) error {
	payload := &account.LoginInput{}
	if err := ctx.Bind(payload); err != nil {
		return ctx.JSON(http.StatusBadRequest, MessageResponse{Message: "Invalid request body"})
	}

	session, err := c.Accounts.Login(ctx.Context(), *payload)
	if err != nil {
		return c.ErrorResponse(ctx, err)
	}

	return ctx.JSON(http.StatusOK, LoginResponse{
		Token:     session.Token,
		Message:   "User logged in",
		ExpiresAt: session.ExpiresAt,
	})
}

func (c *Controller) ProfileShow(ctx router.Context) error {
	identity, err := c.identity(ctx)
	if err != nil {
		return c.ErrorResponse(ctx, err)
	}

	user, err := c.Accounts.Profile(ctx.Context(), identity)
	if err != nil {
		return c.ErrorResponse(ctx, err)
	}
	return ctx.JSON(http.StatusOK, user)
}

func (c *Controller) ProfileUpdate(ctx router.Context) error {
	identity, err := c.identity(ctx)
	if err != nil {
		return c.ErrorResponse(ctx, err)
	}

	payload := &account.ProfileInput{}
	if err := ctx.Bind(payload); err != nil {
		return ctx.JSON(http.StatusBadRequest, MessageResponse{Message: "Invalid request body"})
	}

	user, err := c.Accounts.UpdateProfile(ctx.Context(), identity, *payload)
	if err != nil {
		return c.ErrorResponse(ctx, err)
	}
	return ctx.JSON(http.StatusOK, user)
}

func (c *Controller) PasswordUpdate(ctx router.Context) error {
	identity, err := c.identity(ctx)
	if err != nil {
		return c.ErrorResponse(ctx, err)
	}

	payload := &account.PasswordChangeInput{}
	if err := ctx.Bind(payload); err != nil {
		return ctx.JSON(http.StatusBadRequest, MessageResponse{Message: "Invalid request body"})
	}

	if err := c.Accounts.ChangePassword(ctx.Context(), identity, *payload); err != nil {
		return c.ErrorResponse(ctx, err)
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Message: "Password updated"})
}

func (c *Controller) RecordsIndex(ctx router.Context) error {
	identity, err := c.identity(ctx)
	if err != nil {
		return c.ErrorResponse(ctx, err)
	}

	page, err := c.Records.List(ctx.Context(), identity, listOptions(ctx))
	if err != nil {
		return c.ErrorResponse(ctx, err)
	}
	return ctx.JSON(http.StatusOK, page)
}

func (c *Controller) RecordsShow(ctx router.Context) error {
	identity, err := c.identity(ctx)
	if err != nil {
		return c.ErrorResponse(ctx, err)
	}

	rec, err := c.Records.Get(ctx.Context(), identity, ctx.Param("id"))
	if err != nil {
		return c.ErrorResponse(ctx, err)
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (c *Controller) RecordsCreate(ctx router.Context) error {
	identity, err := c.identity(ctx)
	if err != nil {
		return c.ErrorResponse(ctx, err)
	}

	payload := &records.RecordInput{}
	if err := ctx.Bind(payload); err != nil {
		return ctx.JSON(http.StatusBadRequest, MessageResponse{Message: "Invalid request body"})
	}

	rec, err := c.Records.Create(ctx.Context(), identity, *payload)
	if err != nil {
		return c.ErrorResponse(ctx, err)
	}
	return ctx.JSON(http.StatusCreated, rec)
}

func (c *Controller) RecordsUpdate(ctx router.Context) error {
	identity, err := c.identity(ctx)
	if err != nil {
		return c.ErrorResponse(ctx, err)
	}

	payload := &records.RecordPatch{}
	if err := ctx.Bind(payload); err != nil {
		return ctx.JSON(http.StatusBadRequest, MessageResponse{Message: "Invalid request body"})
	}

	rec, err := c.Records.Update(ctx.Context(), identity, ctx.Param("id"), *payload)
	if err != nil {
		return c.ErrorResponse(ctx, err)
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (c *Controller) RecordsDelete(ctx router.Context) error {
	identity, err := c.identity(ctx)
	if err != nil {
		return c.ErrorResponse(ctx, err)
	}

	if err := c.Records.Delete(ctx.Context(), identity, ctx.Param("id")); err != nil {
		return c.ErrorResponse(ctx, err)
	}
	return ctx.Status(http.StatusNoContent).SendString("")
}

// identity is set by the jwt middleware, a handler reached without one
// was mounted outside the protected group
func (c *Controller) identity(ctx router.Context) (auth.Identity, error) {
	identity, ok := jwtware.IdentityFromRouter(ctx, c.IdentityKey)
	if !ok {
		return auth.Identity{}, auth.ErrUnauthorized
	}
	return identity, nil
}

func listOptions(ctx router.Context) repository.ListOptions {
	opts := repository.ListOptions{}

	if v, err := strconv.Atoi(ctx.Query("limit")); err == nil {
		opts.Limit = v
	}
	if v, err := strconv.Atoi(ctx.Query("offset")); err == nil {
		opts.Offset = v
	}
	if v, err := strconv.ParseBool(ctx.Query("done")); err == nil {
		opts.Done = &v
	}

	return opts
}
