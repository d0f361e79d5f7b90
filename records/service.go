package records

import (
	"context"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-records/auth"
	"github.com/goliatone/go-records/repository"
	gorepo "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

const TextCodeRecordNotFound = "RECORD_NOT_FOUND"

// ErrRecordNotFound is returned for missing records and for records that
// belong to someone else. The two cases are not told apart.
var ErrRecordNotFound = errors.New("Record not found", errors.CategoryNotFound).
	WithCode(errors.CodeNotFound).
	WithTextCode(TextCodeRecordNotFound)

// IsRecordNotFound reports whether err is ErrRecordNotFound
func IsRecordNotFound(err error) bool {
	var richErr *errors.Error
	if errors.As(err, &richErr) {
		return richErr.TextCode == TextCodeRecordNotFound
	}
	return false
}

// Store is the owner scoped persistence the service depends on
type Store interface {
	ListOwned(ctx context.Context, userID int64, opts repository.ListOptions) ([]*repository.Record, int, error)
	GetOwned(ctx context.Context, userID int64, id uuid.UUID) (*repository.Record, error)
	CreateOwned(ctx context.Context, userID int64, record *repository.Record) (*repository.Record, error)
	UpdateOwned(ctx context.Context, userID int64, record *repository.Record) (*repository.Record, error)
	DeleteOwned(ctx context.Context, userID int64, id uuid.UUID) error
}

// RecordInput creates a record. It has no owner field, the owner is
// always the caller identity.
type RecordInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Done        bool   `json:"done"`
}

func (r RecordInput) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.Length(1, 255)),
		validation.Field(&r.Description, validation.Length(0, 4096)),
	)
}

// RecordPatch updates a record, nil fields are left unchanged
type RecordPatch struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Done        *bool   `json:"done"`
}

func (r RecordPatch) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.NilOrNotEmpty, validation.Length(1, 255)),
		validation.Field(&r.Description, validation.Length(0, 4096)),
	)
}

// Page is a slice of records plus the owner's total
type Page struct {
	Records []*repository.Record `json:"records"`
	Total   int                  `json:"total"`
	Limit   int                  `json:"limit"`
	Offset  int                  `json:"offset"`
}

// Service is the resource authorization guard for records. Every method
// takes the caller identity and can only reach rows that identity owns.
type Service struct {
	store  Store
	logger auth.Logger
}

// NewService creates a service on top of store
func NewService(store Store) *Service {
	return &Service{
		store:  store,
		logger: auth.DefaultLogger(),
	}
}

// WithLogger sets the logger
func (s *Service) WithLogger(logger auth.Logger) *Service {
	if logger != nil {
		s.logger = logger
	}
	return s
}

func (s *Service) List(ctx context.Context, identity auth.Identity, opts repository.ListOptions) (Page, error) {
	if identity.IsZero() {
		return Page{}, auth.ErrUnauthorized
	}

	recs, total, err := s.store.ListOwned(ctx, identity.UserID, opts)
	if err != nil {
		return Page{}, s.storeError("list", identity, err)
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = repository.DefaultListLimit
	}
	if limit > repository.MaxListLimit {
		limit = repository.MaxListLimit
	}

	return Page{Records: recs, Total: total, Limit: limit, Offset: max(opts.Offset, 0)}, nil
}

func (s *Service) Get(ctx context.Context, identity auth.Identity, recordID string) (*repository.Record, error) {
	if identity.IsZero() {
		return nil, auth.ErrUnauthorized
	}

	id, err := parseID(recordID)
	if err != nil {
		return nil, err
	}

	rec, err := s.store.GetOwned(ctx, identity.UserID, id)
	if err != nil {
		return nil, s.storeError("get", identity, err)
	}
	return rec, nil
}

func (s *Service) Create(ctx context.Context, identity auth.Identity, input RecordInput) (*repository.Record, error) {
	if identity.IsZero() {
		return nil, auth.ErrUnauthorized
	}

	input.Title = strings.TrimSpace(input.Title)
	if verr := errors.ValidateWithOzzo(input.Validate, "Record is not valid"); verr != nil {
		return nil, verr.WithCode(errors.CodeBadRequest)
	}

	rec, err := s.store.CreateOwned(ctx, identity.UserID, &repository.Record{
		Title:       input.Title,
		Description: input.Description,
		Done:        input.Done,
	})
	if err != nil {
		return nil, s.storeError("create", identity, err)
	}
	return rec, nil
}

func (s *Service) Update(ctx context.Context, identity auth.Identity, recordID string, patch RecordPatch) (*repository.Record, error) {
	if identity.IsZero() {
		return nil, auth.ErrUnauthorized
	}

	id, err := parseID(recordID)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		trimmed := strings.TrimSpace(*patch.Title)
		patch.Title = &trimmed
	}
	if verr := errors.ValidateWithOzzo(patch.Validate, "Record is not valid"); verr != nil {
		return nil, verr.WithCode(errors.CodeBadRequest)
	}

	current, err := s.store.GetOwned(ctx, identity.UserID, id)
	if err != nil {
		return nil, s.storeError("update", identity, err)
	}

	if patch.Title != nil {
		current.Title = *patch.Title
	}
	if patch.Description != nil {
		current.Description = *patch.Description
	}
	if patch.Done != nil {
		current.Done = *patch.Done
	}

	updated, err := s.store.UpdateOwned(ctx, identity.UserID, current)
	if err != nil {
		return nil, s.storeError("update", identity, err)
	}
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, identity auth.Identity, recordID string) error {
	if identity.IsZero() {
		return auth.ErrUnauthorized
	}

	id, err := parseID(recordID)
	if err != nil {
		return err
	}

	if err := s.store.DeleteOwned(ctx, identity.UserID, id); err != nil {
		return s.storeError("delete", identity, err)
	}
	return nil
}

// a malformed id can not name a row the caller owns
func parseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, ErrRecordNotFound
	}
	return id, nil
}

func (s *Service) storeError(op string, identity auth.Identity, err error) error {
	if gorepo.IsRecordNotFound(err) {
		s.logger.Debug("record not found for owner", "op", op, "user_id", identity.UserID)
		return ErrRecordNotFound
	}
	s.logger.Error("record store failure", "op", op, "user_id", identity.UserID, "error", err)
	return err
}
