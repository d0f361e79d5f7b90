package account

import (
	"context"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-records/auth"
	"github.com/goliatone/go-records/repository"
	gorepo "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// UserStore is the user persistence the account service needs
type UserStore interface {
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, user *repository.User) (*repository.User, error)
	GetByID(ctx context.Context, id int64) (*repository.User, error)
	UpdateProfile(ctx context.Context, id int64, name, surname, fone string) (*repository.User, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	GetPasswordHash(ctx context.Context, id int64) (string, error)
}

// TxRunner runs fn with a user store bound to a single transaction. A
// returned error rolls the transaction back.
type TxRunner func(ctx context.Context, fn func(ctx context.Context, users UserStore) error) error

// ManagerTx runs fn inside one of m's transactions
func ManagerTx(m *repository.Manager) TxRunner {
	return func(ctx context.Context, fn func(ctx context.Context, users UserStore) error) error {
		return m.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			return fn(ctx, repository.NewUserRepository(tx))
		})
	}
}

type SignupInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Fone     string `json:"fone"`
	Name     string `json:"name"`
	Surname  string `json:"surname"`
}

type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type ProfileInput struct {
	Name    string `json:"name"`
	Surname string `json:"surname"`
	Fone    string `json:"fone"`
}

type PasswordChangeInput struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// Service handles signup, login and the caller's own profile
type Service struct {
	users         UserStore
	inTx          TxRunner
	authenticator *auth.Authenticator
	hasher        *auth.PasswordHasher
	phoneRegion   string
	clock         auth.Clock
	logger        auth.Logger
}

// NewService creates the account service. The authenticator's hasher is
// used for every password written by the service.
func NewService(users UserStore, authenticator *auth.Authenticator) *Service {
	return &Service{
		users:         users,
		inTx:          direct(users),
		authenticator: authenticator,
		hasher:        authenticator.Hasher(),
		phoneRegion:   DefaultPhoneRegion,
		clock:         auth.SystemClock,
		logger:        auth.DefaultLogger(),
	}
}

// WithPhoneRegion sets the region used to parse local phone numbers
func (s *Service) WithPhoneRegion(region string) *Service {
	if region != "" {
		s.phoneRegion = strings.ToUpper(region)
	}
	return s
}

// WithTransactions makes Register run its uniqueness checks and insert
// in one transaction
func (s *Service) WithTransactions(run TxRunner) *Service {
	if run != nil {
		s.inTx = run
	}
	return s
}

func direct(users UserStore) TxRunner {
	return func(ctx context.Context, fn func(ctx context.Context, users UserStore) error) error {
		return fn(ctx, users)
	}
}

func (s *Service) WithClock(clock auth.Clock) *Service {
	if clock != nil {
		s.clock = clock
	}
	return s
}

func (s *Service) WithLogger(logger auth.Logger) *Service {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// Register creates an active account. Checks run in a fixed order and the
// first failure is returned.
func (s *Service) Register(ctx context.Context, input SignupInput) (*repository.User, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(input.Email)
	input.Name = strings.TrimSpace(input.Name)
	input.Surname = strings.TrimSpace(input.Surname)

	if name, missing := firstMissing(
		field{"username", input.Username},
		field{"email", input.Email},
		field{"password", input.Password},
		field{"fone", input.Fone},
		field{"name", input.Name},
		field{"surname", input.Surname},
	); missing {
		return nil, MissingFieldError(name)
	}

	var user *repository.User
	err := s.inTx(ctx, func(ctx context.Context, users UserStore) error {
		created, err := s.register(ctx, users, input)
		if err != nil {
			return err
		}
		user = created
		return nil
	})
	if err != nil {
		var richErr *errors.Error
		if errors.As(err, &richErr) {
			return nil, err
		}
		return nil, s.storeError("register", err)
	}

	s.logger.Info("user registered", "user_id", user.ID)
	return user, nil
}

func (s *Service) register(ctx context.Context, users UserStore, input SignupInput) (*repository.User, error) {
	taken, err := users.ExistsByUsername(ctx, input.Username)
	if err != nil {
		return nil, s.storeError("register", err)
	}
	if taken {
		return nil, ErrUsernameTaken
	}

	taken, err = users.ExistsByEmail(ctx, input.Email)
	if err != nil {
		return nil, s.storeError("register", err)
	}
	if taken {
		return nil, ErrEmailTaken
	}

	if !ValidEmail(input.Email) {
		return nil, ErrInvalidEmail
	}

	if !ValidPassword(input.Password) {
		return nil, ErrInvalidPass
	}

	fone, ok := NormalizeFone(input.Fone, s.phoneRegion)
	if !ok {
		return nil, ErrInvalidFone
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		s.logger.Error("signup password hashing failed", "error", err)
		return nil, err
	}

	now := s.clock().UTC()
	user, err := users.Create(ctx, &repository.User{
		Username:    input.Username,
		Email:       input.Email,
		Password:    hash,
		Name:        input.Name,
		Surname:     input.Surname,
		Fone:        fone,
		Active:      true,
		ActivatedAt: &now,
	})
	if err != nil {
		// lost a race with a concurrent signup
		if repository.IsDuplicateUser(err) {
			return nil, ErrUsernameTaken
		}
		return nil, s.storeError("register", err)
	}

	return user, nil
}

// Login validates the request and issues a session. Every failure after
// the required field check is reported as auth.ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, input LoginInput) (auth.Session, error) {
	if name, missing := firstMissing(
		field{"username", input.Username},
		field{"password", input.Password},
	); missing {
		return auth.Session{}, MissingFieldError(name)
	}

	session, err := s.authenticator.Login(ctx, strings.TrimSpace(input.Username), input.Password)
	if err != nil {
		if !auth.IsInvalidCredentials(err) {
			s.logger.Error("login failed", "error", err)
		}
		return auth.Session{}, auth.ErrInvalidCredentials
	}

	s.upgradeHash(ctx, session.UserID, input.Password)

	return session, nil
}

// Profile returns the caller's own account
func (s *Service) Profile(ctx context.Context, identity auth.Identity) (*repository.User, error) {
	if identity.IsZero() {
		return nil, auth.ErrUnauthorized
	}

	user, err := s.users.GetByID(ctx, identity.UserID)
	if err != nil {
		return nil, s.storeError("profile", err)
	}
	return user, nil
}

// UpdateProfile replaces name, surname and fone of the caller's account
func (s *Service) UpdateProfile(ctx context.Context, identity auth.Identity, input ProfileInput) (*repository.User, error) {
	if identity.IsZero() {
		return nil, auth.ErrUnauthorized
	}

	input.Name = strings.TrimSpace(input.Name)
	input.Surname = strings.TrimSpace(input.Surname)

	if name, missing := firstMissing(
		field{"name", input.Name},
		field{"surname", input.Surname},
		field{"fone", input.Fone},
	); missing {
		return nil, MissingFieldError(name)
	}

	fone, ok := NormalizeFone(input.Fone, s.phoneRegion)
	if !ok {
		return nil, ErrInvalidFone
	}

	user, err := s.users.UpdateProfile(ctx, identity.UserID, input.Name, input.Surname, fone)
	if err != nil {
		return nil, s.storeError("update profile", err)
	}
	return user, nil
}

// ChangePassword replaces the caller's password after checking the
// current one
func (s *Service) ChangePassword(ctx context.Context, identity auth.Identity, input PasswordChangeInput) error {
	if identity.IsZero() {
		return auth.ErrUnauthorized
	}

	if name, missing := firstMissing(
		field{"current_password", input.CurrentPassword},
		field{"new_password", input.NewPassword},
	); missing {
		return MissingFieldError(name)
	}

	if !ValidPassword(input.NewPassword) {
		return ErrInvalidPass
	}

	stored, err := s.users.GetPasswordHash(ctx, identity.UserID)
	if err != nil {
		return s.storeError("change password", err)
	}

	ok, err := s.hasher.Verify(input.CurrentPassword, stored)
	if err != nil {
		s.logger.Error("password verification failed", "user_id", identity.UserID, "error", err)
		return err
	}
	if !ok {
		return ErrWrongPassword
	}

	hash, err := s.hasher.Hash(input.NewPassword)
	if err != nil {
		return err
	}

	if err := s.users.UpdatePassword(ctx, identity.UserID, hash); err != nil {
		return s.storeError("change password", err)
	}

	s.logger.Info("password changed", "user_id", identity.UserID)
	return nil
}

// upgradeHash re-encodes a verified password stored with older parameters.
// Failures are logged, the login already succeeded.
func (s *Service) upgradeHash(ctx context.Context, userID int64, password string) {
	stored, err := s.users.GetPasswordHash(ctx, userID)
	if err != nil || !s.hasher.NeedsRehash(stored) {
		return
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		s.logger.Warn("password rehash failed", "user_id", userID, "error", err)
		return
	}

	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		s.logger.Warn("password rehash not stored", "user_id", userID, "error", err)
		return
	}

	s.logger.Debug("password hash upgraded", "user_id", userID)
}

func (s *Service) storeError(op string, err error) error {
	if gorepo.IsRecordNotFound(err) {
		return ErrUserNotFound
	}

	s.logger.Error("account store failure", "op", op, "error", err)
	return errors.Wrap(err, errors.CategoryInternal, "account storage failure").
		WithCode(errors.CodeInternal)
}
