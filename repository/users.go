package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-records/auth"
	"github.com/goliatone/go-repository-bun"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"
)

const TextCodeDuplicateUser = "DUPLICATE_USER"

// ErrDuplicateUser is returned when an insert hits the username or email
// unique constraint
var ErrDuplicateUser = errors.New("user already exists", errors.CategoryConflict).
	WithCode(errors.CodeConflict).
	WithTextCode(TextCodeDuplicateUser)

// UserRepository stores accounts. User ids are integers, so it works on
// bun directly instead of the uuid keyed generic repository.
type UserRepository struct {
	db bun.IDB
}

var _ auth.CredentialStore = (*UserRepository)(nil)

// NewUserRepository creates a repository backed by db
func NewUserRepository(db bun.IDB) *UserRepository {
	return &UserRepository{db: db}
}

// FindCredentialByUsername implements auth.CredentialStore
func (r *UserRepository) FindCredentialByUsername(ctx context.Context, username string) (auth.Credential, error) {
	var user User
	err := r.db.NewSelect().
		Model(&user).
		Column("id", "password").
		Where("?TableAlias.username = ?", username).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return auth.Credential{}, auth.ErrCredentialNotFound
		}
		return auth.Credential{}, err
	}

	return auth.Credential{UserID: user.ID, PasswordHash: user.Password}, nil
}

// ExistsByUsername reports whether username is taken
func (r *UserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.db.NewSelect().
		Model((*User)(nil)).
		Where("?TableAlias.username = ?", username).
		Exists(ctx)
}

// ExistsByEmail reports whether email is taken
func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.db.NewSelect().
		Model((*User)(nil)).
		Where("?TableAlias.email = ?", email).
		Exists(ctx)
}

// Create inserts user and sets its generated id
func (r *UserRepository) Create(ctx context.Context, user *User) (*User, error) {
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	if _, err := r.db.NewInsert().Model(user).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return nil, errors.Wrap(err, errors.CategoryConflict, ErrDuplicateUser.Message).
				WithCode(errors.CodeConflict).
				WithTextCode(TextCodeDuplicateUser)
		}
		return nil, err
	}

	return user, nil
}

// GetByID loads a user by primary key
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*User, error) {
	user := &User{}
	err := r.db.NewSelect().
		Model(user).
		Where("?TableAlias.id = ?", id).
		Scan(ctx)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().WithMetadata(map[string]any{
				"table": "users",
				"id":    id,
			})
		}
		return nil, err
	}
	return user, nil
}

// UpdateProfile changes the descriptive fields of user id
func (r *UserRepository) UpdateProfile(ctx context.Context, id int64, name, surname, fone string) (*User, error) {
	res, err := r.db.NewUpdate().
		Model((*User)(nil)).
		Set("name = ?", name).
		Set("surname = ?", surname).
		Set("fone = ?", fone).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return nil, err
	}

	if err := expectRows(res, "users", id); err != nil {
		return nil, err
	}

	return r.GetByID(ctx, id)
}

// UpdatePassword stores a new password hash for user id
func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	res, err := r.db.NewUpdate().
		Model((*User)(nil)).
		Set("password = ?", passwordHash).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	return expectRows(res, "users", id)
}

// GetPasswordHash returns the stored hash for user id
func (r *UserRepository) GetPasswordHash(ctx context.Context, id int64) (string, error) {
	user, err := r.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return user.Password, nil
}

func expectRows(res sql.Result, table string, id any) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.NewRecordNotFound().WithMetadata(map[string]any{
			"table": table,
			"id":    id,
		})
	}
	return nil
}

// IsDuplicateUser reports whether err is a unique constraint failure on users
func IsDuplicateUser(err error) bool {
	var richErr *errors.Error
	if errors.As(err, &richErr) {
		return richErr.TextCode == TextCodeDuplicateUser
	}
	return false
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
