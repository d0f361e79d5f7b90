package repository_test

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-records/auth"
	"github.com/goliatone/go-records/repository"
	gorepo "github.com/goliatone/go-repository-bun"
)

func setupDB(t *testing.T) *bun.DB {
	t.Helper()

	ctx := context.Background()
	db, err := repository.Open(ctx, "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = repository.Migrate(ctx, db)
	require.NoError(t, err)

	return db
}

func createUser(t *testing.T, users *repository.UserRepository, username string) *repository.User {
	t.Helper()

	u, err := users.Create(context.Background(), &repository.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "hash-" + username,
		Name:     "Name",
		Surname:  "Surname",
		Fone:     "+5511999998888",
		Active:   true,
	})
	require.NoError(t, err)
	require.Positive(t, u.ID)
	return u
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := setupDB(t)

	group, err := repository.Migrate(context.Background(), db)
	require.NoError(t, err)
	assert.True(t, group.IsZero())
}

func TestDialectFromDSN(t *testing.T) {
	assert.Equal(t, repository.DialectPostgres, repository.DialectFromDSN("postgres://u:p@localhost/db"))
	assert.Equal(t, repository.DialectPostgres, repository.DialectFromDSN("postgresql://localhost/db"))
	assert.Equal(t, repository.DialectSQLite, repository.DialectFromDSN("sqlite://records.db"))
	assert.Equal(t, repository.DialectSQLite, repository.DialectFromDSN(""))
}

func TestUserRepository(t *testing.T) {
	db := setupDB(t)
	users := repository.NewUserRepository(db)
	ctx := context.Background()

	alice := createUser(t, users, "alice")

	t.Run("credential lookup", func(t *testing.T) {
		cred, err := users.FindCredentialByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, alice.ID, cred.UserID)
		assert.Equal(t, "hash-alice", cred.PasswordHash)

		_, err = users.FindCredentialByUsername(ctx, "nobody")
		require.Error(t, err)
		assert.True(t, auth.IsCredentialNotFound(err))
	})

	t.Run("exists", func(t *testing.T) {
		ok, err := users.ExistsByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = users.ExistsByEmail(ctx, "nobody@example.com")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("duplicate username", func(t *testing.T) {
		_, err := users.Create(ctx, &repository.User{
			Username: "alice",
			Email:    "other@example.com",
			Password: "x",
		})
		require.Error(t, err)
		assert.True(t, repository.IsDuplicateUser(err))
	})

	t.Run("update profile", func(t *testing.T) {
		updated, err := users.UpdateProfile(ctx, alice.ID, "Alice", "Liddell", "+5511988887777")
		require.NoError(t, err)
		assert.Equal(t, "Alice", updated.Name)
		assert.Equal(t, "Liddell", updated.Surname)
		assert.Equal(t, "+5511988887777", updated.Fone)
		assert.Equal(t, "alice", updated.Username)

		_, err = users.UpdateProfile(ctx, 9999, "x", "y", "z")
		require.Error(t, err)
		assert.True(t, gorepo.IsRecordNotFound(err))
	})

	t.Run("update password", func(t *testing.T) {
		require.NoError(t, users.UpdatePassword(ctx, alice.ID, "new-hash"))

		hash, err := users.GetPasswordHash(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, "new-hash", hash)

		err = users.UpdatePassword(ctx, 9999, "x")
		assert.True(t, gorepo.IsRecordNotFound(err))
	})

	t.Run("get missing", func(t *testing.T) {
		_, err := users.GetByID(ctx, 424242)
		require.Error(t, err)
		assert.True(t, gorepo.IsRecordNotFound(err))
	})
}

func TestRecordRepository_OwnerScoping(t *testing.T) {
	db := setupDB(t)
	mngr := repository.NewManager(db)
	require.NoError(t, mngr.Validate())
	ctx := context.Background()

	one := createUser(t, mngr.Users(), "one")
	two := createUser(t, mngr.Users(), "two")

	theirs, err := mngr.Records().CreateOwned(ctx, two.ID, &repository.Record{
		UserID: one.ID, // ignored, the owner argument wins
		Title:  "belongs to two",
	})
	require.NoError(t, err)
	assert.Equal(t, two.ID, theirs.UserID)
	assert.NotEqual(t, uuid.Nil, theirs.ID)

	t.Run("list shows nothing of another owner", func(t *testing.T) {
		list, total, err := mngr.Records().ListOwned(ctx, one.ID, repository.ListOptions{})
		require.NoError(t, err)
		assert.Empty(t, list)
		assert.Equal(t, 0, total)
	})

	t.Run("get of another owner is not found", func(t *testing.T) {
		_, err := mngr.Records().GetOwned(ctx, one.ID, theirs.ID)
		require.Error(t, err)
		assert.True(t, gorepo.IsRecordNotFound(err))
	})

	t.Run("update of another owner is not found", func(t *testing.T) {
		_, err := mngr.Records().UpdateOwned(ctx, one.ID, &repository.Record{ID: theirs.ID, Title: "hijack"})
		require.Error(t, err)
		assert.True(t, gorepo.IsRecordNotFound(err))

		got, err := mngr.Records().GetOwned(ctx, two.ID, theirs.ID)
		require.NoError(t, err)
		assert.Equal(t, "belongs to two", got.Title)
	})

	t.Run("delete of another owner is not found", func(t *testing.T) {
		err := mngr.Records().DeleteOwned(ctx, one.ID, theirs.ID)
		require.Error(t, err)
		assert.True(t, gorepo.IsRecordNotFound(err))

		_, err = mngr.Records().GetOwned(ctx, two.ID, theirs.ID)
		require.NoError(t, err)
	})

	t.Run("owner has full access", func(t *testing.T) {
		got, err := mngr.Records().GetOwned(ctx, two.ID, theirs.ID)
		require.NoError(t, err)
		assert.Equal(t, theirs.ID, got.ID)

		got.Title = "renamed"
		got.Done = true
		updated, err := mngr.Records().UpdateOwned(ctx, two.ID, got)
		require.NoError(t, err)
		assert.Equal(t, "renamed", updated.Title)
		assert.True(t, updated.Done)

		require.NoError(t, mngr.Records().DeleteOwned(ctx, two.ID, theirs.ID))

		_, err = mngr.Records().GetOwned(ctx, two.ID, theirs.ID)
		assert.True(t, gorepo.IsRecordNotFound(err))
	})
}

func TestRecordRepository_ListFilters(t *testing.T) {
	db := setupDB(t)
	mngr := repository.NewManager(db)
	ctx := context.Background()

	owner := createUser(t, mngr.Users(), "owner")

	for i, done := range []bool{true, false, false} {
		_, err := mngr.Records().CreateOwned(ctx, owner.ID, &repository.Record{
			Title: "item",
			Done:  done,
		})
		require.NoError(t, err, i)
	}

	list, total, err := mngr.Records().ListOwned(ctx, owner.ID, repository.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, list, 3)
	assert.Equal(t, 3, total)

	pending := false
	list, total, err = mngr.Records().ListOwned(ctx, owner.ID, repository.ListOptions{Done: &pending})
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.Equal(t, 2, total)

	list, total, err = mngr.Records().ListOwned(ctx, owner.ID, repository.ListOptions{Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, 3, total)
}

func TestManager_PingAndTx(t *testing.T) {
	db := setupDB(t)
	mngr := repository.NewManager(db)
	ctx := context.Background()

	_, err := mngr.Ping(ctx)
	require.NoError(t, err)

	err = mngr.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := repository.NewUserRepository(tx).Create(ctx, &repository.User{
			Username: "txuser",
			Email:    "tx@example.com",
			Password: "x",
		})
		return err
	})
	require.NoError(t, err)

	ok, err := mngr.Users().ExistsByUsername(ctx, "txuser")
	require.NoError(t, err)
	assert.True(t, ok)

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	err = mngr.RunInTx(canceled, nil, func(context.Context, bun.Tx) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRecordRepository_OnlyOwnerScopedMethods(t *testing.T) {
	db := setupDB(t)
	records := repository.NewManager(db).Records()

	typ := reflect.TypeOf(records)
	require.Positive(t, typ.NumMethod())

	for i := 0; i < typ.NumMethod(); i++ {
		name := typ.Method(i).Name
		assert.True(t, strings.HasSuffix(name, "Owned"), "unscoped method %s", name)
	}
}

func TestManager_Validate(t *testing.T) {
	mngr := repository.NewManager(setupDB(t))
	assert.NotPanics(t, mngr.MustValidate)

	empty := &repository.Manager{}
	assert.Error(t, empty.Validate())
	assert.Panics(t, empty.MustValidate)
}
