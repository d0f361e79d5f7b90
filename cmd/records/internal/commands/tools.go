package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/goliatone/go-errors"

	"github.com/goliatone/go-records/account"
	"github.com/goliatone/go-records/auth"
	"github.com/goliatone/go-records/logging"
)

type HashPasswordCmd struct {
	Password string `arg:"" help:"Clear text password."`
	NoPolicy bool   `help:"Skip the password policy check."`
}

func (h *HashPasswordCmd) Run(globals *Globals) error {
	if !h.NoPolicy && !account.ValidPassword(h.Password) {
		return account.ErrInvalidPass
	}

	hash, err := auth.NewPasswordHasher().Hash(h.Password)
	if err != nil {
		return err
	}

	fmt.Println(hash)
	return nil
}

type IssueTokenCmd struct {
	UserID int64 `name:"user-id" required:"" help:"Owner of the session."`
}

func (i *IssueTokenCmd) Run(globals *Globals) error {
	if i.UserID <= 0 {
		return errors.New("user id must be positive", errors.CategoryBadInput)
	}

	cfg, log, err := setup(globals)
	if err != nil {
		return err
	}

	policy, err := cfg.Policy()
	if err != nil {
		return err
	}

	// tokens are minted without a credential check, the store is never used
	store := auth.CredentialStoreFunc(func(context.Context, string) (auth.Credential, error) {
		return auth.Credential{}, auth.ErrCredentialNotFound
	})

	session, err := auth.NewAuthenticator(store, nil, policy).
		WithLogger(logging.Named(log, "auth")).
		Issue(i.UserID)
	if err != nil {
		return err
	}

	log.Warn().Int64("user_id", i.UserID).Msg("issued session token outside of login")

	fmt.Println(session.Token)
	fmt.Println("expires_at:", session.ExpiresAt.UTC().Format(time.RFC3339))
	return nil
}
