package main

import (
	"context"

	"github.com/alecthomas/kong"

	"github.com/goliatone/go-records/cmd/records/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		Debug        bool                     `help:"Enable debug mode."`
		Version      kong.VersionFlag         `help:"Print version and exit."`
		Serve        commands.ServeCmd        `cmd:"" help:"Start the HTTP API."`
		Migrate      commands.MigrateCmd      `cmd:"" help:"Apply or roll back database migrations."`
		HashPassword commands.HashPasswordCmd `cmd:"" help:"Print the stored form of a password."`
		IssueToken   commands.IssueTokenCmd   `cmd:"" help:"Mint a session token for a user id."`
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Name("records"),
		kong.Description("Multi-user record service with stateless sessions."),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Version: version})
	cmd.FatalIfErrorf(err)
}
