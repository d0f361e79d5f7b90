package auth

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Identity is the authenticated principal handed to resource handlers.
// It is only ever produced by the extractor or by a successful login.
type Identity struct {
	UserID int64 `json:"user_id"`
}

// IsZero reports whether the identity carries no principal
func (i Identity) IsZero() bool {
	return i.UserID <= 0
}

// Credential is the stored verification material for a user
type Credential struct {
	UserID       int64
	PasswordHash string
}

// CredentialStore is the persistence collaborator used during login
type CredentialStore interface {
	// FindCredentialByUsername returns ErrCredentialNotFound for unknown users
	FindCredentialByUsername(ctx context.Context, username string) (Credential, error)
}

// CredentialStoreFunc adapts a function into a CredentialStore
type CredentialStoreFunc func(ctx context.Context, username string) (Credential, error)

// FindCredentialByUsername satisfies CredentialStore
func (f CredentialStoreFunc) FindCredentialByUsername(ctx context.Context, username string) (Credential, error) {
	return f(ctx, username)
}

// Headers is the read side of a request header set. http.Header satisfies it.
type Headers interface {
	Get(key string) string
}

// Clock returns the current time
type Clock func() time.Time

// SystemClock uses the process clock
func SystemClock() time.Time {
	return time.Now()
}

type defLogger struct {
	out io.Writer
}

func (d defLogger) Error(msg string, args ...any) {
	d.write("ERR", msg, args)
}

func (d defLogger) Warn(msg string, args ...any) {
	d.write("WRN", msg, args)
}

func (d defLogger) Info(msg string, args ...any) {
	d.write("INF", msg, args)
}

func (d defLogger) Debug(msg string, args ...any) {
	d.write("DBG", msg, args)
}

// write prints the message followed by key=value pairs. A dangling key
// is printed with a (MISSING) value.
func (d defLogger) write(level, msg string, args []any) {
	out := d.out
	if out == nil {
		out = os.Stdout
	}

	var b strings.Builder
	b.WriteString("[" + level + "] AUTH " + strings.TrimRight(msg, "\n"))
	for i := 0; i < len(args); i += 2 {
		var value any = "(MISSING)"
		if i+1 < len(args) {
			value = args[i+1]
		}
		fmt.Fprintf(&b, " %v=%v", args[i], value)
	}
	b.WriteByte('\n')

	io.WriteString(out, b.String()) //nolint:errcheck
}

// DefaultLogger returns the stdout logger used when none is configured
func DefaultLogger() Logger {
	return defLogger{out: os.Stdout}
}

// NewWriterLogger is the default logger writing to out
func NewWriterLogger(out io.Writer) Logger {
	return defLogger{out: out}
}
