package http

import (
	"context"
	"log/slog"

	"github.com/example/freebusy/internal/application"
	"github.com/example/freebusy/internal/logging"
)

type contextKey string

const (
	principalContextKey    contextKey = "principal"
	userIDContextKey       contextKey = "user_id"
	commitmentIDContextKey contextKey = "commitment_id"
)

// ContextWithPrincipal returns a derived context containing the authenticated principal.
func ContextWithPrincipal(ctx context.Context, principal application.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, principal)
}

// PrincipalFromContext extracts the authenticated principal from context if available.
func PrincipalFromContext(ctx context.Context) (application.Principal, bool) {
	principal, ok := ctx.Value(principalContextKey).(application.Principal)
	return principal, ok
}

// ContextWithUserID injects the user identifier resolved from the request path.
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}

// UserIDFromContext extracts a user identifier previously associated with the context.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDContextKey).(string)
	return id, ok
}

// ContextWithCommitmentID injects the commitment identifier resolved from the request path.
func ContextWithCommitmentID(ctx context.Context, commitmentID string) context.Context {
	return context.WithValue(ctx, commitmentIDContextKey, commitmentID)
}

// CommitmentIDFromContext extracts a commitment identifier previously associated with the context.
func CommitmentIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(commitmentIDContextKey).(string)
	return id, ok
}

// ContextWithLogger attaches a request scoped logger to the context. The
// logger is stored under the logging package's key so services reading
// logging.FromContext observe the same logger as the handlers.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return logging.ContextWithLogger(ctx, logger)
}

// LoggerFromContext returns the request scoped logger, or nil when absent.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx)
}
