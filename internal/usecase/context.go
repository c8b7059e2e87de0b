package usecase

import (
	"context"
	"strings"
)

type accessTokenKey struct{}

// WithAccessToken attaches the caller's capability token to the context.
// The engine never mints tokens of its own; every backend request is made
// on behalf of an already-authenticated user.
func WithAccessToken(ctx context.Context, token string) context.Context {
	token = strings.TrimSpace(token)
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, accessTokenKey{}, token)
}

func AccessTokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(accessTokenKey{}).(string)
	return token
}
