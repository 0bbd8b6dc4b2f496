package auth

import (
	"context"
)

type contextKey string

const claimsKey contextKey = "webagents.claims"

// WithClaims adds verified claims to ctx.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// ClaimsFrom returns the claims stored in ctx, or nil.
func ClaimsFrom(ctx context.Context) *Claims {
	claims, _ := ctx.Value(claimsKey).(*Claims)
	return claims
}
