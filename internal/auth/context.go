package auth

import "context"

// claimsKey is unexported so only this package can write claims; collisions
// with other context values are impossible with a struct key.
type claimsKey struct{}

// WithClaims stores verified claims on the context.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// FromContext retrieves the claims stored by WithClaims.
func FromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*Claims)
	return claims, ok
}
