package claimcheck

import "context"

type callerClaimsKey struct{}

// BindCallerClaims stores caller claims inside the context for downstream consumers.
func BindCallerClaims(ctx context.Context, claims *CallerClaims) context.Context {
	return context.WithValue(ctx, callerClaimsKey{}, claims)
}

// CallerClaimsFromContext retrieves caller claims previously stored in the context.
func CallerClaimsFromContext(ctx context.Context) (*CallerClaims, bool) {
	if ctx == nil {
		return nil, false
	}
	claims, ok := ctx.Value(callerClaimsKey{}).(*CallerClaims)
	return claims, ok && claims != nil
}
