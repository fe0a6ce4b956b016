package middleware

import (
	"context"
	"errors"

	"github.com/Dosada05/chess-tournament/models"
	"github.com/Dosada05/chess-tournament/services"
)

var errNoClaims = errors.New("user claims not found in context")

// WithClaims returns a context carrying claims, as Authenticate stores them.
func WithClaims(ctx context.Context, claims *services.TokenClaims) context.Context {
	return context.WithValue(ctx, userContextKey, claims)
}

func claimsFromContext(ctx context.Context) (*services.TokenClaims, error) {
	claims, ok := ctx.Value(userContextKey).(*services.TokenClaims)
	if !ok || claims == nil {
		return nil, errNoClaims
	}
	return claims, nil
}

func GetUserIDFromContext(ctx context.Context) (int64, error) {
	claims, err := claimsFromContext(ctx)
	if err != nil {
		return 0, err
	}
	return claims.UserID, nil
}

func GetUserRoleFromContext(ctx context.Context) (models.UserRole, error) {
	claims, err := claimsFromContext(ctx)
	if err != nil {
		return "", err
	}
	return claims.Role, nil
}
