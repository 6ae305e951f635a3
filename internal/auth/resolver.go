package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/andreasstove999/ecommerce-system/shop-service-go/internal/apperr"
)

// Reasons reported with authentication failures.
const (
	ReasonNoToken      = "no token provided"
	ReasonInvalidToken = "invalid token"
	ReasonExpired      = "token has expired"
	ReasonUserGone     = "user no longer exists"
	ReasonFailed       = "authentication failed"
)

// Directory resolves a token subject to the account's current identity.
// It returns an apperr NotFound error when the account does not exist.
type Directory interface {
	FindPrincipal(ctx context.Context, id string) (Principal, error)
}

type tokenDecoder interface {
	Decode(raw string) (Claims, error)
}

// Resolver turns an Authorization header value into a Principal.
type Resolver struct {
	tokens tokenDecoder
	dir    Directory
}

func NewResolver(tokens *TokenCodec, dir Directory) *Resolver {
	return &Resolver{tokens: tokens, dir: dir}
}

func (r *Resolver) Resolve(ctx context.Context, authorization string) (Principal, error) {
	raw, ok := BearerToken(authorization)
	if !ok {
		return Principal{}, apperr.Unauthenticated(ReasonNoToken)
	}

	claims, err := r.tokens.Decode(raw)
	if err != nil {
		if errors.Is(err, ErrTokenExpired) {
			return Principal{}, apperr.Unauthenticated(ReasonExpired)
		}
		return Principal{}, apperr.Unauthenticated(ReasonInvalidToken)
	}

	p, err := r.dir.FindPrincipal(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return Principal{}, apperr.Unauthenticated(ReasonUserGone)
		}
		e := apperr.Unauthenticated(ReasonFailed)
		e.Err = err
		return Principal{}, e
	}
	return p, nil
}

// BearerToken extracts the token from a "Bearer <token>" header value.
func BearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}
