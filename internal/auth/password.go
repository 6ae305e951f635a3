package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/andreasstove999/ecommerce-system/shop-service-go/internal/apperr"
)

// ErrInvalidCredentials is returned by Verify for an unknown email or a wrong password.
var ErrInvalidCredentials = &apperr.Error{Kind: apperr.KindUnauthenticated, Message: "Invalid credentials"}

func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

// CredentialSource looks up the stored password hash for an email.
// It returns an apperr NotFound error when no account exists.
type CredentialSource interface {
	PasswordHash(ctx context.Context, email string) (userID string, hash string, err error)
}

type Verifier struct {
	src CredentialSource
}

func NewVerifier(src CredentialSource) *Verifier {
	return &Verifier{src: src}
}

// Verify returns the id of the account matching email and password.
func (v *Verifier) Verify(ctx context.Context, email, password string) (string, error) {
	id, hash, err := v.src.PasswordHash(ctx, email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("load credentials: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}
	return id, nil
}
