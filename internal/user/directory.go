package user

import (
	"context"
	"strings"

	"github.com/andreasstove999/ecommerce-system/shop-service-go/internal/auth"
)

// Directory exposes the user repository to the auth package.
type Directory struct {
	repo Repository
}

func NewDirectory(repo Repository) *Directory {
	return &Directory{repo: repo}
}

func (d *Directory) FindPrincipal(ctx context.Context, id string) (auth.Principal, error) {
	u, err := d.repo.FindByID(ctx, id)
	if err != nil {
		return auth.Principal{}, err
	}
	return u.Principal(), nil
}

func (d *Directory) PasswordHash(ctx context.Context, email string) (string, string, error) {
	u, err := d.repo.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return "", "", err
	}
	return u.ID, u.PasswordHash, nil
}

// Exists reports whether an account with id exists.
func (d *Directory) Exists(ctx context.Context, id string) (bool, error) {
	_, err := d.repo.FindByID(ctx, id)
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, err
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
