package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/andreasstove999/ecommerce-system/shop-service-go/internal/apperr"
	"github.com/andreasstove999/ecommerce-system/shop-service-go/internal/auth"
)

var errNotAuthorizedUser = apperr.Forbidden("Not authorized to access this user")

// CartRemover deletes the cart owned by a user. Stores that cascade on delete
// may implement it as a no-op.
type CartRemover interface {
	DeleteByOwner(ctx context.Context, ownerID string) error
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// Accounts implements registration, login and user administration.
type Accounts struct {
	repo     Repository
	tokens   *auth.TokenCodec
	verifier *auth.Verifier
	carts    CartRemover
	log      *logrus.Entry
}

func NewAccounts(repo Repository, tokens *auth.TokenCodec, carts CartRemover, log *logrus.Entry) *Accounts {
	return &Accounts{
		repo:     repo,
		tokens:   tokens,
		verifier: auth.NewVerifier(NewDirectory(repo)),
		carts:    carts,
		log:      log,
	}
}

// Register creates a user-role account and returns a token for it.
func (a *Accounts) Register(ctx context.Context, in RegisterInput) (string, error) {
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return "", err
	}

	u := &User{
		Name:         strings.TrimSpace(in.Name),
		Email:        NormalizeEmail(in.Email),
		Role:         auth.RoleUser,
		PasswordHash: hash,
	}
	if err := a.repo.Create(ctx, u); err != nil {
		return "", err
	}

	a.log.WithField("user_id", u.ID).Info("user registered")
	return a.tokens.Issue(u.ID)
}

func (a *Accounts) Login(ctx context.Context, email, password string) (string, error) {
	id, err := a.verifier.Verify(ctx, email, password)
	if err != nil {
		return "", err
	}
	return a.tokens.Issue(id)
}

func (a *Accounts) Get(ctx context.Context, p auth.Principal, id string) (*User, error) {
	if !canAccess(p, id) {
		return nil, errNotAuthorizedUser
	}
	return a.repo.FindByID(ctx, id)
}

func (a *Accounts) List(ctx context.Context, p auth.Principal) ([]User, error) {
	if !auth.CheckRole(p, auth.RoleAdmin) {
		return nil, auth.ErrNotPermitted
	}
	return a.repo.List(ctx)
}

func (a *Accounts) Update(ctx context.Context, p auth.Principal, id string, upd Update) (*User, error) {
	if !canAccess(p, id) {
		return nil, errNotAuthorizedUser
	}
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		upd.Name = &name
	}
	if upd.Email != nil {
		email := NormalizeEmail(*upd.Email)
		upd.Email = &email
	}
	return a.repo.Update(ctx, id, upd)
}

// Delete removes a user and the user's cart. Admin only.
func (a *Accounts) Delete(ctx context.Context, p auth.Principal, id string) error {
	if !auth.CheckRole(p, auth.RoleAdmin) {
		return auth.ErrNotPermitted
	}
	if err := a.repo.Delete(ctx, id); err != nil {
		return err
	}
	if a.carts != nil {
		if err := a.carts.DeleteByOwner(ctx, id); err != nil && !isNotFound(err) {
			return fmt.Errorf("delete cart for user %s: %w", id, err)
		}
	}
	a.log.WithFields(logrus.Fields{"user_id": id, "by": p.ID}).Info("user deleted")
	return nil
}

// Promote gives an existing account the admin role.
func (a *Accounts) Promote(ctx context.Context, id string) error {
	return a.repo.SetRole(ctx, id, auth.RoleAdmin)
}

func canAccess(p auth.Principal, id string) bool {
	return p.ID == id || p.IsAdmin()
}

func isNotFound(err error) bool {
	return errors.Is(err, apperr.ErrNotFound)
}
