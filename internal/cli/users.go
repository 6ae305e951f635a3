package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/andreasstove999/ecommerce-system/shop-service-go/internal/auth"
	"github.com/andreasstove999/ecommerce-system/shop-service-go/internal/user"
)

type createAdminOptions struct {
	Name     string
	Email    string
	Password string
}

// NewCreateAdminCommand registers an account and promotes it to admin. An
// existing account with the same email is promoted instead.
func NewCreateAdminCommand(opts *RootOptions) *cobra.Command {
	in := &createAdminOptions{}

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create or promote an admin account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreateAdmin(cmd, opts, in)
		},
	}

	cmd.Flags().StringVar(&in.Name, "name", "Administrator", "display name")
	cmd.Flags().StringVar(&in.Email, "email", "", "account email")
	cmd.Flags().StringVar(&in.Password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func runCreateAdmin(cmd *cobra.Command, opts *RootOptions, in *createAdminOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	log := opts.logger(cmd)

	tokens, err := opts.tokens()
	if err != nil {
		return err
	}

	repo, closeRepo, err := opts.openUsers(ctx, opts.DSN)
	if err != nil {
		return err
	}
	defer closeRepo()

	email := user.NormalizeEmail(in.Email)
	u, err := repo.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, user.ErrNotFound):
		if len(in.Password) < 6 {
			return errors.New("--password must be at least 6 characters for a new account")
		}
		accounts := user.NewAccounts(repo, tokens, nil, log)
		if _, err := accounts.Register(ctx, user.RegisterInput{Name: in.Name, Email: email, Password: in.Password}); err != nil {
			return fmt.Errorf("register: %w", err)
		}
		if u, err = repo.FindByEmail(ctx, email); err != nil {
			return err
		}
	case err != nil:
		return err
	}

	if err := user.NewAccounts(repo, tokens, nil, log).Promote(ctx, u.ID); err != nil {
		return fmt.Errorf("promote: %w", err)
	}

	token, err := tokens.Issue(u.ID)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "id=%s\ntoken=%s\n", u.ID, token)
	return err
}

// NewTokenCommand issues a token for an existing account.
func NewTokenCommand(opts *RootOptions) *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an identity token for a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			tokens, err := opts.tokens()
			if err != nil {
				return err
			}

			repo, closeRepo, err := opts.openUsers(ctx, opts.DSN)
			if err != nil {
				return err
			}
			defer closeRepo()

			if _, err := repo.FindByID(ctx, userID); err != nil {
				return err
			}
			token, err := tokens.Issue(userID)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}

	cmd.Flags().StringVar(&userID, "user-id", "", "id of the account")
	_ = cmd.MarkFlagRequired("user-id")

	return cmd
}

func (o *RootOptions) tokens() (*auth.TokenCodec, error) {
	if o.JWTSecret == "" {
		return nil, errors.New("--jwt-secret (or JWT_SECRET) is required")
	}
	return auth.NewTokenCodec([]byte(o.JWTSecret), o.cfg.TokenTTL()), nil
}
