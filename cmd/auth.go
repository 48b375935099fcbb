package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"anisync/internal/shared"
)

// AuthLogin authorizes an account through the OAuth flow and stores its token.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	username := cmd.StringArg("username")
	if username == "" {
		return fmt.Errorf("%w: username", shared.ErrMissingArgument)
	}

	manager, err := r.tokenManager(r.authFlow(cmd.Bool("manual")))
	if err != nil {
		return err
	}

	r.logger.Info("authorizing", "user", username)

	// Token verifies a stored token first, so a re-login for an account that
	// already has a valid token is a no-op.
	if _, err := manager.Token(ctx, username); err != nil {
		return err
	}

	return r.writePlain("✓ Authenticated as %s\n", username)
}

// AuthStatus lists stored accounts and verifies each token against the API.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	store, err := r.tokenStore()
	if err != nil {
		return err
	}

	users := store.Users()
	if len(users) == 0 {
		return r.writePlain("No stored tokens. Run `anisync auth login <username>`.\n")
	}

	r.writePlain("Token store: %s\n\n", store.Path())

	for _, username := range users {
		token, _ := store.Token(username)
		owner, err := r.client.Viewer(ctx, token)
		switch {
		case err != nil:
			r.writePlain("✗ %s: %v\n", username, err)
		case !strings.EqualFold(owner.Name, username):
			r.writePlain("✗ %s: token belongs to %s\n", username, owner.Name)
		default:
			r.writePlain("✓ %s\n", username)
		}
	}

	return nil
}

// AuthLogout removes a stored token.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	username := cmd.StringArg("username")
	if username == "" {
		return fmt.Errorf("%w: username", shared.ErrMissingArgument)
	}

	store, err := r.tokenStore()
	if err != nil {
		return err
	}

	if !store.DeleteToken(username) {
		return r.writePlain("No stored token for %s.\n", username)
	}

	if err := store.Save(); err != nil {
		return err
	}

	return r.writePlain("✓ Removed token for %s\n", username)
}
