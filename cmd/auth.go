package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"cratesync/internal/services"
	"cratesync/internal/shared"
)

// Auth starts the OAuth consent flow, or exchanges an authorization code
// for a token when --code is passed.
func (r *Runner) Auth(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	config, err := shared.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	client, err := services.NewSpotifyClient(config.Remote)
	if err != nil {
		return fmt.Errorf("failed to build remote client: %w", err)
	}

	if code := cmd.String("code"); code != "" {
		if err := client.Authenticate(ctx, map[string]string{"auth_code": code}); err != nil {
			return fmt.Errorf("code exchange failed: %w", err)
		}

		token := client.AccessToken()
		r.logger.Info("authenticated", "service", client.Name())
		r.writePlainln("Add this to the [remote] section of %s:", configPath)
		return r.writePlain("access_token = %q\n", token)
	}

	authURL := client.GetAuthURL(shared.GenerateID())

	if cmd.Bool("no-browser") {
		return r.writePlain("Open this URL to authorize, then re-run with --code:\n%s\n", authURL)
	}

	r.logger.Info("opening browser for consent", "service", client.Name())
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warn("could not open browser", "error", err)
		return r.writePlain("Open this URL to authorize, then re-run with --code:\n%s\n", authURL)
	}

	return r.writePlain("After authorizing, re-run with --code <authorization code>.\n")
}
