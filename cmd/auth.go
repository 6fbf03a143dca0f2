package main

import (
	"context"

	"github.com/desertthunder/spotex/internal/services"
	"github.com/desertthunder/spotex/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthURL prints the authorize URL for a manual flow on a machine without a browser.
//
// Nothing listens for the callback; the code in the redirect is meant for `spotex export --no-browser`
// run where the redirect host is reachable.
func (r *Runner) AuthURL(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd.String("config"))
	if err != nil {
		return err
	}
	if err := config.Validate(); err != nil {
		return err
	}

	spotify, err := services.NewSpotifyService(services.SpotifyOpts{Config: config, Logger: r.logger})
	if err != nil {
		return err
	}

	state, err := shared.GenerateState()
	if err != nil {
		return err
	}

	r.logger.Debug("generated authorize URL", "redirect", config.Credentials.Spotify.RedirectURI)
	return r.writePlain("%s\n", spotify.AuthURL(state))
}
