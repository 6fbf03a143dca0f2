package services

import (
	"context"

	"github.com/desertthunder/spotex/internal/models"
)

// MaxPageSize is the largest page the playlists endpoint returns.
const MaxPageSize = 50

// Provider defines the operations the export flow needs from a music service.
type Provider interface {
	// AuthURL builds the authorize URL for the given state token.
	AuthURL(state string) string

	// Exchange trades an authorization code for an access token.
	Exchange(ctx context.Context, code string) (models.AccessToken, error)

	// ListPlaylists retrieves one page of the account's playlists.
	ListPlaylists(ctx context.Context, token models.AccessToken, limit, offset int) ([]models.PlaylistRef, error)

	// FetchPlaylist retrieves the track listing of one playlist.
	FetchPlaylist(ctx context.Context, job models.Job) (*models.Playlist, error)

	// Name returns the name of the service (e.g., "Spotify")
	Name() string
}

var _ Provider = (*SpotifyService)(nil)
