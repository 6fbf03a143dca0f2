// Spotify API implementation of [Provider]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotex/internal/models"
	"github.com/desertthunder/spotex/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"
)

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyArtist represents a simplified Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyAlbum represents a simplified Spotify album.
type SpotifyAlbum struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Images []SpotifyImage `json:"images"`
	URI    string         `json:"uri"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	Album      SpotifyAlbum    `json:"album"`
	DurationMS int             `json:"duration_ms"`
	URI        string          `json:"uri"`
}

// SpotifyPlaylistTrack represents a track within a playlist context.
//
// Track is nil for tracks that were removed from the catalog.
type SpotifyPlaylistTrack struct {
	AddedAt string        `json:"added_at"`
	Track   *SpotifyTrack `json:"track"`
}

// SpotifyPaginatedPlaylistTracks is the response of the playlist tracks endpoint.
type SpotifyPaginatedPlaylistTracks struct {
	Items  []SpotifyPlaylistTrack `json:"items"`
	Total  int                    `json:"total"`
	Limit  int                    `json:"limit"`
	Offset int                    `json:"offset"`
	Next   *string                `json:"next"`
}

// Owner is the owner of a playlist.
type Owner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// SpotifySimplePlaylist represents a simplified playlist object (used in lists).
type SpotifySimplePlaylist struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Owner  Owner  `json:"owner"`
	Public bool   `json:"public"`
}

// SpotifyPaginatedPlaylists represents a paginated response of playlists.
type SpotifyPaginatedPlaylists struct {
	Items    []SpotifySimplePlaylist `json:"items"`
	Total    int                     `json:"total"`
	Limit    int                     `json:"limit"`
	Offset   int                     `json:"offset"`
	Next     *string                 `json:"next"`
	Previous *string                 `json:"previous"`
}

// SpotifyOpts contains dependencies for [NewSpotifyService]. Config is required.
type SpotifyOpts struct {
	Config     *shared.Config
	HTTPClient *http.Client
	Logger     *log.Logger
}

// SpotifyService implements [Provider] for the Spotify Web API.
//
// The access token is passed to each call rather than stored, so one service can be built before authorization.
type SpotifyService struct {
	config     *oauth2.Config
	httpClient *http.Client
	apiURL     string
	userID     string
	limiter    *rate.Limiter
	retries    int
	logger     *log.Logger
}

// NewSpotifyService creates a new Spotify service from the application config.
func NewSpotifyService(opts SpotifyOpts) (*SpotifyService, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("%w: missing config", shared.ErrInvalidConfig)
	}
	creds := opts.Config.Credentials.Spotify
	if creds.ClientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}
	if creds.ClientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}

	provider := opts.Config.Provider
	authURL := valueOr(provider.AuthURL, spotifyAuthURL)
	tokenURL := valueOr(provider.TokenURL, spotifyTokenURL)
	apiURL := valueOr(provider.APIURL, spotifyBaseURL)

	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Config.Export.RequestTimeout()}
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	limit := rate.Inf
	if opts.Config.Export.RateLimit > 0 {
		limit = rate.Limit(opts.Config.Export.RateLimit)
	}

	return &SpotifyService{
		config: &oauth2.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			RedirectURL:  creds.RedirectURI,
			Scopes:       creds.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   authURL,
				TokenURL:  tokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		httpClient: opts.HTTPClient,
		apiURL:     apiURL,
		userID:     creds.UserID,
		limiter:    rate.NewLimiter(limit, 1),
		retries:    max(0, min(opts.Config.Export.Retries, 3)),
		logger:     shared.WithLogger(opts.Logger, "service", "spotify"),
	}, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// AuthURL returns the authorize URL the user opens to approve access.
//
// The configured user id is sent as the username hint.
func (s *SpotifyService) AuthURL(state string) string {
	var opts []oauth2.AuthCodeOption
	if s.userID != "" {
		opts = append(opts, oauth2.SetAuthURLParam("username", s.userID))
	}
	return s.config.AuthCodeURL(state, opts...)
}

// Exchange trades an authorization code for an access token with one POST to the token endpoint.
//
// A response without an access_token is an error; an empty token is never returned.
func (s *SpotifyService) Exchange(ctx context.Context, code string) (models.AccessToken, error) {
	if code == "" {
		return "", fmt.Errorf("%w: empty authorization code", shared.ErrInvalidInput)
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
	token, err := s.config.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrTokenExchange, err)
	}
	if token == nil || token.AccessToken == "" {
		return "", fmt.Errorf("%w: response missing access_token", shared.ErrTokenExchange)
	}

	return models.AccessToken(token.AccessToken), nil
}

// ListPlaylists retrieves one page of playlists.
//
// Uses /users/{id}/playlists when a user id is configured, /me/playlists otherwise.
func (s *SpotifyService) ListPlaylists(ctx context.Context, token models.AccessToken, limit, offset int) ([]models.PlaylistRef, error) {
	path := "/me/playlists"
	if s.userID != "" {
		path = fmt.Sprintf("/users/%s/playlists", url.PathEscape(s.userID))
	}
	endpoint := fmt.Sprintf("%s?limit=%d&offset=%d", path, limit, offset)

	var response SpotifyPaginatedPlaylists
	if err := s.doRequest(ctx, token, endpoint, &response); err != nil {
		return nil, err
	}
	if response.Items == nil {
		return nil, fmt.Errorf("%w: playlists response has no items", shared.ErrMalformedResponse)
	}

	refs := make([]models.PlaylistRef, 0, len(response.Items))
	for _, sp := range response.Items {
		refs = append(refs, models.PlaylistRef{ID: sp.ID, Name: sp.Name})
	}
	return refs, nil
}

// FetchPlaylist retrieves the tracks of the job's playlist with a single request.
//
// Song order matches the response. Items without a track are skipped.
func (s *SpotifyService) FetchPlaylist(ctx context.Context, job models.Job) (*models.Playlist, error) {
	if job.PlaylistID == "" {
		return nil, fmt.Errorf("%w: empty playlist id", shared.ErrInvalidInput)
	}

	endpoint := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(job.PlaylistID))

	var response SpotifyPaginatedPlaylistTracks
	if err := s.doRequest(ctx, job.Token, endpoint, &response); err != nil {
		return nil, err
	}
	if response.Items == nil {
		return nil, fmt.Errorf("%w: tracks response has no items", shared.ErrMalformedResponse)
	}

	playlist := models.NewPlaylist(job.PlaylistName, len(response.Items))
	for _, item := range response.Items {
		if item.Track == nil {
			continue
		}
		playlist.Songs = append(playlist.Songs, toSong(item.Track))
	}

	// Only the first page of tracks is exported.
	if response.Next != nil {
		s.logger.Warn("playlist truncated to first page of tracks",
			"playlist", job.PlaylistName,
			"total", response.Total,
			"returned", len(response.Items),
		)
	}

	return playlist, nil
}

func toSong(t *SpotifyTrack) models.Song {
	artists := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		artists = append(artists, a.Name)
	}

	song := models.Song{
		Title:      t.Name,
		Artist:     artists,
		Album:      t.Album.Name,
		DurationMS: t.DurationMS,
	}
	if len(t.Album.Images) > 0 {
		song.AlbumArtURL = t.Album.Images[0].URL
	}
	return song
}

// doRequest performs an authenticated GET against the API, retrying transient failures.
func (s *SpotifyService) doRequest(ctx context.Context, token models.AccessToken, endpoint string, result any) error {
	if token.IsZero() {
		return fmt.Errorf("%w: no access token", shared.ErrAuthFailed)
	}

	var err error
	for attempt := 0; attempt <= s.retries; attempt++ {
		if attempt > 0 {
			s.logger.Debug("retrying request", "endpoint", endpoint, "attempt", attempt, "error", err)
		}

		var retry bool
		if retry, err = s.get(ctx, token, endpoint, result); err == nil {
			return nil
		}
		if !retry || ctx.Err() != nil {
			break
		}
	}
	return err
}

// get performs one request. The returned bool reports whether the failure is worth retrying.
func (s *SpotifyService) get(ctx context.Context, token models.AccessToken, endpoint string, result any) (bool, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return false, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.apiURL+endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token.Secret())
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return true, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, endpoint)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		io.Copy(io.Discard, resp.Body)
		return true, fmt.Errorf("%w: spotify API error: status %d", shared.ErrAPIRequest, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return false, fmt.Errorf("%w: spotify API error: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return false, fmt.Errorf("%w: failed to decode response: %v", shared.ErrMalformedResponse, err)
	}
	return false, nil
}

func valueOr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
