// Package services implements the [Provider] interface for Spotify.
//
// # Authorization
//
// [SpotifyService.AuthURL] and [SpotifyService.Exchange] wrap an [oauth2.Config] for the
// authorization code grant. Client credentials are sent in the POST form
// ([oauth2.AuthStyleInParams]). A token response without access_token is reported as
// [shared.ErrTokenExchange]; the caller never sees an empty token.
//
// # Listing
//
// [PlaylistLister] turns [SpotifyService.ListPlaylists] into an [iter.Seq2] of pages. The offset
// grows by the size of each returned page and iteration stops at the first empty page.
//
// # Track Fetching
//
// [SpotifyService.FetchPlaylist] issues one request per playlist and maps items to
// [models.Song] in response order.
//
// # Requests
//
// All API calls share a [rate.Limiter], carry the caller's context, use the client timeout from
// the export config, and retry once (configurable) on transport errors, 429, and 5xx.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrTokenExchange] : code exchange failed or returned no token
//   - [shared.ErrAPIRequest] : HTTP request failed or returned a non-2xx status
//   - [shared.ErrPlaylistNotFound] : the endpoint returned 404
//   - [shared.ErrMalformedResponse] : body could not be decoded or lacked items
package services
