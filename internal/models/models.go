// package models defines the data model for the playlist exporter
package models

import (
	"fmt"
	"time"
)

const redacted = "[redacted]"

// AccessToken is an OAuth2 bearer token.
//
// It formats as "[redacted]" under every fmt verb so it can be passed to loggers without leaking.
type AccessToken string

// Secret returns the raw token for use in an Authorization header.
func (t AccessToken) Secret() string { return string(t) }

// IsZero reports whether no token was obtained.
func (t AccessToken) IsZero() bool { return t == "" }

func (t AccessToken) String() string { return redacted }

// GoString implements [fmt.GoStringer] so %#v is redacted too.
func (t AccessToken) GoString() string { return redacted }

// MarshalText keeps the token out of JSON, TOML, and text encoders.
func (t AccessToken) MarshalText() ([]byte, error) { return []byte(redacted), nil }

// PlaylistRef identifies a playlist returned by the listing endpoint.
type PlaylistRef struct {
	ID   string
	Name string
}

// Page is one batch of playlists from the listing endpoint.
type Page struct {
	Offset int
	Items  []PlaylistRef
}

// Len returns the number of playlists in the page.
func (p Page) Len() int { return len(p.Items) }

// Job is one fetch-and-persist unit. Jobs are built from a [PlaylistRef] and never mutated.
type Job struct {
	Token        AccessToken
	PlaylistID   string
	PlaylistName string
}

// NewJob creates a [Job] for ref.
func NewJob(token AccessToken, ref PlaylistRef) Job {
	return Job{Token: token, PlaylistID: ref.ID, PlaylistName: ref.Name}
}

func (j Job) String() string {
	return fmt.Sprintf("%s (%s)", j.PlaylistName, j.PlaylistID)
}

// Playlist is the exported document: a name and its songs in provider order.
type Playlist struct {
	Name  string `json:"name"`
	Songs []Song `json:"songs"`
}

// NewPlaylist creates an empty [Playlist]. Songs is non-nil so it encodes as [].
func NewPlaylist(name string, capacity int) *Playlist {
	return &Playlist{Name: name, Songs: make([]Song, 0, capacity)}
}

// Song is one track within an exported [Playlist].
type Song struct {
	Title       string   `json:"title"`
	Artist      []string `json:"artist"`
	Album       string   `json:"album"`
	AlbumArtURL string   `json:"album_art_url,omitempty"`
	DurationMS  int      `json:"duration_ms,omitempty"`
}

// ExportRun summarizes one pipeline run.
type ExportRun struct {
	ID         string     `json:"id"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	OutputDir  string     `json:"output_dir"`
	Pages      int        `json:"pages"`
	Succeeded  int        `json:"succeeded"`
	Failed     int        `json:"failed"`
	ListError  string     `json:"list_error,omitempty"`
}

// Total returns the number of playlists the run attempted.
func (r ExportRun) Total() int { return r.Succeeded + r.Failed }

// Finished reports whether the run recorded a finish time.
func (r ExportRun) Finished() bool { return r.FinishedAt != nil }

// ExportRecord is the outcome for one playlist within an [ExportRun].
type ExportRecord struct {
	RunID        string    `json:"run_id"`
	PlaylistID   string    `json:"playlist_id"`
	PlaylistName string    `json:"playlist_name"`
	Path         string    `json:"path,omitempty"`
	SongCount    int       `json:"song_count"`
	Error        string    `json:"error,omitempty"`
	RecordedAt   time.Time `json:"recorded_at"`
}

// OK reports whether the playlist was written.
func (r ExportRecord) OK() bool { return r.Error == "" }
