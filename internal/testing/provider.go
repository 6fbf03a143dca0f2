package testing

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/spotex/internal/models"
)

// ListCall records the query of one playlists listing request.
type ListCall struct {
	Limit  int
	Offset int
}

// FakeProvider is an httptest server speaking the subset of the Spotify API the exporter uses.
//
// Playlists holds the full catalog. PageSizes, when set, caps the number of items returned by the
// n-th listing request regardless of the requested limit, which simulates short pages.
type FakeProvider struct {
	Server *httptest.Server

	mu          sync.Mutex
	Playlists   []models.PlaylistRef
	PageSizes   []int
	Tracks      map[string][]models.Song
	FailTracks  map[string]int
	TrackDelay  time.Duration
	TokenStatus int
	TokenBody   string

	listCalls  []ListCall
	trackCalls map[string]int
	tokenForms []url.Values
	authHeader []string
}

// NewFakeProvider starts a fake provider that is closed when the test ends.
func NewFakeProvider(t *testing.T) *FakeProvider {
	t.Helper()

	p := &FakeProvider{
		Tracks:      map[string][]models.Song{},
		FailTracks:  map[string]int{},
		TokenStatus: http.StatusOK,
		TokenBody:   `{"access_token":"fake-access-token","token_type":"Bearer","expires_in":3600}`,
		trackCalls:  map[string]int{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/token", p.handleToken)
	mux.HandleFunc("GET /me/playlists", p.handleList)
	mux.HandleFunc("GET /users/{user}/playlists", p.handleList)
	mux.HandleFunc("GET /playlists/{id}/tracks", p.handleTracks)

	p.Server = httptest.NewServer(mux)
	t.Cleanup(p.Server.Close)
	return p
}

// URL returns the base URL of the fake provider.
func (p *FakeProvider) URL() string { return p.Server.URL }

// AddPlaylists appends n generated playlists ("pl-<i>" / "Playlist <i>") to the catalog,
// each with songs generated by [GenerateSongs].
func (p *FakeProvider) AddPlaylists(n, songs int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	start := len(p.Playlists)
	for i := start; i < start+n; i++ {
		ref := models.PlaylistRef{ID: fmt.Sprintf("pl-%d", i), Name: fmt.Sprintf("Playlist %d", i)}
		p.Playlists = append(p.Playlists, ref)
		p.Tracks[ref.ID] = GenerateSongs(ref.ID, songs)
	}
}

// ListCalls returns the listing requests received so far.
func (p *FakeProvider) ListCalls() []ListCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]ListCall(nil), p.listCalls...)
}

// TrackCalls returns how many times the tracks of id were requested.
func (p *FakeProvider) TrackCalls(id string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.trackCalls[id]
}

// TokenForms returns the form bodies posted to the token endpoint.
func (p *FakeProvider) TokenForms() []url.Values {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]url.Values(nil), p.tokenForms...)
}

// AuthHeaders returns the Authorization headers received by API endpoints.
func (p *FakeProvider) AuthHeaders() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.authHeader...)
}

func (p *FakeProvider) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	p.mu.Lock()
	p.tokenForms = append(p.tokenForms, r.PostForm)
	status, body := p.TokenStatus, p.TokenBody
	p.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprint(w, body)
}

func (p *FakeProvider) handleList(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	p.mu.Lock()
	call := len(p.listCalls)
	p.listCalls = append(p.listCalls, ListCall{Limit: limit, Offset: offset})
	p.authHeader = append(p.authHeader, r.Header.Get("Authorization"))

	size := limit
	if call < len(p.PageSizes) {
		size = p.PageSizes[call]
	}
	end := min(offset+size, len(p.Playlists))
	var page []models.PlaylistRef
	if offset < end {
		page = append(page, p.Playlists[offset:end]...)
	}
	p.mu.Unlock()

	items := make([]map[string]any, 0, len(page))
	for _, ref := range page {
		items = append(items, map[string]any{"id": ref.ID, "name": ref.Name, "public": true})
	}

	writeJSON(w, map[string]any{
		"items":  items,
		"limit":  limit,
		"offset": offset,
		"total":  len(p.Playlists),
	})
}

func (p *FakeProvider) handleTracks(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	p.mu.Lock()
	p.trackCalls[id]++
	p.authHeader = append(p.authHeader, r.Header.Get("Authorization"))
	status, fail := p.FailTracks[id]
	songs, ok := p.Tracks[id]
	delay := p.TrackDelay
	p.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}

	if fail {
		http.Error(w, "upstream failure", status)
		return
	}
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	items := make([]map[string]any, 0, len(songs))
	for _, s := range songs {
		artists := make([]map[string]any, 0, len(s.Artist))
		for _, a := range s.Artist {
			artists = append(artists, map[string]any{"name": a})
		}
		album := map[string]any{"name": s.Album, "images": []map[string]any{}}
		if s.AlbumArtURL != "" {
			album["images"] = []map[string]any{{"url": s.AlbumArtURL, "height": 640, "width": 640}}
		}
		items = append(items, map[string]any{
			"added_at": "2024-01-01T00:00:00Z",
			"track": map[string]any{
				"name":        s.Title,
				"artists":     artists,
				"album":       album,
				"duration_ms": s.DurationMS,
			},
		})
	}

	writeJSON(w, map[string]any{"items": items, "total": len(items)})
}

// GenerateSongs returns n deterministic songs for a playlist.
func GenerateSongs(prefix string, n int) []models.Song {
	songs := make([]models.Song, 0, n)
	for i := range n {
		songs = append(songs, models.Song{
			Title:       fmt.Sprintf("%s song %02d", prefix, i),
			Artist:      []string{fmt.Sprintf("Artist %d", i%3), "Featured"},
			Album:       fmt.Sprintf("Album %d", i%2),
			AlbumArtURL: fmt.Sprintf("https://img.example/%s/%d.jpg", prefix, i),
			DurationMS:  180000 + i,
		})
	}
	return songs
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
