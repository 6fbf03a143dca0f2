package services

import (
	"context"
	"iter"

	"github.com/desertthunder/spotex/internal/models"
	"github.com/desertthunder/spotex/internal/shared"
)

// PageSource fetches a single page of playlists.
type PageSource interface {
	ListPlaylists(ctx context.Context, token models.AccessToken, limit, offset int) ([]models.PlaylistRef, error)
}

// PlaylistLister walks every page of an account's playlists.
type PlaylistLister struct {
	source PageSource
	limit  int
}

// NewPlaylistLister creates a lister requesting limit items per page (clamped to [1, MaxPageSize]).
func NewPlaylistLister(source PageSource, limit int) *PlaylistLister {
	return &PlaylistLister{source: source, limit: shared.Clamp(limit, MaxPageSize, 1, MaxPageSize)}
}

// Limit returns the page size requested from the source.
func (l *PlaylistLister) Limit() int { return l.limit }

// Pages returns the sequence of non-empty pages, ending at the first empty page.
//
// The offset advances by the number of items actually returned, so a short page before the end
// does not skip playlists. A failed request yields the error once and ends the sequence.
func (l *PlaylistLister) Pages(ctx context.Context, token models.AccessToken) iter.Seq2[models.Page, error] {
	return func(yield func(models.Page, error) bool) {
		offset := 0
		for {
			if err := ctx.Err(); err != nil {
				yield(models.Page{Offset: offset}, err)
				return
			}

			items, err := l.source.ListPlaylists(ctx, token, l.limit, offset)
			if err != nil {
				yield(models.Page{Offset: offset}, err)
				return
			}
			if len(items) == 0 {
				return
			}

			if !yield(models.Page{Offset: offset, Items: items}, nil) {
				return
			}
			offset += len(items)
		}
	}
}
