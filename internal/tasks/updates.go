package tasks

import (
	"fmt"

	"github.com/desertthunder/spotex/internal/models"
)

// ProgressUpdate represents a progress event during an export.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase, 0 when unknown
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Operation phase enumeration
type Phase int

const (
	FetchPlaylists Phase = iota
	ExportPlaylist
	PageComplete
	ExportFinished
)

func (p Phase) String() string {
	switch p {
	case FetchPlaylists:
		return "fetch_playlists"
	case ExportPlaylist:
		return "export_playlist"
	case PageComplete:
		return "page_complete"
	case ExportFinished:
		return "export_finished"
	default:
		return ""
	}
}

func fetchPageUpdate(page int, p models.Page) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPlaylists,
		Step:    page,
		Message: fmt.Sprintf("Page %d: %d playlists (offset %d)", page, p.Len(), p.Offset),
		Data:    p,
	}
}

func exportCompletedUpdate(step int, job models.Job, songs int, path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportPlaylist,
		Step:    step,
		Message: fmt.Sprintf("[%d] ✓ %s (%d songs)", step, job.PlaylistName, songs),
		Data:    path,
	}
}

func exportFailedUpdate(step int, job models.Job, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportPlaylist,
		Step:    step,
		Message: fmt.Sprintf("[%d] ✗ %s: %v", step, job.PlaylistName, err),
	}
}

func pageCompleteUpdate(page int, batch BatchResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PageComplete,
		Step:    page,
		Message: fmt.Sprintf("Page %d done: %d exported, %d failed", page, batch.Succeeded, batch.Failed),
		Data:    batch,
	}
}

func exportFinishedUpdate(result *ExportResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportFinished,
		Step:    result.Total(),
		Total:   result.Total(),
		Message: fmt.Sprintf("Exported %d of %d playlists across %d pages", result.Succeeded, result.Total(), result.Pages),
		Data:    result,
	}
}
