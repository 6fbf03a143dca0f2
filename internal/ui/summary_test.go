package ui

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/spotex/internal/models"
	"github.com/desertthunder/spotex/internal/tasks"
)

func TestExportSummary(t *testing.T) {
	tests := []struct {
		name   string
		result *tasks.ExportResult
		want   []string
	}{
		{
			name:   "Complete",
			result: &tasks.ExportResult{Pages: 3, Succeeded: 113, Duration: 2 * time.Second, RunID: "run-1"},
			want:   []string{"Export complete", "113", "run-1", "/out"},
		},
		{
			name:   "Failures",
			result: &tasks.ExportResult{Pages: 1, Succeeded: 4, Failed: 1},
			want:   []string{"finished with failures"},
		},
		{
			name:   "List Error",
			result: &tasks.ExportResult{Pages: 1, Succeeded: 50, ListError: errors.New("status 500")},
			want:   []string{"stopped early", "status 500"},
		},
		{
			name:   "Cancelled",
			result: &tasks.ExportResult{Cancelled: true},
			want:   []string{"cancelled"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := ExportSummary(tt.result, "/out")
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("expected %q in summary:\n%s", w, out)
				}
			}
		})
	}
}

func TestRunTable(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		if out := RunTable(nil); !strings.Contains(out, "No export runs") {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("Rows", func(t *testing.T) {
		finished := time.Now()
		runs := []*models.ExportRun{
			{ID: "run-a", StartedAt: time.Now(), FinishedAt: &finished, Pages: 2, Succeeded: 60},
			{ID: "run-b", StartedAt: time.Now()},
		}
		out := RunTable(runs)
		for _, w := range []string{"run-a", "run-b", "60/60 exported"} {
			if !strings.Contains(out, w) {
				t.Errorf("expected %q in table:\n%s", w, out)
			}
		}
	})
}

func TestRunDetail(t *testing.T) {
	run := &models.ExportRun{ID: "run-a", StartedAt: time.Now(), OutputDir: "/out", Succeeded: 1, Failed: 1}
	records := []models.ExportRecord{
		{PlaylistName: "Good", SongCount: 7, Path: "/out/Good.json"},
		{PlaylistName: "Bad", Error: "status 500"},
	}

	out := RunDetail(run, records)
	for _, w := range []string{"run-a", "not finished", "Good (7 songs)", "Bad: status 500"} {
		if !strings.Contains(out, w) {
			t.Errorf("expected %q in detail:\n%s", w, out)
		}
	}
}
