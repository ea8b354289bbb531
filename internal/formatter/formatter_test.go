package formatter

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/beatify/internal/models"
	"github.com/desertthunder/beatify/internal/services"
)

func testWidgets() []*models.Widget {
	first := models.NewWidget(1, "alice", "tok-alice", "web")
	second := models.NewWidget(2, "bob", "tok-bob", "obs")
	second.SetWidgetName("stream overlay")
	return []*models.Widget{first, second}
}

func TestExportToCSV(t *testing.T) {
	data, err := ExportToCSV(testWidgets())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	out := string(data)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and 2 records, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "Sequence,Username") {
		t.Errorf("unexpected header: %s", lines[0])
	}
	if !strings.Contains(lines[1], "alice") || !strings.Contains(lines[1], "tok-alice") {
		t.Errorf("expected alice's widget in first record, got %s", lines[1])
	}
	if !strings.Contains(lines[2], "stream overlay") {
		t.Errorf("expected renamed widget in second record, got %s", lines[2])
	}
}

func TestExportToMarkdown(t *testing.T) {
	data, err := ExportToMarkdown(testWidgets())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	out := string(data)
	if !strings.Contains(out, "# Widgets") {
		t.Error("expected title heading")
	}
	if !strings.Contains(out, "**Count**: 2") {
		t.Error("expected widget count")
	}
	if !strings.Contains(out, "| 2 | bob | obs |") {
		t.Errorf("expected table row for bob, got:\n%s", out)
	}
}

func TestExportToText(t *testing.T) {
	data, err := ExportToText(testWidgets())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	out := string(data)
	if !strings.Contains(out, "Widgets: 2") {
		t.Error("expected widget count")
	}
	if !strings.Contains(out, "1. alice's widget (alice/web)") {
		t.Errorf("expected default widget name, got:\n%s", out)
	}
	if !strings.Contains(out, "Token: tok-bob") {
		t.Error("expected token line for bob")
	}
}

func TestWriteExport(t *testing.T) {
	t.Run("writes csv to requested path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.csv")

		written, err := WriteExport(testWidgets(), "csv", path)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if written != path {
			t.Errorf("expected path %s, got %s", path, written)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read exported file: %v", err)
		}
		if !strings.Contains(string(data), "alice") {
			t.Error("expected exported data to contain widget rows")
		}
	})

	t.Run("rejects unknown format", func(t *testing.T) {
		if _, err := WriteExport(testWidgets(), "yaml", ""); err == nil {
			t.Fatal("expected error for unsupported format")
		}
	})
}

func TestFormatNowPlaying(t *testing.T) {
	t.Run("renders playing track", func(t *testing.T) {
		out := FormatNowPlaying(&services.NowPlayingInfo{
			IsPlaying:  true,
			Track:      "Everything In Its Right Place",
			Artists:    []string{"Radiohead"},
			Album:      "Kid A",
			ProgressMS: 61000,
			DurationMS: 251000,
		})

		if !strings.Contains(out, "▶ Everything In Its Right Place") {
			t.Errorf("expected track line, got %q", out)
		}
		if !strings.Contains(out, "Artists: Radiohead") {
			t.Errorf("expected artist line, got %q", out)
		}
		if !strings.Contains(out, "Position: 1:01 / 4:11") {
			t.Errorf("expected position line, got %q", out)
		}
	})

	t.Run("renders idle state", func(t *testing.T) {
		out := FormatNowPlaying(&services.NowPlayingInfo{IsPlaying: false})
		if !strings.Contains(out, "Nothing playing") {
			t.Errorf("expected idle message, got %q", out)
		}
	})

	t.Run("handles nil info", func(t *testing.T) {
		out := FormatNowPlaying(nil)
		if !strings.Contains(out, "Nothing playing") {
			t.Errorf("expected idle message, got %q", out)
		}
	})
}
