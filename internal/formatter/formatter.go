// package formatter provides functions to export widget inventories to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/desertthunder/beatify/internal/models"
	"github.com/desertthunder/beatify/internal/services"
)

// ExportToCSV converts a widget list to CSV format with columns: Sequence, Username, Platform, Name, Type, Token, Created
func ExportToCSV(widgets []*models.Widget) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Sequence", "Username", "Platform", "Name", "Type", "Token", "Created"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, widget := range widgets {
		record := []string{
			strconv.Itoa(widget.Sequence()),
			widget.Username(),
			widget.Platform(),
			widget.WidgetName(),
			widget.WidgetType(),
			widget.WidgetToken(),
			widget.CreatedAt().Format("2006-01-02"),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a widget list to a Markdown table
func ExportToMarkdown(widgets []*models.Widget) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Widgets\n\n")
	buf.WriteString(fmt.Sprintf("**Count**: %d\n\n", len(widgets)))

	buf.WriteString("| # | Username | Platform | Name | Type | Created |\n")
	buf.WriteString("|---|----------|----------|------|------|--------|\n")
	for _, widget := range widgets {
		buf.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %s | %s |\n",
			widget.Sequence(),
			widget.Username(),
			widget.Platform(),
			widget.WidgetName(),
			widget.WidgetType(),
			widget.CreatedAt().Format("2006-01-02")))
	}

	return buf.Bytes(), nil
}

// ExportToText converts a widget list to plain text format
func ExportToText(widgets []*models.Widget) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Widgets: %d\n\n", len(widgets)))

	for i, widget := range widgets {
		buf.WriteString(fmt.Sprintf("%d. %s (%s/%s)\n", i+1, widget.WidgetName(), widget.Username(), widget.Platform()))
		buf.WriteString(fmt.Sprintf("   Token: %s\n", widget.WidgetToken()))
	}

	return buf.Bytes(), nil
}

// WriteExport writes the formatted widget list to a file.
//
// Supported formats are "csv", "markdown", and "text"; the filename defaults
// to widgets.{ext} in the working directory.
func WriteExport(widgets []*models.Widget, format, path string) (string, error) {
	var data []byte
	var err error
	var ext string

	switch format {
	case "csv":
		data, err = ExportToCSV(widgets)
		ext = "csv"
	case "markdown":
		data, err = ExportToMarkdown(widgets)
		ext = "md"
	case "text":
		data, err = ExportToText(widgets)
		ext = "txt"
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
	if err != nil {
		return "", fmt.Errorf("failed to generate %s: %w", format, err)
	}

	if path == "" {
		path = "widgets." + ext
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return path, nil
}

// FormatNowPlaying renders a now-playing summary as terminal-friendly text.
func FormatNowPlaying(info *services.NowPlayingInfo) string {
	if info == nil || !info.IsPlaying {
		return "Nothing playing right now.\n"
	}

	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("▶ %s\n", info.Track))
	if len(info.Artists) > 0 {
		buf.WriteString(fmt.Sprintf("  Artists: %s\n", strings.Join(info.Artists, ", ")))
	}
	if info.Album != "" {
		buf.WriteString(fmt.Sprintf("  Album: %s\n", info.Album))
	}
	if info.DurationMS > 0 {
		buf.WriteString(fmt.Sprintf("  Position: %s / %s\n", formatMS(info.ProgressMS), formatMS(info.DurationMS)))
	}
	if info.TrackURL != "" {
		buf.WriteString(fmt.Sprintf("  Link: %s\n", info.TrackURL))
	}

	return buf.String()
}

func formatMS(ms int) string {
	seconds := ms / 1000
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
