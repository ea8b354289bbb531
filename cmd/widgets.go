package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/beatify/internal/formatter"
	"github.com/desertthunder/beatify/internal/repositories"
	"github.com/desertthunder/beatify/internal/shared"
	"github.com/desertthunder/beatify/internal/tokens"
	"github.com/urfave/cli/v3"
)

// WidgetsIssue issues (or fetches) the user's widget token for a platform and
// prints the embed URL.
func (r *Runner) WidgetsIssue(ctx context.Context, cmd *cli.Command) error {
	username := cmd.String("username")
	platform := cmd.String("platform")

	config := r.loadConfig(cmd)

	db, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer db.Close()

	issuer, err := tokens.NewIssuer(config,
		repositories.NewWidgetRepository(db),
		repositories.NewSpotifyAccountRepository(db))
	if err != nil {
		return fmt.Errorf("failed to create token issuer: %w", err)
	}

	token, err := issuer.GetOrCreate(username, platform)
	if errors.Is(err, shared.ErrNotLinked) {
		return fmt.Errorf("%s has no linked Spotify account, run 'beatify spotify link --username %s' first: %w", username, username, err)
	}
	if err != nil {
		return fmt.Errorf("failed to issue token: %w", err)
	}

	r.writePlain("✓ Widget token for %s (%s)\n\n", username, platform)
	r.writePlain("Token:     %s\n", token)
	r.writePlain("Embed URL: %s/widget/%s\n", strings.TrimRight(config.Server.BaseURL, "/"), token)

	return nil
}

// WidgetsInspect validates a token and prints the payload it resolves to.
func (r *Runner) WidgetsInspect(ctx context.Context, cmd *cli.Command) error {
	token := cmd.String("token")
	pretty := cmd.Bool("pretty")

	config := r.loadConfig(cmd)

	db, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer db.Close()

	issuer, err := tokens.NewIssuer(config,
		repositories.NewWidgetRepository(db),
		repositories.NewSpotifyAccountRepository(db))
	if err != nil {
		return fmt.Errorf("failed to create token issuer: %w", err)
	}

	payload, err := issuer.Validate(token)
	if err != nil {
		return fmt.Errorf("token validation failed: %w", err)
	}

	return r.writeJSON(payload, pretty)
}

// WidgetsList prints issued widgets in the requested format.
func (r *Runner) WidgetsList(ctx context.Context, cmd *cli.Command) error {
	username := cmd.String("username")
	format := cmd.String("format")
	outputFile := cmd.String("output")
	pretty := cmd.Bool("pretty")

	config := r.loadConfig(cmd)

	db, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer db.Close()

	widgets, err := repositories.NewWidgetRepository(db).List(map[string]any{"username": username})
	if err != nil {
		return fmt.Errorf("failed to list widgets: %w", err)
	}

	switch format {
	case "json":
		summaries := make([]map[string]any, 0, len(widgets))
		for _, widget := range widgets {
			widgetConfig, err := widget.Config()
			if err != nil {
				return fmt.Errorf("widget %s has malformed config: %w", widget.ID(), err)
			}
			summaries = append(summaries, map[string]any{
				"sequence": widget.Sequence(),
				"username": widget.Username(),
				"platform": widget.Platform(),
				"name":     widget.WidgetName(),
				"type":     widget.WidgetType(),
				"token":    widget.WidgetToken(),
				"config":   widgetConfig,
			})
		}
		return r.writeJSON(summaries, pretty)

	case "csv", "markdown", "text":
		if outputFile != "" {
			written, err := formatter.WriteExport(widgets, format, outputFile)
			if err != nil {
				return err
			}
			r.writePlain("✓ Widgets exported to %s\n", written)
			return nil
		}

		var data []byte
		switch format {
		case "csv":
			data, err = formatter.ExportToCSV(widgets)
		case "markdown":
			data, err = formatter.ExportToMarkdown(widgets)
		case "text":
			data, err = formatter.ExportToText(widgets)
		}
		if err != nil {
			return err
		}
		return r.writePlain("%s", data)

	case "table", "":
		r.writePlain("Found %d widgets:\n\n", len(widgets))
		for _, widget := range widgets {
			r.writePlain("%d. %s\n", widget.Sequence(), widget.WidgetName())
			r.writePlain("   Owner: %s (%s)\n", widget.Username(), widget.Platform())
			r.writePlain("   Type: %s\n", widget.WidgetType())
			r.writePlain("   Token: %s\n", widget.WidgetToken())
			r.writePlain("\n")
		}
		return nil

	default:
		return fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, format)
	}
}
