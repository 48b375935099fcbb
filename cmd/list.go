package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"anisync/internal/anilist"
	"anisync/internal/formatter"
	"anisync/internal/shared"
)

// List fetches a user's full list and renders or exports it.
func (r *Runner) List(ctx context.Context, cmd *cli.Command) error {
	username := cmd.String("user")
	format := cmd.String("format")
	output := cmd.String("output")

	statuses := anilist.AllStatuses
	if cmd.IsSet("status") {
		parsed, err := parseStatuses(cmd.StringSlice("status"))
		if err != nil {
			return err
		}
		statuses = parsed
	}

	userCache := r.openCache("user_ids")
	defer func() {
		if err := userCache.Close(); err != nil {
			r.logger.Warnf("failed to flush user id cache: %v", err)
		}
	}()
	api := newCachedAPI(r.client, userCache, r.userIDMaxAge())

	userID, err := api.UserIDByName(ctx, username)
	if err != nil {
		return err
	}

	// Public lists fetch fine unauthenticated; a stored token just adds the
	// user's private entries. No verification round-trip for a read.
	var token string
	if store, err := r.tokenStore(); err == nil {
		token, _ = store.Token(username)
	}

	r.logger.Info("fetching list", "user", username, "id", userID, "statuses", len(statuses))

	entries, err := api.FetchList(ctx, userID, statuses, token)
	if err != nil {
		return err
	}

	export := &formatter.Export{User: username, Entries: entries}

	if output == "" && !cmd.Bool("save") {
		return r.renderList(export, format)
	}

	return r.exportList(export, format, output)
}

func (r *Runner) renderList(export *formatter.Export, format string) error {
	var data []byte
	var err error

	switch format {
	case "csv":
		data, err = formatter.ExportToCSV(export)
	case "markdown", "md":
		data, err = formatter.ExportToMarkdown(export)
	case "text", "txt":
		data, err = formatter.ExportToText(export)
	case "json":
		data, err = formatter.ExportToJSON(export)
	default:
		return fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, format)
	}
	if err != nil {
		return err
	}

	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	return nil
}

func (r *Runner) exportList(export *formatter.Export, format, output string) error {
	switch format {
	case "csv":
		result, err := formatter.WriteCSVExport(export, output)
		if err != nil {
			return err
		}
		r.writePlain("✓ List written to %s\n", result.ListFile)
		r.writePlain("✓ Stats written to %s\n", result.StatsFile)
		return nil
	case "markdown", "md":
		path, err := formatter.WriteMarkdownExport(export, output)
		if err != nil {
			return err
		}
		return r.writePlain("✓ List written to %s\n", path)
	case "text", "txt":
		path, err := formatter.WriteTextExport(export, output)
		if err != nil {
			return err
		}
		return r.writePlain("✓ List written to %s\n", path)
	case "json":
		path, err := formatter.WriteJSONExport(export, output)
		if err != nil {
			return err
		}
		return r.writePlain("✓ List written to %s\n", path)
	default:
		return fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, format)
	}
}
