package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"anisync/internal/anilist"
	"anisync/internal/auth"
	"anisync/internal/confirm"
	"anisync/internal/shared"
	"anisync/internal/sync"
	"anisync/internal/ui"
)

// Sync mirrors one account's list onto another.
func (r *Runner) Sync(ctx context.Context, cmd *cli.Command) error {
	sourceUser := cmd.String("source")
	destUser := cmd.String("dest")

	opts, err := r.syncOptions(cmd)
	if err != nil {
		return err
	}

	logger := shared.WithLogger(r.logger, "source", sourceUser, "dest", destUser)
	logger.Info("starting sync", "delete_unmapped", opts.DeleteUnmapped, "dry_run", opts.DryRun)

	userCache := r.openCache("user_ids")
	defer func() {
		if err := userCache.Close(); err != nil {
			logger.Warnf("failed to flush user id cache: %v", err)
		}
	}()

	// Dry runs never write, so they settle for stored tokens and skip the
	// interactive OAuth exchange entirely.
	var flow auth.Flow
	if !opts.DryRun {
		flow = r.authFlow(cmd.Bool("manual"))
	}
	tokens, err := r.tokenManager(flow)
	if err != nil {
		return err
	}

	engine := sync.NewEngine(newCachedAPI(r.client, userCache, r.userIDMaxAge()), tokens)

	path := cmd.String("audit")
	if path == "" {
		path = r.config.Sync.AuditPath
	}
	// The audit log records applied writes, so a dry run skips it entirely.
	if path != "" && !opts.DryRun {
		audit, err := sync.OpenAudit(path, sourceUser, destUser)
		if err != nil {
			return err
		}
		opts.Audit = audit
	}

	var summary *sync.Summary
	var runErr error

	if cmd.Bool("tui") {
		summary, runErr = ui.Run(ctx, engine, sourceUser, destUser, opts)
	} else {
		summary, runErr = r.runSync(ctx, engine, sourceUser, destUser, opts)
	}

	if opts.Audit != nil {
		tallies := summary
		if tallies == nil {
			tallies = &sync.Summary{}
		}
		if err := opts.Audit.Finish(tallies); err != nil {
			logger.Warnf("audit log incomplete: %v", err)
		}
	}

	if runErr != nil {
		return runErr
	}
	if summary == nil {
		// The operator backed out of the TUI before the run started.
		return r.writePlain("Sync canceled.\n")
	}

	header := "Sync Complete!"
	if opts.DryRun {
		header = "Dry Run Complete (nothing was written)"
	}

	r.writePlain("\n")
	r.writePlainHeader(header)
	r.writePlain("Created: %d\n", summary.Created)
	r.writePlain("Updated: %d\n", summary.Updated)
	r.writePlain("Deleted: %d\n", summary.Deleted)
	r.writePlain("Skipped: %d\n", summary.Skipped)
	r.writePlain("Requests: %d\n", summary.Requests)

	return nil
}

// runSync drives the engine in plain terminal mode: fetch phases print as
// they happen, per-entry progress goes to the debug log, and confirmations
// come through a line prompt.
func (r *Runner) runSync(ctx context.Context, engine *sync.Engine, sourceUser, destUser string, opts sync.Options) (*sync.Summary, error) {
	progressCh := make(chan sync.ProgressUpdate, 50)
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for update := range progressCh {
			switch update.Phase {
			case sync.ResolveUsers, sync.FetchSource, sync.FetchDest:
				r.writePlain("📥 %s\n", update.Message)
			default:
				r.logger.Debug(update.Message)
			}
		}
	}()

	summary, err := engine.Run(ctx, sourceUser, destUser, opts, progressCh)
	close(progressCh)
	<-drained

	return summary, err
}

// syncOptions builds the run policy from the config file overlaid with the
// command's flags.
func (r *Runner) syncOptions(cmd *cli.Command) (sync.Options, error) {
	statusMap, err := parseStatusMap(cmd.StringSlice("map"), r.config.Sync.StatusMap)
	if err != nil {
		return sync.Options{}, err
	}

	protectedNames := r.config.Sync.Protected
	if cmd.IsSet("protected") {
		protectedNames = cmd.StringSlice("protected")
	}
	protected, err := parseStatuses(protectedNames)
	if err != nil {
		return sync.Options{}, err
	}

	deleteUnmapped := r.config.Sync.DeleteUnmapped
	if cmd.IsSet("delete-unmapped") {
		deleteUnmapped = cmd.Bool("delete-unmapped")
	}

	force := r.config.Sync.Force || cmd.Bool("force")

	var confirmer confirm.Confirmer
	if force {
		confirmer = confirm.AutoApprove{}
	} else if !cmd.Bool("tui") {
		confirmer = confirm.NewInteractive(confirm.LinePrompt(r.input, r.output), r.output)
	}

	return sync.Options{
		StatusMap:      statusMap,
		Protected:      protected,
		DeleteUnmapped: deleteUnmapped,
		DryRun:         cmd.Bool("dry-run"),
		Confirmer:      confirmer,
	}, nil
}

// parseStatusMap builds the status remapping from FROM=TO flag pairs,
// falling back to the config table when no pairs were given. An empty result
// leaves the engine on its identity default.
func parseStatusMap(pairs []string, fallback map[string]string) (map[anilist.Status]anilist.Status, error) {
	raw := make(map[string]string, len(pairs))
	if len(pairs) > 0 {
		for _, pair := range pairs {
			from, to, found := strings.Cut(pair, "=")
			if !found {
				return nil, fmt.Errorf("%w: --map wants FROM=TO, got %q", shared.ErrInvalidFlag, pair)
			}
			raw[from] = to
		}
	} else {
		raw = fallback
	}

	statusMap := make(map[anilist.Status]anilist.Status, len(raw))
	for from, to := range raw {
		f, err := anilist.ParseStatus(from)
		if err != nil {
			return nil, err
		}
		t, err := anilist.ParseStatus(to)
		if err != nil {
			return nil, err
		}
		statusMap[f] = t
	}

	return statusMap, nil
}

func parseStatuses(names []string) ([]anilist.Status, error) {
	statuses := make([]anilist.Status, 0, len(names))
	for _, name := range names {
		s, err := anilist.ParseStatus(name)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, s)
	}

	return statuses, nil
}

// syncCommand handles list mirroring between two accounts
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Mirror a source user's list onto a destination account",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "source",
				Usage:    "Source AniList username",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "dest",
				Usage:    "Destination AniList username",
				Required: true,
			},
			&cli.StringSliceFlag{
				Name:  "map",
				Usage: "Status remap as FROM=TO (repeatable); overrides the config table",
			},
			&cli.StringSliceFlag{
				Name:  "protected",
				Usage: "Destination statuses the sync must never touch",
			},
			&cli.BoolFlag{
				Name:  "delete-unmapped",
				Usage: "Delete destination entries whose media is absent from the mapped source list",
			},
			&cli.BoolFlag{
				Name:    "force",
				Aliases: []string{"f"},
				Usage:   "Apply every change without prompting",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Compute and report changes without writing any",
			},
			&cli.BoolFlag{
				Name:  "tui",
				Usage: "Run in the interactive terminal UI",
			},
			&cli.StringFlag{
				Name:  "audit",
				Usage: "Append applied changes to this log file",
			},
			&cli.BoolFlag{
				Name:  "manual",
				Usage: "Authorize by pasting the redirect URL instead of a localhost callback",
			},
		},
		Action: r.Sync,
	}
}
