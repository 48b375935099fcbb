// package sync implements list mirroring between two AniList accounts.
//
// The core abstraction is Engine, which fetches both users' lists, computes
// the writes needed to make the destination reflect the source under a
// status-remapping and protection policy, and routes every write through a
// [confirm.Confirmer]. Operations emit progress updates via channels for
// non-blocking status reporting to CLI/UI layers.
package sync

import (
	"context"
	"fmt"
	"sort"

	"anisync/internal/anilist"
	"anisync/internal/confirm"
	"anisync/internal/shared"
)

// API is the subset of [anilist.Client] the engine uses.
type API interface {
	UserIDByName(ctx context.Context, username string) (int, error)
	FetchList(ctx context.Context, userID int, statuses []anilist.Status, token string) ([]anilist.ListEntry, error)
	SaveEntry(ctx context.Context, entry anilist.ListEntry, token string) (int, error)
	DeleteEntry(ctx context.Context, entryID int, token string) error
	Requests() int64
}

// TokenSource yields a bearer token for a username's account.
type TokenSource interface {
	Token(ctx context.Context, username string) (string, error)
}

// Summary tallies the writes one mirror run performed.
type Summary struct {
	Created  int   // entries added to the destination list
	Updated  int   // entries modified in place
	Deleted  int   // entries removed
	Skipped  int   // operations declined at the prompt
	Requests int64 // API requests the run issued
}

// Options configures one mirror run.
type Options struct {
	// StatusMap rewrites each source status before comparison; source
	// entries whose status is not a key are not fetched at all. Empty means
	// identity over every status.
	StatusMap map[anilist.Status]anilist.Status

	// Protected lists destination statuses whose entries are never touched.
	Protected []anilist.Status

	// DeleteUnmapped removes destination entries whose media never appeared
	// in the mapped source fetch.
	DeleteUnmapped bool

	// Hook, when set, transforms each pending operation.
	Hook Hook

	// Confirmer gates every write. Nil applies everything.
	Confirmer confirm.Confirmer

	// DryRun tallies and reports operations without issuing any write.
	DryRun bool

	// Audit, when set, receives every applied write. Dry runs leave it
	// untouched.
	Audit *Audit
}

// Engine mirrors one AniList user's list onto another.
type Engine struct {
	api    API
	tokens TokenSource
}

// NewEngine creates an Engine backed by the given API client and credential
// source.
func NewEngine(api API, tokens TokenSource) *Engine {
	return &Engine{api: api, tokens: tokens}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *Engine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}

func (e *Engine) token(ctx context.Context, username string) (string, error) {
	if e.tokens == nil {
		return "", fmt.Errorf("%w: no credential source", shared.ErrNotAuthenticated)
	}

	return e.tokens.Token(ctx, username)
}

// apply routes one operation through the confirmer and performs the write
// when approved. Skipped operations are tallied and the run continues.
func (e *Engine) apply(ctx context.Context, op confirm.Op, opts Options, token string, summary *Summary) error {
	ok, err := opts.Confirmer.Confirm(op)
	if err != nil {
		return err
	}
	if !ok {
		summary.Skipped++
		return nil
	}

	// The audit log records applied writes only, so a dry run never touches it.
	if opts.Audit != nil && !opts.DryRun {
		opts.Audit.Record(op)
	}

	if !opts.DryRun {
		switch op.Kind() {
		case confirm.KindDelete:
			err = e.api.DeleteEntry(ctx, op.Old.ID, token)
		default:
			_, err = e.api.SaveEntry(ctx, *op.New, token)
		}
		if err != nil {
			return fmt.Errorf("%w: %s for media %d (%s): %v", shared.ErrSyncFailed, op.Kind(), op.MediaID(), op.Title(), err)
		}
	}

	switch op.Kind() {
	case confirm.KindCreate:
		summary.Created++
	case confirm.KindUpdate:
		summary.Updated++
	case confirm.KindDelete:
		summary.Deleted++
	}

	return nil
}

// Run mirrors sourceUser's list onto destUser's. All reads complete before
// the first write: a create/update pass walks the mapped source entries,
// then a delete pass walks destination entries whose media the source fetch
// never produced. The returned Summary is never nil; on an aborted or failed
// run it tallies the writes that landed before the stop.
func (e *Engine) Run(ctx context.Context, sourceUser, destUser string, opts Options, progress chan<- ProgressUpdate) (*Summary, error) {
	summary := &Summary{}

	if e.api == nil {
		return summary, fmt.Errorf("%w: API client not initialized", shared.ErrServiceUnavailable)
	}
	if opts.Confirmer == nil {
		opts.Confirmer = confirm.AutoApprove{}
	}

	start := e.api.Requests()
	defer func() { summary.Requests = e.api.Requests() - start }()

	statusMap := opts.StatusMap
	if len(statusMap) == 0 {
		statusMap = make(map[anilist.Status]anilist.Status, len(anilist.AllStatuses))
		for _, s := range anilist.AllStatuses {
			statusMap[s] = s
		}
	}

	protected := make(map[anilist.Status]bool, len(opts.Protected))
	for _, s := range opts.Protected {
		protected[s] = true
	}

	// Writes need the destination account's token up front. A dry run
	// settles for an unauthenticated destination fetch.
	destToken, err := e.token(ctx, destUser)
	if err != nil && !opts.DryRun {
		return summary, fmt.Errorf("%w: no token for %s: %v", shared.ErrNotAuthenticated, destUser, err)
	}

	// Source reads fall back to unauthenticated.
	sourceToken, _ := e.token(ctx, sourceUser)

	e.sendProgress(progress, resolveUsersUpdate(sourceUser, destUser))

	sourceID, err := e.api.UserIDByName(ctx, sourceUser)
	if err != nil {
		return summary, err
	}
	destID, err := e.api.UserIDByName(ctx, destUser)
	if err != nil {
		return summary, err
	}

	domain := make([]anilist.Status, 0, len(statusMap))
	for s := range statusMap {
		domain = append(domain, s)
	}
	sort.Slice(domain, func(i, j int) bool { return domain[i] < domain[j] })

	e.sendProgress(progress, fetchSourceUpdate(sourceUser))
	sourceList, err := e.api.FetchList(ctx, sourceID, domain, sourceToken)
	if err != nil {
		return summary, fmt.Errorf("failed to fetch %s's list: %w", sourceUser, err)
	}

	e.sendProgress(progress, fetchDestUpdate(destUser))
	destList, err := e.api.FetchList(ctx, destID, anilist.AllStatuses, destToken)
	if err != nil {
		return summary, fmt.Errorf("failed to fetch %s's list: %w", destUser, err)
	}

	// Media present in the mapped source fetch, whether or not its entry
	// ends up written. The delete pass spares these.
	mappedIDs := make(map[int]bool, len(sourceList))
	for _, s := range sourceList {
		if mappedIDs[s.MediaID] {
			return summary, fmt.Errorf("%w: media %d appears twice in %s's list", shared.ErrDuplicateMedia, s.MediaID, sourceUser)
		}
		mappedIDs[s.MediaID] = true
	}

	destByMedia := make(map[int]anilist.ListEntry, len(destList))
	for _, d := range destList {
		if _, dup := destByMedia[d.MediaID]; dup {
			return summary, fmt.Errorf("%w: media %d appears twice in %s's list", shared.ErrDuplicateMedia, d.MediaID, destUser)
		}
		destByMedia[d.MediaID] = d
	}

	for i, source := range sourceList {
		e.sendProgress(progress, processUpdate(i+1, len(sourceList), source.DisplayTitle()))

		mapped, ok := statusMap[source.Status]
		if !ok {
			continue
		}
		source.Status = mapped

		dest, exists := destByMedia[source.MediaID]
		if !exists {
			candidate := source
			if opts.Hook != nil {
				out := opts.Hook(&candidate, nil)
				if out.entry == nil {
					continue
				}
				candidate = *out.entry
			}

			candidate.ID = 0 // the server assigns entry ids on create
			if err := e.apply(ctx, confirm.Op{New: &candidate}, opts, destToken, summary); err != nil {
				return summary, err
			}
			continue
		}

		// Destination protection outranks everything, including the hook.
		if protected[dest.Status] {
			continue
		}

		candidate := source
		if opts.Hook != nil {
			out := opts.Hook(&candidate, &dest)
			if out.entry == nil {
				if err := e.apply(ctx, confirm.Op{Old: &dest}, opts, destToken, summary); err != nil {
					return summary, err
				}
				continue
			}
			candidate = *out.entry
		}

		// Carrying the destination's entry id over makes a true no-op
		// compare equal and routes the update at the right entry.
		candidate.ID = dest.ID
		if candidate.Equal(dest) {
			continue
		}

		if err := e.apply(ctx, confirm.Op{Old: &dest, New: &candidate}, opts, destToken, summary); err != nil {
			return summary, err
		}
	}

	if opts.DeleteUnmapped {
		for i, dest := range destList {
			if mappedIDs[dest.MediaID] || protected[dest.Status] {
				continue
			}

			e.sendProgress(progress, deletePassUpdate(i+1, len(destList), dest.DisplayTitle()))

			if opts.Hook != nil {
				if out := opts.Hook(nil, &dest); out.entry != nil {
					rescued := *out.entry
					rescued.ID = dest.ID
					if rescued.Equal(dest) {
						continue
					}
					if err := e.apply(ctx, confirm.Op{Old: &dest, New: &rescued}, opts, destToken, summary); err != nil {
						return summary, err
					}
					continue
				}
			}

			if err := e.apply(ctx, confirm.Op{Old: &dest}, opts, destToken, summary); err != nil {
				return summary, err
			}
		}
	}

	summary.Requests = e.api.Requests() - start
	e.sendProgress(progress, doneUpdate(summary))

	return summary, nil
}
