// Package anilist implements the AniList GraphQL API layer: a rate-limited transport, cursor-free depagination, and the list entry model.
//
// # Transport
//
// [Client.Do] posts one query/variables pair and returns the data payload.
//
// Two rate-limit mechanisms cooperate:
//
//  1. A token-bucket limiter paces requests below the server's per-minute
//     allowance before they are sent.
//  2. An HTTP 429 response triggers a blocking sleep (Retry-After plus a
//     one-second margin, or a short fixed interval when the header is
//     absent) and an unbounded resend loop. Rate limiting never surfaces
//     to callers.
//
// The client counts completed (non-429) requests; [Client.Requests] exposes
// the counter for operator reporting. Server-side GraphQL errors surface as
// [shared.ErrAPIRequest] with the server's messages verbatim and are never
// retried.
//
// # Depagination
//
// [Client.FetchAll] drives [Client.Do] across pages (page/perPage merged
// into the caller's variables, page size pinned to the server maximum) and
// concatenates items until hasNextPage is false or an optional cap is hit.
//
// Paged payloads arrive nested inside single-key wrapper objects. FetchAll
// descends until it reaches the object holding pageInfo, which must have
// exactly one sibling field carrying the items; any other shape is a
// [shared.ErrPageShape].
//
// # Entry Model
//
// [ListEntry] is the canonical form of one tracked-media record. Wire
// quirks are normalized during unmarshaling, notably customLists arriving
// as either a label→enabled map or a plain list. [ListEntry.Equal] and
// [ListEntry.DiffFields] define change detection for the sync engine;
// display metadata (media title) is excluded.
package anilist
