package anilist

import (
	"context"
	"encoding/json"
	"fmt"

	"anisync/internal/shared"
)

// scoreRaw keeps writes on the 0-100 scale no matter what display format
// the account is set to.
const saveEntryMutation = `mutation ($id: Int, $mediaId: Int, $status: MediaListStatus, $score: Int, $progress: Int, $startedAt: FuzzyDateInput, $completedAt: FuzzyDateInput, $notes: String, $hidden: Boolean, $customLists: [String]) {
  SaveMediaListEntry(id: $id, mediaId: $mediaId, status: $status, scoreRaw: $score, progress: $progress, startedAt: $startedAt, completedAt: $completedAt, notes: $notes, hiddenFromStatusLists: $hidden, customLists: $customLists) {
    id
  }
}`

const deleteEntryMutation = `mutation ($id: Int) {
  DeleteMediaListEntry(id: $id) {
    deleted
  }
}`

// SaveEntry writes entry to the authenticated account, creating it when
// entry.ID is zero and updating the existing entry otherwise. Returns the
// entry id the server assigned.
func (c *Client) SaveEntry(ctx context.Context, entry ListEntry, token string) (int, error) {
	if token == "" {
		return 0, fmt.Errorf("%w: list writes require a token", shared.ErrNotAuthenticated)
	}

	vars := map[string]any{
		"mediaId":     entry.MediaID,
		"status":      entry.Status,
		"score":       entry.Score,
		"progress":    entry.Progress,
		"startedAt":   entry.StartedAt,
		"completedAt": entry.CompletedAt,
		"notes":       entry.Notes,
		"hidden":      entry.Hidden,
		"customLists": entry.CustomLists,
	}
	if entry.ID != 0 {
		vars["id"] = entry.ID
	}

	data, err := c.Do(ctx, saveEntryMutation, vars, token)
	if err != nil {
		return 0, err
	}

	var resp struct {
		Saved struct {
			ID int `json:"id"`
		} `json:"SaveMediaListEntry"`
	}
	if err := json.Unmarshal(data, &resp); err != nil || resp.Saved.ID == 0 {
		return 0, fmt.Errorf("%w: server did not confirm save for media %d", shared.ErrAPIRequest, entry.MediaID)
	}

	return resp.Saved.ID, nil
}

// DeleteEntry removes a list entry by its entry id.
//
// The server reports deletion with a flag rather than an error; a false
// flag is treated as a failed write.
func (c *Client) DeleteEntry(ctx context.Context, entryID int, token string) error {
	if token == "" {
		return fmt.Errorf("%w: list writes require a token", shared.ErrNotAuthenticated)
	}

	data, err := c.Do(ctx, deleteEntryMutation, map[string]any{"id": entryID}, token)
	if err != nil {
		return err
	}

	var resp struct {
		Result struct {
			Deleted bool `json:"deleted"`
		} `json:"DeleteMediaListEntry"`
	}
	if err := json.Unmarshal(data, &resp); err != nil || !resp.Result.Deleted {
		return fmt.Errorf("%w: server did not confirm deletion of entry %d", shared.ErrAPIRequest, entryID)
	}

	return nil
}
