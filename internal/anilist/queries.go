package anilist

import (
	"context"
	"encoding/json"
	"fmt"

	"anisync/internal/shared"
)

const viewerQuery = `query {
  Viewer {
    id
    name
  }
}`

const userIDQuery = `query ($username: String) {
  User(name: $username) {
    id
  }
}`

// MEDIA_ID in the sort keeps page order stable; score alone reshuffles
// entries between pages mid-pagination.
const listQuery = `query ($userId: Int, $status_in: [MediaListStatus], $page: Int, $perPage: Int) {
  Page(page: $page, perPage: $perPage) {
    pageInfo {
      hasNextPage
    }
    mediaList(userId: $userId, type: ANIME, status_in: $status_in, sort: [SCORE_DESC, MEDIA_ID]) {
      id
      mediaId
      status
      score(format: POINT_100)
      progress
      startedAt {
        year
        month
        day
      }
      completedAt {
        year
        month
        day
      }
      notes
      hiddenFromStatusLists
      customLists
      media {
        title {
          romaji
          english
        }
      }
    }
  }
}`

// User identifies an AniList account.
type User struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Viewer returns the account the token belongs to.
func (c *Client) Viewer(ctx context.Context, token string) (*User, error) {
	data, err := c.Do(ctx, viewerQuery, nil, token)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Viewer *User `json:"Viewer"`
	}
	if err := json.Unmarshal(data, &resp); err != nil || resp.Viewer == nil {
		return nil, fmt.Errorf("%w: malformed viewer response", shared.ErrAPIRequest)
	}

	return resp.Viewer, nil
}

// UserIDByName resolves a username to its account id.
func (c *Client) UserIDByName(ctx context.Context, username string) (int, error) {
	data, err := c.Do(ctx, userIDQuery, map[string]any{"username": username}, "")
	if err != nil {
		return 0, err
	}

	var resp struct {
		User *User `json:"User"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return 0, fmt.Errorf("%w: malformed user response", shared.ErrAPIRequest)
	}
	if resp.User == nil {
		return 0, fmt.Errorf("%w: %s", shared.ErrUserNotFound, username)
	}

	return resp.User.ID, nil
}

// FetchList returns every list entry for userID whose status is one of
// statuses, fully depaginated. Statuses outside the given set are not
// requested at all.
//
// An empty token fetches unauthenticated, which succeeds for public lists.
func (c *Client) FetchList(ctx context.Context, userID int, statuses []Status, token string) ([]ListEntry, error) {
	if len(statuses) == 0 {
		return []ListEntry{}, nil
	}

	vars := map[string]any{
		"userId":    userID,
		"status_in": statuses,
	}

	rawEntries, err := c.FetchAll(ctx, listQuery, vars, 0, token)
	if err != nil {
		return nil, err
	}

	entries := make([]ListEntry, 0, len(rawEntries))
	for _, raw := range rawEntries {
		var entry ListEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			return nil, fmt.Errorf("%w: malformed list entry: %v", shared.ErrAPIRequest, err)
		}
		entries = append(entries, entry)
	}

	return entries, nil
}
