package anilist

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"anisync/internal/shared"
)

// Status is a watch/read state on a media list.
type Status string

const (
	StatusCurrent   Status = "CURRENT"
	StatusCompleted Status = "COMPLETED"
	StatusPaused    Status = "PAUSED"
	StatusDropped   Status = "DROPPED"
	StatusPlanning  Status = "PLANNING"
	StatusRepeating Status = "REPEATING"
)

// AllStatuses lists every list status the API defines.
var AllStatuses = []Status{
	StatusCurrent,
	StatusCompleted,
	StatusPaused,
	StatusDropped,
	StatusPlanning,
	StatusRepeating,
}

// ParseStatus upper-cases and validates user-supplied status text.
func ParseStatus(s string) (Status, error) {
	status := Status(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range AllStatuses {
		if status == known {
			return status, nil
		}
	}
	return "", fmt.Errorf("%w: unknown status %q", shared.ErrInvalidArgument, s)
}

// FuzzyDate is a calendar date whose year, month, and day are each optional.
// A date carrying only a year is valid.
type FuzzyDate struct {
	Year  *int `json:"year"`
	Month *int `json:"month"`
	Day   *int `json:"day"`
}

// IsZero reports whether no part of the date is set.
func (d FuzzyDate) IsZero() bool {
	return d.Year == nil && d.Month == nil && d.Day == nil
}

// Equal reports part-wise equality.
func (d FuzzyDate) Equal(o FuzzyDate) bool {
	return equalIntPtr(d.Year, o.Year) && equalIntPtr(d.Month, o.Month) && equalIntPtr(d.Day, o.Day)
}

// String renders the date with ? placeholders for missing parts, or "unset"
// when nothing is set.
func (d FuzzyDate) String() string {
	if d.IsZero() {
		return "unset"
	}

	year, month, day := "????", "??", "??"
	if d.Year != nil {
		year = fmt.Sprintf("%04d", *d.Year)
	}
	if d.Month != nil {
		month = fmt.Sprintf("%02d", *d.Month)
	}
	if d.Day != nil {
		day = fmt.Sprintf("%02d", *d.Day)
	}

	return year + "-" + month + "-" + day
}

// CustomLists is the set of custom list labels an entry is enabled on.
//
// The API returns either a label→enabled map or a plain list of labels
// depending on the query; both normalize to a sorted slice of enabled
// labels, and the set always marshals back as a list.
type CustomLists []string

// UnmarshalJSON normalizes the two wire shapes (and null) into the sorted
// enabled-label form.
func (c *CustomLists) UnmarshalJSON(data []byte) error {
	var asMap map[string]bool
	if err := json.Unmarshal(data, &asMap); err == nil {
		labels := make([]string, 0, len(asMap))
		for label, enabled := range asMap {
			if enabled {
				labels = append(labels, label)
			}
		}
		sort.Strings(labels)
		*c = labels
		return nil
	}

	var asList []string
	if err := json.Unmarshal(data, &asList); err != nil {
		return fmt.Errorf("customLists is neither a label map nor a list: %w", err)
	}
	sort.Strings(asList)
	*c = asList
	return nil
}

// MarshalJSON always emits a list. A nil set marshals as [] rather than
// null, since null tells the save mutation to leave custom lists unchanged.
func (c CustomLists) MarshalJSON() ([]byte, error) {
	if c == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(c))
}

// Equal reports whether both sets contain the same labels, independent of order.
func (c CustomLists) Equal(o CustomLists) bool {
	if len(c) != len(o) {
		return false
	}
	seen := make(map[string]int, len(c))
	for _, label := range c {
		seen[label]++
	}
	for _, label := range o {
		if seen[label] == 0 {
			return false
		}
		seen[label]--
	}
	return true
}

// MediaTitle holds the romaji and english display titles.
type MediaTitle struct {
	Romaji  string `json:"romaji"`
	English string `json:"english"`
}

// Media carries display metadata for an entry. Never part of equality.
type Media struct {
	Title MediaTitle `json:"title"`
}

// ListEntry is one user's tracked record for one media, in canonical form.
//
// ID is the list entry's own identifier on whichever account it was fetched
// from; it exists only once the account has created the entry and is never
// fabricated locally. MediaID is the stable join key across accounts.
type ListEntry struct {
	ID          int         `json:"id,omitempty"`
	MediaID     int         `json:"mediaId"`
	Status      Status      `json:"status"`
	Score       *int        `json:"score"`
	Progress    int         `json:"progress"`
	StartedAt   FuzzyDate   `json:"startedAt"`
	CompletedAt FuzzyDate   `json:"completedAt"`
	Notes       *string     `json:"notes"`
	Hidden      bool        `json:"hiddenFromStatusLists"`
	CustomLists CustomLists `json:"customLists"`
	Media       *Media      `json:"media,omitempty"`
}

// DisplayTitle returns the english title, falling back to romaji, then to
// the media id.
func (e ListEntry) DisplayTitle() string {
	if e.Media != nil {
		if e.Media.Title.English != "" {
			return e.Media.Title.English
		}
		if e.Media.Title.Romaji != "" {
			return e.Media.Title.Romaji
		}
	}
	return fmt.Sprintf("media %d", e.MediaID)
}

// Equal reports field-wise equality over every field except display metadata.
//
// ID participates: callers comparing a source candidate against a
// destination entry assign the destination's ID onto the candidate first, so
// a true no-op compares equal.
func (e ListEntry) Equal(o ListEntry) bool {
	return len(e.DiffFields(o)) == 0
}

// DiffFields returns the names of fields that differ, excluding display
// metadata, in declaration order.
func (e ListEntry) DiffFields(o ListEntry) []string {
	var diff []string

	if e.ID != o.ID {
		diff = append(diff, "id")
	}
	if e.MediaID != o.MediaID {
		diff = append(diff, "mediaId")
	}
	if e.Status != o.Status {
		diff = append(diff, "status")
	}
	if !equalIntPtr(e.Score, o.Score) {
		diff = append(diff, "score")
	}
	if e.Progress != o.Progress {
		diff = append(diff, "progress")
	}
	if !e.StartedAt.Equal(o.StartedAt) {
		diff = append(diff, "startedAt")
	}
	if !e.CompletedAt.Equal(o.CompletedAt) {
		diff = append(diff, "completedAt")
	}
	if !equalStrPtr(e.Notes, o.Notes) {
		diff = append(diff, "notes")
	}
	if e.Hidden != o.Hidden {
		diff = append(diff, "hiddenFromStatusLists")
	}
	if !e.CustomLists.Equal(o.CustomLists) {
		diff = append(diff, "customLists")
	}

	return diff
}

// FieldValue renders the named diff field for display, using "null" for
// absent optionals the way the API does.
func (e ListEntry) FieldValue(name string) string {
	switch name {
	case "id":
		return strconv.Itoa(e.ID)
	case "mediaId":
		return strconv.Itoa(e.MediaID)
	case "status":
		return string(e.Status)
	case "score":
		if e.Score == nil {
			return "null"
		}
		return strconv.Itoa(*e.Score)
	case "progress":
		return strconv.Itoa(e.Progress)
	case "startedAt":
		return e.StartedAt.String()
	case "completedAt":
		return e.CompletedAt.String()
	case "notes":
		if e.Notes == nil {
			return "null"
		}
		return strconv.Quote(*e.Notes)
	case "hiddenFromStatusLists":
		return strconv.FormatBool(e.Hidden)
	case "customLists":
		if len(e.CustomLists) == 0 {
			return "[]"
		}
		return "[" + strings.Join(e.CustomLists, ", ") + "]"
	default:
		return ""
	}
}

func equalIntPtr(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalStrPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
