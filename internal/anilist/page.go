package anilist

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"anisync/internal/shared"
)

// pagedNode is the resolved paged object of one response: its continuation
// flag and the raw items of the single sibling field.
type pagedNode struct {
	hasNext bool
	items   []json.RawMessage
}

// FetchAll fully enumerates a paged query, returning the concatenated raw
// items across every page.
//
// The caller's variables are extended (not mutated) with page and perPage;
// pages are 1-indexed and sized to [MaxPageSize]. Enumeration stops when the
// server reports no further pages, or once maxCount items have accumulated
// (0 means unlimited), truncating the final page's overflow. Retries are the
// transport's concern; FetchAll adds none.
func (c *Client) FetchAll(ctx context.Context, query string, variables map[string]any, maxCount int, token string) ([]json.RawMessage, error) {
	vars := make(map[string]any, len(variables)+2)
	for k, v := range variables {
		vars[k] = v
	}
	vars["perPage"] = MaxPageSize

	items := []json.RawMessage{}
	for page := 1; ; page++ {
		vars["page"] = page

		data, err := c.Do(ctx, query, vars, token)
		if err != nil {
			return nil, err
		}

		node, err := descendToPage(data)
		if err != nil {
			return nil, err
		}

		items = append(items, node.items...)

		if maxCount > 0 && len(items) >= maxCount {
			return items[:maxCount], nil
		}
		if !node.hasNext {
			return items, nil
		}
	}
}

// descendToPage unwraps single-key wrapper objects until it reaches the
// object containing pageInfo, which must hold exactly one sibling field with
// the item list. Any other shape is a [shared.ErrPageShape].
func descendToPage(data json.RawMessage) (*pagedNode, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("%w: payload is not an object", shared.ErrPageShape)
	}

	if len(obj) == 0 {
		return nil, fmt.Errorf("%w: empty payload", shared.ErrPageShape)
	}

	if rawInfo, ok := obj["pageInfo"]; ok {
		if len(obj) != 2 {
			return nil, fmt.Errorf("%w: paged object has fields %v, want pageInfo plus one item field", shared.ErrPageShape, fieldNames(obj))
		}

		var info struct {
			HasNextPage bool `json:"hasNextPage"`
		}
		if err := json.Unmarshal(rawInfo, &info); err != nil {
			return nil, fmt.Errorf("%w: malformed pageInfo", shared.ErrPageShape)
		}

		for name, raw := range obj {
			if name == "pageInfo" {
				continue
			}
			var items []json.RawMessage
			if err := json.Unmarshal(raw, &items); err != nil {
				return nil, fmt.Errorf("%w: field %q is not a list", shared.ErrPageShape, name)
			}
			return &pagedNode{hasNext: info.HasNextPage, items: items}, nil
		}
	}

	if len(obj) != 1 {
		return nil, fmt.Errorf("%w: wrapper object has fields %v, want exactly one", shared.ErrPageShape, fieldNames(obj))
	}

	for _, inner := range obj {
		return descendToPage(inner)
	}

	return nil, fmt.Errorf("%w: empty payload", shared.ErrPageShape)
}

func fieldNames(obj map[string]json.RawMessage) []string {
	names := make([]string, 0, len(obj))
	for name := range obj {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
