package remote

import (
	"bytes"
	"encoding/json"
	"errors"
)

// Page is the canonical list shape every historical response format is
// normalized into before it reaches the cache layer.
type Page[T any] struct {
	Items      []T
	NextCursor string
}

// pageEnvelope covers the object-shaped responses the API has produced over
// time; field names varied across versions.
type pageEnvelope struct {
	Items      json.RawMessage `json:"items"`
	Results    json.RawMessage `json:"results"`
	Data       json.RawMessage `json:"data"`
	NextCursor string          `json:"nextCursor"`
	Next       string          `json:"next"`
	Cursor     string          `json:"cursor"`
}

// UnmarshalJSON accepts the three wire shapes the API has ever used: a bare
// array, a paginated object with items/results/data and a cursor alias, and
// the legacy two-element [items, cursor] tuple.
func (p *Page[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	p.Items = []T{}
	p.NextCursor = ""

	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	switch data[0] {
	case '{':
		var env pageEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			return err
		}
		raw := env.Items
		if raw == nil {
			raw = env.Results
		}
		if raw == nil {
			raw = env.Data
		}
		if raw != nil {
			if err := json.Unmarshal(raw, &p.Items); err != nil {
				return err
			}
		}
		if p.Items == nil {
			p.Items = []T{}
		}
		switch {
		case env.NextCursor != "":
			p.NextCursor = env.NextCursor
		case env.Next != "":
			p.NextCursor = env.Next
		default:
			p.NextCursor = env.Cursor
		}
		return nil

	case '[':
		// Plain array first; the legacy tuple only as a fallback, since a
		// bare item list is by far the most common shape.
		var items []T
		if err := json.Unmarshal(data, &items); err == nil {
			if items == nil {
				items = []T{}
			}
			p.Items = items
			return nil
		}

		var tuple []json.RawMessage
		if err := json.Unmarshal(data, &tuple); err != nil {
			return err
		}
		if len(tuple) != 2 {
			return errors.New("unrecognized list response shape")
		}
		if err := json.Unmarshal(tuple[0], &p.Items); err != nil {
			return err
		}
		if p.Items == nil {
			p.Items = []T{}
		}
		var cursor string
		if err := json.Unmarshal(tuple[1], &cursor); err != nil {
			return errors.New("legacy tuple cursor is not a string")
		}
		p.NextCursor = cursor
		return nil

	default:
		return errors.New("unrecognized list response shape")
	}
}
