// Package cursor implements the opaque keyset-pagination token used by trade
// listings: a base64url-encoded JSON object carrying the last-seen sort key
// and its tiebreaker id.
package cursor

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"
)

// ErrInvalidCursor is returned for any token that does not decode to the
// expected two-field shape.
var ErrInvalidCursor = errors.New("cursor: invalid pagination cursor")

// Cursor is the decoded position: the sort_at/id pair of the last row of the
// previous page.
type Cursor struct {
	SortAt time.Time
	ID     string
}

type wireCursor struct {
	SortAt string `json:"sort_at"`
	ID     string `json:"id"`
}

// Encode serializes the pair into a URL-safe token. Callers must treat the
// result as opaque; no padding or length guarantees.
func Encode(sortAt time.Time, id string) string {
	raw, _ := json.Marshal(wireCursor{
		SortAt: sortAt.UTC().Format(time.RFC3339Nano),
		ID:     id,
	})
	return base64.RawURLEncoding.EncodeToString(raw)
}

// Decode reverses Encode. Only unpadded base64url wrapping exactly the two
// expected fields is accepted; anything else yields ErrInvalidCursor.
func Decode(token string) (Cursor, error) {
	if token == "" {
		return Cursor{}, ErrInvalidCursor
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, ErrInvalidCursor
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	var wire wireCursor
	if err := dec.Decode(&wire); err != nil {
		return Cursor{}, ErrInvalidCursor
	}
	if dec.More() {
		return Cursor{}, ErrInvalidCursor
	}
	if wire.SortAt == "" || wire.ID == "" {
		return Cursor{}, ErrInvalidCursor
	}
	sortAt, err := time.Parse(time.RFC3339Nano, wire.SortAt)
	if err != nil {
		return Cursor{}, ErrInvalidCursor
	}
	return Cursor{SortAt: sortAt.UTC(), ID: wire.ID}, nil
}
