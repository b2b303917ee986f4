// Package pagination encodes keyset positions as opaque page tokens.
package pagination

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrInvalidToken is returned for tokens this package did not produce.
var ErrInvalidToken = errors.New("invalid pagination token")

// Cursor is the last row of a page: its timestamp (unix millis) and id.
// Rows sort by (time DESC, id DESC), so the pair is a stable position.
type Cursor struct {
	Millis int64  `json:"t"`
	ID     uint64 `json:"id"`
}

// At builds the cursor for a row stamped at t.
func At(t time.Time, id uint64) Cursor {
	return Cursor{Millis: t.UnixMilli(), ID: id}
}

// IsZero reports whether the cursor points at the first page.
func (c Cursor) IsZero() bool { return c.ID == 0 && c.Millis == 0 }

// Time returns the cursor timestamp in UTC.
func (c Cursor) Time() time.Time { return time.UnixMilli(c.Millis).UTC() }

// Token renders the cursor as a URL-safe token.
func (c Cursor) Token() string {
	b, _ := json.Marshal(c) // two integer fields, cannot fail
	return base64.RawURLEncoding.EncodeToString(b)
}

// Parse reads a token produced by Token. Empty means first page.
func Parse(token string) (Cursor, error) {
	if token == "" {
		return Cursor{}, nil
	}
	b, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	var c Cursor
	if err := json.Unmarshal(b, &c); err != nil {
		return Cursor{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if c.ID == 0 {
		return Cursor{}, ErrInvalidToken
	}
	return c, nil
}
