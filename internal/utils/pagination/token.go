// Package pagination encodes keyset cursors for newest-first entry listings.
package pagination

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	timeFormat = time.RFC3339Nano
	separator  = "|"
)

// ErrInvalidToken is returned for any token EncodeToken could not have produced.
var ErrInvalidToken = errors.New("invalid pagination token")

// Cursor identifies the last row of a page ordered by (created_at DESC, id DESC).
// The next page holds the rows strictly before it in that order.
type Cursor struct {
	CreatedAt time.Time
	ID        string
}

// Before reports whether a row sorts after the cursor in newest-first order,
// i.e. whether it belongs on the next page.
func (c Cursor) Before(createdAt time.Time, id string) bool {
	if !createdAt.Equal(c.CreatedAt) {
		return createdAt.Before(c.CreatedAt)
	}
	return id < c.ID
}

// EncodeToken creates an opaque, URL-safe token from the last row of a page.
func EncodeToken(createdAt time.Time, id string) string {
	raw := createdAt.UTC().Format(timeFormat) + separator + id
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeToken parses a token produced by EncodeToken.
func DecodeToken(token string) (time.Time, string, error) {
	c, err := ParseCursor(token)
	if err != nil {
		return time.Time{}, "", err
	}
	return c.CreatedAt, c.ID, nil
}

// ParseCursor decodes token into a Cursor. Errors wrap ErrInvalidToken.
func ParseCursor(token string) (Cursor, error) {
	decoded, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, fmt.Errorf("%w: base64 decode: %v", ErrInvalidToken, err)
	}

	createdAtPart, id, ok := strings.Cut(string(decoded), separator)
	if !ok || id == "" {
		return Cursor{}, fmt.Errorf("%w: missing entry id", ErrInvalidToken)
	}

	createdAt, err := time.Parse(timeFormat, createdAtPart)
	if err != nil {
		return Cursor{}, fmt.Errorf("%w: created_at parse: %v", ErrInvalidToken, err)
	}
	return Cursor{CreatedAt: createdAt, ID: id}, nil
}
