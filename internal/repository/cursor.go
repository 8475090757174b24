package repository

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"
)

// cursor is the decoded pagination position: the recency value and id of
// the last item on the previous page. It is minted by List, handed back
// verbatim by the caller, and never mutated.
type cursor struct {
	UpdatedAt time.Time
	ID        string
}

func encodeCursor(c cursor) string {
	raw := c.UpdatedAt.UTC().Format(time.RFC3339Nano) + "|" + c.ID
	return base64.URLEncoding.EncodeToString([]byte(raw))
}

func decodeCursor(token string) (cursor, error) {
	raw, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return cursor{}, fmt.Errorf("malformed cursor: %w", err)
	}
	parts := strings.SplitN(string(raw), "|", 2)
	if len(parts) != 2 || parts[1] == "" {
		return cursor{}, fmt.Errorf("malformed cursor: missing fields")
	}
	ts, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return cursor{}, fmt.Errorf("malformed cursor timestamp: %w", err)
	}
	return cursor{UpdatedAt: ts, ID: parts[1]}, nil
}
