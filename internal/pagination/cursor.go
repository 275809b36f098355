// Package pagination holds the cursor codec and page-size rules used by the
// scanner record listing.
package pagination

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const DefaultPerPage = 10

var AllowedPerPage = []int{5, 10, 20, 50, 100, 200, 500}

var ErrInvalidCursor = errors.New("invalid cursor")

type Direction int

const (
	Forward Direction = iota
	Backward
)

func (d Direction) String() string {
	if d == Backward {
		return "prev"
	}
	return "next"
}

// Cursor marks a position in the id-ordered result set. A Forward cursor
// resumes after ID, a Backward cursor resumes before it.
type Cursor struct {
	ID        uint
	Direction Direction
}

// Encode renders the cursor as an opaque URL-safe token.
func (c Cursor) Encode() string {
	raw := fmt.Sprintf("%s|%d", c.Direction, c.ID)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// Decode parses a token produced by Encode. An empty token yields nil.
func Decode(token string) (*Cursor, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, nil
	}
	b, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, ErrInvalidCursor
	}
	parts := strings.Split(string(b), "|")
	if len(parts) != 2 {
		return nil, ErrInvalidCursor
	}

	var dir Direction
	switch parts[0] {
	case "next":
		dir = Forward
	case "prev":
		dir = Backward
	default:
		return nil, ErrInvalidCursor
	}

	id, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil || id == 0 {
		return nil, ErrInvalidCursor
	}
	return &Cursor{ID: uint(id), Direction: dir}, nil
}

// ResolvePerPage applies the default and rejects sizes outside AllowedPerPage.
func ResolvePerPage(perPage int) (int, bool) {
	if perPage == 0 {
		return DefaultPerPage, true
	}
	for _, v := range AllowedPerPage {
		if v == perPage {
			return perPage, true
		}
	}
	return 0, false
}
