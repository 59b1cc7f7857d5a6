// Package session keeps the per-session study context: the uploaded source
// and the rolling list of chat turns.
package session

import (
	"context"
	"errors"
	"time"
)

var (
	ErrInvalidID = errors.New("session id is empty")
	ErrConflict  = errors.New("session update conflict")
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"

	DefaultMaxTurns = 20
)

type Turn struct {
	Role string    `json:"role" bson:"role"`
	Text string    `json:"text" bson:"text"`
	At   time.Time `json:"at" bson:"at"`
}

type Source struct {
	Type     string `json:"type" bson:"type"`
	Name     string `json:"name,omitempty" bson:"name,omitempty"`
	MimeType string `json:"mime_type,omitempty" bson:"mime_type,omitempty"`
	Text     string `json:"text" bson:"text"`
}

// Context is everything accumulated for one session id. The zero value with
// only ID set is the "unknown session" sentinel.
type Context struct {
	ID        string    `json:"id" bson:"_id"`
	Source    *Source   `json:"source,omitempty" bson:"source,omitempty"`
	Turns     []Turn    `json:"turns,omitempty" bson:"turns,omitempty"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

func (c Context) IsEmpty() bool {
	return c.Source == nil && len(c.Turns) == 0
}

func (c Context) HasSource() bool {
	return c.Source != nil && c.Source.Text != ""
}

func (c Context) SourceText() string {
	if c.Source == nil {
		return ""
	}
	return c.Source.Text
}

// RecentTurns returns at most n of the latest turns; n <= 0 returns none.
func (c Context) RecentTurns(n int) []Turn {
	if n <= 0 || len(c.Turns) == 0 {
		return nil
	}
	if n >= len(c.Turns) {
		return c.Turns
	}
	return c.Turns[len(c.Turns)-n:]
}

// Delta is merged into a stored Context by Put. A non-nil Source replaces
// the stored one; Turns are appended.
type Delta struct {
	Source *Source
	Turns  []Turn
}

func (d Delta) IsZero() bool {
	return d.Source == nil && len(d.Turns) == 0
}

// Store is the session persistence contract. Get never fails for an unknown
// id: it returns Context{ID: id}. Errors are reserved for backend failures.
type Store interface {
	Get(ctx context.Context, id string) (Context, error)
	Put(ctx context.Context, id string, delta Delta) (Context, error)
}

func merge(cur Context, id string, delta Delta, maxTurns int, now time.Time) Context {
	next := cur.clone()
	next.ID = id
	if next.CreatedAt.IsZero() {
		next.CreatedAt = now
	}
	next.UpdatedAt = now

	if delta.Source != nil {
		src := *delta.Source
		next.Source = &src
	}
	for _, turn := range delta.Turns {
		if turn.At.IsZero() {
			turn.At = now
		}
		next.Turns = append(next.Turns, turn)
	}
	next.Turns = trimTurns(next.Turns, maxTurns)
	return next
}

func trimTurns(turns []Turn, maxTurns int) []Turn {
	if maxTurns <= 0 || len(turns) <= maxTurns {
		return turns
	}
	return append([]Turn(nil), turns[len(turns)-maxTurns:]...)
}

func (c Context) clone() Context {
	out := c
	if c.Source != nil {
		src := *c.Source
		out.Source = &src
	}
	if c.Turns != nil {
		out.Turns = append([]Turn(nil), c.Turns...)
	}
	return out
}
