// Package session holds per-conversation state: the chat transcript and the
// trip history built from it.
package session

import (
	"time"

	"github.com/neexbeast/tripmate/internal/trip"
)

// Role identifies who wrote a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry in the chat transcript. Assistant messages hold the
// display text, never the raw reply.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	HasTrip   bool      `json:"has_trip,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// State is everything kept for one session.
type State struct {
	ID        string       `json:"id"`
	Messages  []Message    `json:"messages"`
	History   trip.History `json:"history"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// New returns an empty state for id.
func New(id string, now time.Time) *State {
	return &State{ID: id, Messages: []Message{}, CreatedAt: now, UpdatedAt: now}
}

// Append adds a message to the transcript.
func (s *State) Append(role Role, content string, hasTrip bool, now time.Time) {
	s.Messages = append(s.Messages, Message{Role: role, Content: content, HasTrip: hasTrip, CreatedAt: now})
	s.UpdatedAt = now
}

// CurrentTrip returns the trip on display, or nil.
func (s *State) CurrentTrip() *trip.Plan {
	return s.History.Current()
}
