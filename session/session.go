// Package session keeps short-lived translation sessions: the chosen
// language pair and the redacted transcript of what was translated.
// Nothing here is durable; sessions expire after a period of inactivity.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultSourceLanguage = "en-US"
	DefaultTargetLanguage = "es-ES"
	DefaultIdleTimeout    = 30 * time.Minute

	// MaxEntries bounds the transcript kept per session; older entries are dropped.
	MaxEntries = 200
)

// ErrNotFound is returned for unknown or expired session ids
var ErrNotFound = errors.New("session: not found")

// Entry is one translated utterance. Both texts are redacted.
type Entry struct {
	Original    string    `json:"original"`
	Translation string    `json:"translation"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Session is an ephemeral translation session
type Session struct {
	ID             string    `json:"id"`
	SourceLanguage string    `json:"sourceLanguage"`
	TargetLanguage string    `json:"targetLanguage"`
	Entries        []Entry   `json:"entries"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// LanguageUpdate is a partial settings change; empty fields are left as they are
type LanguageUpdate struct {
	SourceLanguage string `json:"sourceLanguage,omitempty"`
	TargetLanguage string `json:"targetLanguage,omitempty"`
}

// Store persists sessions with a sliding inactivity expiry
type Store interface {
	Create(ctx context.Context, sourceLanguage, targetLanguage string) (*Session, error)
	Get(ctx context.Context, id string) (*Session, error)
	UpdateLanguages(ctx context.Context, id string, update LanguageUpdate) (*Session, error)
	AppendEntry(ctx context.Context, id string, entry Entry) (*Session, error)
	Delete(ctx context.Context, id string) error
}

func newSession(sourceLanguage, targetLanguage string, now time.Time) *Session {
	if sourceLanguage == "" {
		sourceLanguage = DefaultSourceLanguage
	}
	if targetLanguage == "" {
		targetLanguage = DefaultTargetLanguage
	}
	return &Session{
		ID:             uuid.NewString(),
		SourceLanguage: sourceLanguage,
		TargetLanguage: targetLanguage,
		Entries:        []Entry{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func (s *Session) applyLanguages(update LanguageUpdate, now time.Time) {
	if update.SourceLanguage != "" {
		s.SourceLanguage = update.SourceLanguage
	}
	if update.TargetLanguage != "" {
		s.TargetLanguage = update.TargetLanguage
	}
	s.UpdatedAt = now
}

func (s *Session) appendEntry(entry Entry, now time.Time) {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	s.Entries = append(s.Entries, entry)
	if over := len(s.Entries) - MaxEntries; over > 0 {
		s.Entries = append([]Entry(nil), s.Entries[over:]...)
	}
	s.UpdatedAt = now
}

func (s *Session) clone() *Session {
	cp := *s
	cp.Entries = append([]Entry{}, s.Entries...)
	return &cp
}
