// domain/note.go
package domain

import (
	"strings"
	"time"
)

// Note is the single note shape shared by the remote and local backends.
// Tags are only kept by the local backend; Owner, Members and Preview only
// come back from the remote API.
type Note struct {
	ID        string    `json:"id" yaml:"id"`
	Title     string    `json:"title" yaml:"title"`
	Content   string    `json:"content" yaml:"-"`
	Preview   string    `json:"contentPreview,omitempty" yaml:"-"`
	Tags      []string  `json:"tags" yaml:"tags"`
	Owner     string    `json:"owner,omitempty" yaml:"owner,omitempty"`
	Members   []Member  `json:"members,omitempty" yaml:"members,omitempty"`
	CreatedAt time.Time `json:"createdAt" yaml:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"updated_at"`
	Path      string    `json:"-" yaml:"-"`
}

type Role string

const (
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

type Member struct {
	User string `json:"user" yaml:"user"`
	Role Role   `json:"role" yaml:"role"`
}

// NoteInput carries the writable fields of a note.
type NoteInput struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags,omitempty"`
}

func (in NoteInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return New(KindValidation, "note.validate", "title is required")
	}
	return nil
}

// WithoutNote returns a copy of notes without the note identified by id.
func WithoutNote(notes []Note, id string) []Note {
	out := make([]Note, 0, len(notes))
	for _, n := range notes {
		if n.ID != id {
			out = append(out, n)
		}
	}
	return out
}
