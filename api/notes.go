// api/notes.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/ViniZap4/lumi-notes/domain"
)

const notesPath = "/api/notes"

func notePath(id string) string {
	return notesPath + "/" + url.PathEscape(id)
}

func (c *Client) ListNotes(ctx context.Context) ([]domain.Note, error) {
	var raw json.RawMessage
	if err := c.Do(ctx, http.MethodGet, notesPath, nil, &raw); err != nil {
		return nil, notesError("notes.list", err)
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		// anything but an array is an empty collection
		return []domain.Note{}, nil
	}
	notes := make([]domain.Note, 0, len(items))
	for _, item := range items {
		note, err := MapServerNote(item)
		if err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}
	return notes, nil
}

func (c *Client) GetNote(ctx context.Context, id string) (domain.Note, error) {
	var raw json.RawMessage
	if err := c.Do(ctx, http.MethodGet, notePath(id), nil, &raw); err != nil {
		return domain.Note{}, notesError("notes.get", err)
	}
	if isNull(raw) {
		return domain.Note{}, notFound("notes.get", id)
	}
	note, err := MapServerNote(raw)
	if err != nil {
		return domain.Note{}, err
	}
	if note.ID == "" {
		return domain.Note{}, notFound("notes.get", id)
	}
	return note, nil
}

func (c *Client) CreateNote(ctx context.Context, in domain.NoteInput) (domain.Note, error) {
	var raw json.RawMessage
	if err := c.Do(ctx, http.MethodPost, notesPath, in, &raw); err != nil {
		return domain.Note{}, notesError("notes.create", err)
	}
	return MapServerNote(raw)
}

func (c *Client) UpdateNote(ctx context.Context, id string, in domain.NoteInput) (domain.Note, error) {
	var raw json.RawMessage
	if err := c.Do(ctx, http.MethodPatch, notePath(id), in, &raw); err != nil {
		return domain.Note{}, notesError("notes.update", err)
	}
	return MapServerNote(raw)
}

func (c *Client) DeleteNote(ctx context.Context, id string) error {
	if err := c.Do(ctx, http.MethodDelete, notePath(id), nil, nil); err != nil {
		return notesError("notes.delete", err)
	}
	return nil
}

func notFound(op, id string) error {
	return &domain.Error{
		Kind:    domain.KindNotFound,
		Op:      op,
		Status:  http.StatusNotFound,
		Message: "note " + id + " not found",
		Cause:   domain.ErrNotFound,
	}
}

// notesError classifies transport failures as remote notes errors.
func notesError(op string, err error) error {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.Status == http.StatusNotFound {
			return &domain.Error{
				Kind:    domain.KindNotFound,
				Op:      op,
				Status:  httpErr.Status,
				Message: httpErr.Message,
				Cause:   domain.ErrNotFound,
			}
		}
		return domain.Remote(domain.KindRemoteNotes, op, httpErr.Status, httpErr.Message)
	}
	return domain.Wrap(domain.KindRemoteNotes, op, "request failed", err)
}
