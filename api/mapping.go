// api/mapping.go
package api

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/ViniZap4/lumi-notes/domain"
)

const untitled = "Untitled"

type serverNote struct {
	MongoID        string          `json:"_id"`
	ID             string          `json:"id"`
	Title          *string         `json:"title"`
	Content        *string         `json:"content"`
	ContentPreview string          `json:"contentPreview"`
	Owner          json.RawMessage `json:"owner"`
	Members        []domain.Member `json:"members"`
	Tags           []string        `json:"tags"`
	CreatedAt      json.RawMessage `json:"createdAt"`
	UpdatedAt      json.RawMessage `json:"updatedAt"`
}

// MapServerNote converts a raw server payload into a Note. Missing fields get
// defaults instead of failing: title "Untitled", content "", no members.
func MapServerNote(raw []byte) (domain.Note, error) {
	var sn serverNote
	if err := json.Unmarshal(Unwrap(raw), &sn); err != nil {
		return domain.Note{}, domain.Wrap(domain.KindParse, "notes.map", "malformed note payload", err)
	}

	note := domain.Note{
		ID:        sn.MongoID,
		Title:     untitled,
		Preview:   sn.ContentPreview,
		Owner:     ownerID(sn.Owner),
		Members:   sn.Members,
		Tags:      sn.Tags,
		CreatedAt: parseTime(sn.CreatedAt),
		UpdatedAt: parseTime(sn.UpdatedAt),
	}
	if note.ID == "" {
		note.ID = sn.ID
	}
	if sn.Title != nil {
		note.Title = *sn.Title
	}
	if sn.Content != nil {
		note.Content = *sn.Content
	}
	if note.Members == nil {
		note.Members = []domain.Member{}
	}
	if note.Tags == nil {
		note.Tags = []string{}
	}
	return note, nil
}

// ownerID accepts either a bare id or a populated {_id: ...} document.
func ownerID(raw json.RawMessage) string {
	if isNull(raw) {
		return ""
	}
	var id string
	if err := json.Unmarshal(raw, &id); err == nil {
		return id
	}
	var doc struct {
		MongoID string `json:"_id"`
		ID      string `json:"id"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return ""
	}
	if doc.MongoID != "" {
		return doc.MongoID
	}
	return doc.ID
}

// parseTime accepts RFC 3339 strings and epoch milliseconds.
func parseTime(raw json.RawMessage) time.Time {
	raw = bytes.TrimSpace(raw)
	if isNull(raw) {
		return time.Time{}
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return time.Time{}
		}
		return t
	}
	var ms int64
	if err := json.Unmarshal(raw, &ms); err == nil {
		return time.UnixMilli(ms).UTC()
	}
	return time.Time{}
}
