package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ViniZap4/lumi-notes/domain"
)

func TestMapServerNote(t *testing.T) {
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		raw   string
		check func(t *testing.T, n domain.Note)
	}{
		{
			name: "missing content defaults to empty string",
			raw:  `{"_id":"n1","title":"Groceries"}`,
			check: func(t *testing.T, n domain.Note) {
				assert.Equal(t, "n1", n.ID)
				assert.Equal(t, "Groceries", n.Title)
				assert.Equal(t, "", n.Content)
				assert.NotNil(t, n.Members)
				assert.Empty(t, n.Members)
			},
		},
		{
			name: "missing title becomes Untitled",
			raw:  `{"id":"n2"}`,
			check: func(t *testing.T, n domain.Note) {
				assert.Equal(t, "n2", n.ID)
				assert.Equal(t, "Untitled", n.Title)
			},
		},
		{
			name: "_id wins over id",
			raw:  `{"_id":"mongo","id":"plain","title":"t"}`,
			check: func(t *testing.T, n domain.Note) {
				assert.Equal(t, "mongo", n.ID)
			},
		},
		{
			name: "populated owner and members",
			raw: `{"_id":"n3","title":"t","owner":{"_id":"u1","email":"a@b.c"},
				"members":[{"user":"u2","role":"viewer"}],"contentPreview":"pre"}`,
			check: func(t *testing.T, n domain.Note) {
				assert.Equal(t, "u1", n.Owner)
				assert.Equal(t, []domain.Member{{User: "u2", Role: domain.RoleViewer}}, n.Members)
				assert.Equal(t, "pre", n.Preview)
			},
		},
		{
			name: "owner as plain id",
			raw:  `{"_id":"n4","title":"t","owner":"u9"}`,
			check: func(t *testing.T, n domain.Note) {
				assert.Equal(t, "u9", n.Owner)
			},
		},
		{
			name: "timestamps as strings and epoch millis",
			raw:  `{"_id":"n5","title":"t","createdAt":"2026-03-01T10:00:00Z","updatedAt":1772359200000}`,
			check: func(t *testing.T, n domain.Note) {
				assert.True(t, n.CreatedAt.Equal(created))
				assert.True(t, n.UpdatedAt.Equal(created))
			},
		},
		{
			name: "enveloped payload",
			raw:  `{"data":{"_id":"n6","title":"wrapped"}}`,
			check: func(t *testing.T, n domain.Note) {
				assert.Equal(t, "n6", n.ID)
				assert.Equal(t, "wrapped", n.Title)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := MapServerNote([]byte(tt.raw))
			require.NoError(t, err)
			tt.check(t, n)
		})
	}
}

func TestMapServerNoteRejectsGarbage(t *testing.T) {
	_, err := MapServerNote([]byte(`[1,2`))
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindParse))
}
