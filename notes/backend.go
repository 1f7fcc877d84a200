// notes/backend.go
package notes

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ViniZap4/lumi-notes/api"
	"github.com/ViniZap4/lumi-notes/domain"
	"github.com/ViniZap4/lumi-notes/filesystem"
)

const (
	BackendRemote = "remote"
	BackendLocal  = "local"
)

// Backend is where notes live. Exactly one backend is authoritative for a
// running client; there is no syncing between them.
type Backend interface {
	List(ctx context.Context) ([]domain.Note, error)
	Get(ctx context.Context, id string) (domain.Note, error)
	Create(ctx context.Context, in domain.NoteInput) (domain.Note, error)
	Update(ctx context.Context, id string, in domain.NoteInput) (domain.Note, error)
	Delete(ctx context.Context, id string) error
}

var (
	_ Backend = (*Remote)(nil)
	_ Backend = (*filesystem.Store)(nil)
)

// Remote serves notes from the API.
type Remote struct {
	client *api.Client
}

func NewRemote(client *api.Client) *Remote {
	return &Remote{client: client}
}

func (r *Remote) List(ctx context.Context) ([]domain.Note, error) {
	return r.client.ListNotes(ctx)
}

func (r *Remote) Get(ctx context.Context, id string) (domain.Note, error) {
	return r.client.GetNote(ctx, id)
}

func (r *Remote) Create(ctx context.Context, in domain.NoteInput) (domain.Note, error) {
	return r.client.CreateNote(ctx, in)
}

func (r *Remote) Update(ctx context.Context, id string, in domain.NoteInput) (domain.Note, error) {
	return r.client.UpdateNote(ctx, id, in)
}

func (r *Remote) Delete(ctx context.Context, id string) error {
	return r.client.DeleteNote(ctx, id)
}

// Open builds the backend named by kind. An empty kind selects the remote
// backend.
func Open(kind string, client *api.Client, dir string, log zerolog.Logger) (Backend, error) {
	switch kind {
	case "", BackendRemote:
		if client == nil {
			return nil, fmt.Errorf("remote notes backend needs an api client")
		}
		return NewRemote(client), nil
	case BackendLocal:
		return filesystem.NewStore(dir, log)
	default:
		return nil, fmt.Errorf("unknown notes backend %q", kind)
	}
}
