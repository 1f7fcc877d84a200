// notes/service.go
package notes

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ViniZap4/lumi-notes/domain"
	"github.com/ViniZap4/lumi-notes/hub"
	"github.com/ViniZap4/lumi-notes/query"
)

// CollectionKey caches the notes list.
const CollectionKey = "notes"

func NoteKey(id string) string {
	return "note:" + id
}

// ErrDisabled is returned by Get for an empty id; no fetch is made.
var ErrDisabled = errors.New("notes: query disabled without an id")

type ListOptions struct {
	// OnMount forces a refetch, as when a screen showing the list appears.
	OnMount bool
}

// Service reads notes through the query cache and coordinates writes with
// it. Mutations run one at a time.
type Service struct {
	backend Backend
	cache   *query.Cache
	mu      sync.Mutex
	log     zerolog.Logger
}

func NewService(backend Backend, cache *query.Cache, log zerolog.Logger) *Service {
	return &Service{
		backend: backend,
		cache:   cache,
		log:     log.With().Str("component", "notes").Logger(),
	}
}

// Events streams cache changes for the collection and single notes.
func (s *Service) Events() <-chan hub.Event {
	return s.cache.Subscribe()
}

func (s *Service) StopEvents(ch <-chan hub.Event) {
	s.cache.Unsubscribe(ch)
}

// Invalidate marks the list and every cached note stale, so the next reads
// go to the backend.
func (s *Service) Invalidate() {
	s.cache.InvalidatePrefix("note")
}

func (s *Service) List(ctx context.Context, opts ListOptions) ([]domain.Note, error) {
	notes, err := query.Fetch(ctx, s.cache, CollectionKey, query.FetchOptions{Force: opts.OnMount}, s.backend.List)
	if errors.Is(err, query.ErrCancelled) {
		// a mutation replaced the list while it was loading
		if cached, ok := query.Get[[]domain.Note](s.cache, CollectionKey); ok {
			return slices.Clone(cached), nil
		}
	}
	if err != nil {
		return nil, err
	}
	return slices.Clone(notes), nil
}

// Cached returns the collection as currently held in the cache.
func (s *Service) Cached() ([]domain.Note, bool) {
	notes, ok := query.Get[[]domain.Note](s.cache, CollectionKey)
	return slices.Clone(notes), ok
}

func (s *Service) Get(ctx context.Context, id string) (domain.Note, error) {
	if id == "" {
		return domain.Note{}, ErrDisabled
	}
	key := NoteKey(id)
	note, err := query.Fetch(ctx, s.cache, key, query.FetchOptions{}, func(ctx context.Context) (domain.Note, error) {
		return s.backend.Get(ctx, id)
	})
	if errors.Is(err, query.ErrCancelled) {
		if cached, ok := query.Get[domain.Note](s.cache, key); ok {
			return cached, nil
		}
	}
	return note, err
}

func (s *Service) Create(ctx context.Context, in domain.NoteInput) (domain.Note, error) {
	if err := in.Validate(); err != nil {
		return domain.Note{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	note, err := s.backend.Create(ctx, in)
	if err != nil {
		s.log.Error().Err(err).Msg("create failed")
		return domain.Note{}, err
	}
	s.cache.Set(NoteKey(note.ID), note)
	s.cache.Invalidate(CollectionKey)
	return note, nil
}

func (s *Service) Update(ctx context.Context, id string, in domain.NoteInput) (domain.Note, error) {
	if id == "" {
		return domain.Note{}, domain.New(domain.KindValidation, "notes.update", "note id is required")
	}
	if err := in.Validate(); err != nil {
		return domain.Note{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	note, err := s.backend.Update(ctx, id, in)
	if err != nil {
		s.log.Error().Err(err).Str("id", id).Msg("update failed")
		return domain.Note{}, err
	}
	s.cache.Set(NoteKey(note.ID), note)
	s.cache.Invalidate(CollectionKey)
	return note, nil
}

// Delete removes the note from the cached list before the backend call. On
// failure the list as it was when Delete started is put back.
func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return domain.New(domain.KindValidation, "notes.delete", "note id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := query.Begin(s.cache, CollectionKey, func(notes []domain.Note) []domain.Note {
		return domain.WithoutNote(notes, id)
	})
	defer tx.Settle()

	if err := s.backend.Delete(ctx, id); err != nil {
		tx.Rollback()
		s.log.Error().Err(err).Str("id", id).Msg("delete failed, restored list")
		return err
	}
	s.cache.Remove(NoteKey(id))
	return nil
}
