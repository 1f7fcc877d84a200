// filesystem/store.go
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ViniZap4/lumi-notes/domain"
)

// Store keeps notes on the device, one markdown file per note named after
// its id. It backs the notes service when no account is used.
type Store struct {
	dir string
	mu  sync.Mutex
	now func() time.Time
	log zerolog.Logger
}

func NewStore(dir string, log zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, domain.Wrap(domain.KindStorage, "local.open", "failed to create notes dir", err)
	}
	return &Store{
		dir: dir,
		now: time.Now,
		log: log.With().Str("component", "local_notes").Logger(),
	}, nil
}

func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) path(id string) (string, error) {
	if id == "" || id != filepath.Base(id) || strings.HasPrefix(id, ".") {
		return "", domain.New(domain.KindValidation, "local.path", "invalid note id")
	}
	return filepath.Join(s.dir, id+".md"), nil
}

// List returns every readable note, newest first. Files that fail to parse
// are skipped.
func (s *Store) List(ctx context.Context) ([]domain.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, domain.Wrap(domain.KindStorage, "local.list", "failed to read notes dir", err)
	}

	notes := make([]domain.Note, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		note, err := ReadNote(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			s.log.Warn().Err(err).Str("file", entry.Name()).Msg("skipping unreadable note")
			continue
		}
		notes = append(notes, note)
	}

	sort.SliceStable(notes, func(i, j int) bool {
		return notes[i].CreatedAt.After(notes[j].CreatedAt)
	})
	return notes, nil
}

func (s *Store) Get(ctx context.Context, id string) (domain.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read("local.get", id)
}

func (s *Store) read(op, id string) (domain.Note, error) {
	path, err := s.path(id)
	if err != nil {
		return domain.Note{}, err
	}
	note, err := ReadNote(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return domain.Note{}, &domain.Error{
			Kind:    domain.KindNotFound,
			Op:      op,
			Message: fmt.Sprintf("note %s not found", id),
			Cause:   domain.ErrNotFound,
		}
	case err != nil:
		return domain.Note{}, domain.Wrap(domain.KindParse, op, "failed to read note", err)
	}
	return note, nil
}

func (s *Store) Create(ctx context.Context, in domain.NoteInput) (domain.Note, error) {
	if err := in.Validate(); err != nil {
		return domain.Note{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	note := domain.Note{
		ID:        uuid.NewString(),
		Title:     strings.TrimSpace(in.Title),
		Content:   in.Content,
		Tags:      tags(in.Tags),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.write("local.create", &note); err != nil {
		return domain.Note{}, err
	}
	s.log.Debug().Str("id", note.ID).Msg("note created")
	return note, nil
}

func (s *Store) Update(ctx context.Context, id string, in domain.NoteInput) (domain.Note, error) {
	if err := in.Validate(); err != nil {
		return domain.Note{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	note, err := s.read("local.update", id)
	if err != nil {
		return domain.Note{}, err
	}
	note.Title = strings.TrimSpace(in.Title)
	note.Content = in.Content
	if in.Tags != nil {
		note.Tags = tags(in.Tags)
	}
	note.UpdatedAt = s.now().UTC()
	if err := s.write("local.update", &note); err != nil {
		return domain.Note{}, err
	}
	return note, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path, err := s.path(id)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &domain.Error{
				Kind:    domain.KindNotFound,
				Op:      "local.delete",
				Message: fmt.Sprintf("note %s not found", id),
				Cause:   domain.ErrNotFound,
			}
		}
		return domain.Wrap(domain.KindStorage, "local.delete", "failed to remove note", err)
	}
	return nil
}

// write replaces the note file atomically.
func (s *Store) write(op string, note *domain.Note) error {
	path, err := s.path(note.ID)
	if err != nil {
		return err
	}
	data, err := Encode(*note)
	if err != nil {
		return domain.Wrap(domain.KindStorage, op, "failed to encode note", err)
	}

	tmp, err := os.CreateTemp(s.dir, ".note-*")
	if err != nil {
		return domain.Wrap(domain.KindStorage, op, "failed to write note", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return domain.Wrap(domain.KindStorage, op, "failed to write note", err)
	}
	if err := tmp.Close(); err != nil {
		return domain.Wrap(domain.KindStorage, op, "failed to write note", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return domain.Wrap(domain.KindStorage, op, "failed to write note", err)
	}
	note.Path = path
	return nil
}

func tags(in []string) []string {
	out := make([]string, 0, len(in))
	for _, t := range in {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
