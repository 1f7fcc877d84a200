// editor/session.go
package editor

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ViniZap4/lumi-notes/domain"
)

const DefaultDebounce = 400 * time.Millisecond

// Saver persists what the editor produces. notes.Service satisfies it.
type Saver interface {
	Create(ctx context.Context, in domain.NoteInput) (domain.Note, error)
	Update(ctx context.Context, id string, in domain.NoteInput) (domain.Note, error)
	Delete(ctx context.Context, id string) error
}

type Options struct {
	Debounce time.Duration
	// OnError receives failures of background saves.
	OnError func(error)
}

// Session edits one note. Keystrokes are debounced; the first save with a
// non-empty title creates the note and later saves update it. Saves never
// overlap.
type Session struct {
	saver    Saver
	debounce time.Duration
	onError  func(error)
	log      zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	title   string
	content string
	id      string
	created bool
	dirty   bool
	closed  bool
	seq     uint64
	timer   *time.Timer

	saveMu sync.Mutex
}

// New starts a session for a note that does not exist yet.
func New(saver Saver, opts Options, log zerolog.Logger) *Session {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		saver:    saver,
		debounce: opts.Debounce,
		onError:  opts.OnError,
		log:      log.With().Str("component", "editor").Logger(),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Open starts a session on an existing note.
func Open(saver Saver, note domain.Note, opts Options, log zerolog.Logger) *Session {
	s := New(saver, opts, log)
	s.id, s.title, s.content = note.ID, note.Title, note.Content
	return s
}

// ID returns the note id, empty until the first create succeeds.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

func (s *Session) SetTitle(title string) {
	s.edit(func() { s.title = title })
}

func (s *Session) SetContent(content string) {
	s.edit(func() { s.content = content })
}

// edit applies a keystroke and restarts the debounce timer; only the timer
// armed by the latest keystroke saves.
func (s *Session) edit(apply func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	apply()
	s.dirty = true
	s.seq++
	if s.timer != nil {
		s.timer.Stop()
	}
	seq := s.seq
	s.timer = time.AfterFunc(s.debounce, func() { s.fire(seq) })
}

func (s *Session) fire(seq uint64) {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	if s.closed || seq != s.seq || !s.dirty {
		s.mu.Unlock()
		return
	}
	s.dirty = false
	s.mu.Unlock()

	if err := s.save(s.ctx); err != nil {
		s.report(err)
	}
}

// save writes the current state. Callers hold saveMu.
func (s *Session) save(ctx context.Context) error {
	s.mu.Lock()
	id := s.id
	in := domain.NoteInput{Title: s.title, Content: s.content}
	s.mu.Unlock()

	if strings.TrimSpace(in.Title) == "" {
		return nil
	}
	if id == "" {
		note, err := s.saver.Create(ctx, in)
		if err != nil {
			return err
		}
		s.mu.Lock()
		s.id, s.created = note.ID, true
		s.mu.Unlock()
		s.log.Debug().Str("id", note.ID).Msg("note created")
		return nil
	}
	_, err := s.saver.Update(ctx, id, in)
	return err
}

func (s *Session) report(err error) {
	if s.ctx.Err() != nil {
		return
	}
	s.log.Error().Err(err).Msg("save failed")
	if s.onError != nil {
		s.onError(err)
	}
}

// Leave ends the session before navigating away. It waits for an in-flight
// save, then deletes a note this session created whose title is now empty,
// or flushes a pending edit. It returns only once that call has settled.
// An opened note left with an empty title keeps its stored version.
func (s *Session) Leave(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.seq++
	if s.timer != nil {
		s.timer.Stop()
	}
	pending := s.dirty
	s.dirty = false
	s.mu.Unlock()

	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	defer s.cancel()

	s.mu.Lock()
	id, title, created := s.id, s.title, s.created
	s.mu.Unlock()

	if created && strings.TrimSpace(title) == "" {
		if err := s.saver.Delete(ctx, id); err != nil {
			s.log.Error().Err(err).Str("id", id).Msg("failed to discard empty note")
			return err
		}
		s.mu.Lock()
		s.id, s.created = "", false
		s.mu.Unlock()
		s.log.Debug().Str("id", id).Msg("discarded empty note")
		return nil
	}
	if pending {
		return s.save(ctx)
	}
	return nil
}

// Close tears the session down without saving. Pending edits are dropped
// and an in-flight save is cancelled.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.seq++
	if s.timer != nil {
		s.timer.Stop()
	}
	s.mu.Unlock()
	s.cancel()
}
