// http/notes_handlers.go
package http

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/ViniZap4/lumi-notes/domain"
)

const previewLen = 120

type ownerView struct {
	ID string `json:"_id"`
}

// noteView is the wire shape of a note: Mongo-style _id and a populated
// owner object.
type noteView struct {
	ID             string          `json:"_id"`
	Title          string          `json:"title"`
	Content        string          `json:"content"`
	ContentPreview string          `json:"contentPreview"`
	Owner          ownerView       `json:"owner"`
	Members        []domain.Member `json:"members"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

func toView(n domain.Note) noteView {
	members := n.Members
	if members == nil {
		members = []domain.Member{}
	}
	return noteView{
		ID:             n.ID,
		Title:          n.Title,
		Content:        n.Content,
		ContentPreview: preview(n.Content),
		Owner:          ownerView{ID: n.Owner},
		Members:        members,
		CreatedAt:      n.CreatedAt,
		UpdatedAt:      n.UpdatedAt,
	}
}

func preview(content string) string {
	content = strings.Join(strings.Fields(content), " ")
	if utf8.RuneCountInString(content) <= previewLen {
		return content
	}
	return string([]rune(content)[:previewLen]) + "…"
}

func (s *Server) HandleNotes(c *fiber.Ctx) error {
	notes, err := s.repo.ListNotes(c.UserContext(), currentUser(c).ID)
	if err != nil {
		return err
	}
	views := make([]noteView, 0, len(notes))
	for _, n := range notes {
		views = append(views, toView(n))
	}
	return c.JSON(fiber.Map{"data": views})
}

func (s *Server) HandleGetNote(c *fiber.Ctx) error {
	note, err := s.repo.GetNote(c.UserContext(), currentUser(c).ID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": toView(note)})
}

func (s *Server) HandleCreateNote(c *fiber.Ctx) error {
	var req domain.NoteInput
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	if err := req.Validate(); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "title is required")
	}

	now := s.now().UTC()
	note := domain.Note{
		ID:        uuid.NewString(),
		Title:     strings.TrimSpace(req.Title),
		Content:   req.Content,
		Owner:     currentUser(c).ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateNote(c.UserContext(), note); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": toView(note)})
}

func (s *Server) HandleUpdateNote(c *fiber.Ctx) error {
	var req struct {
		Title   *string `json:"title"`
		Content *string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}

	ctx := c.UserContext()
	note, err := s.repo.GetNote(ctx, currentUser(c).ID, c.Params("id"))
	if err != nil {
		return err
	}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return fiber.NewError(fiber.StatusBadRequest, "title is required")
		}
		note.Title = title
	}
	if req.Content != nil {
		note.Content = *req.Content
	}
	note.UpdatedAt = s.now().UTC()
	if err := s.repo.UpdateNote(ctx, note); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": toView(note)})
}

func (s *Server) HandleDeleteNote(c *fiber.Ctx) error {
	if err := s.repo.DeleteNote(c.UserContext(), currentUser(c).ID, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
