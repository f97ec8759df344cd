package controller

import (
	"notesync-be/internal/dto"
	"notesync-be/internal/pkg/apperror"
	"notesync-be/internal/pkg/serverutils"
	"notesync-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type INoteController interface {
	RegisterRoutes(r fiber.Router)
	Create(ctx *fiber.Ctx) error
	Save(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	UpdateContent(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	ShowMeta(ctx *fiber.Ctx) error
	UpdateMeta(ctx *fiber.Ctx) error
}

type noteController struct {
	noteService service.INoteService
	auth        fiber.Handler
}

func NewNoteController(noteService service.INoteService, auth fiber.Handler) INoteController {
	return &noteController{
		noteService: noteService,
		auth:        auth,
	}
}

func (c *noteController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/notes")
	h.Use(c.auth)
	h.Post("", c.Create)
	h.Post("save", c.Save)
	h.Get(":id", c.Show)
	h.Post(":id", c.UpdateContent)
	h.Delete(":id", c.Delete)
	h.Get(":id/meta", c.ShowMeta)
	h.Post(":id/meta", c.UpdateMeta)
}

// parseBody decodes a JSON body; an empty body leaves req untouched.
func parseBody(ctx *fiber.Ctx, req interface{}) error {
	if len(ctx.Body()) == 0 {
		return nil
	}
	if err := ctx.BodyParser(req); err != nil {
		return apperror.Wrap(apperror.CodeInvalidRequest, "malformed request body", err)
	}
	return nil
}

func (c *noteController) Create(ctx *fiber.Ctx) error {
	var req dto.CreateNoteRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	note, err := c.noteService.Create(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(note)
}

func (c *noteController) Save(ctx *fiber.Ctx) error {
	var req dto.SaveNoteRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.noteService.Save(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	if res.Deleted {
		return ctx.JSON(dto.SaveNoteDeletedResponse{Id: res.Id, Status: "deleted"})
	}
	if res.Created {
		return ctx.Status(fiber.StatusCreated).JSON(res.Note)
	}
	return ctx.JSON(res.Note)
}

func (c *noteController) Show(ctx *fiber.Ctx) error {
	note, err := c.noteService.Get(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return err
	}

	if note.Id == rootID {
		return ctx.JSON(dto.RootNoteResponse{Id: note.Id})
	}
	return ctx.JSON(note)
}

func (c *noteController) UpdateContent(ctx *fiber.Ctx) error {
	var req dto.UpdateContentRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}

	if err := c.noteService.UpdateContent(ctx.UserContext(), ctx.Params("id"), req.Content); err != nil {
		return err
	}

	return ctx.SendStatus(fiber.StatusNoContent)
}

func (c *noteController) Delete(ctx *fiber.Ctx) error {
	if err := c.noteService.Delete(ctx.UserContext(), ctx.Params("id")); err != nil {
		return err
	}

	return ctx.SendStatus(fiber.StatusNoContent)
}

func (c *noteController) ShowMeta(ctx *fiber.Ctx) error {
	meta, err := c.noteService.GetMeta(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return err
	}

	if meta == nil {
		return ctx.JSON(fiber.Map{})
	}
	return ctx.JSON(meta)
}

func (c *noteController) UpdateMeta(ctx *fiber.Ctx) error {
	var req dto.UpdateMetaRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}

	if err := c.noteService.UpdateMeta(ctx.UserContext(), ctx.Params("id"), req.Meta); err != nil {
		return err
	}

	return ctx.SendStatus(fiber.StatusNoContent)
}
