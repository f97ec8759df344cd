package controller

import (
	"notesync-be/internal/entity"
	"notesync-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

const rootID = entity.RootID

type ITreeController interface {
	RegisterRoutes(r fiber.Router)
	Show(ctx *fiber.Ctx) error
}

type treeController struct {
	noteService service.INoteService
	auth        fiber.Handler
}

func NewTreeController(noteService service.INoteService, auth fiber.Handler) ITreeController {
	return &treeController{
		noteService: noteService,
		auth:        auth,
	}
}

func (c *treeController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/tree")
	h.Use(c.auth)
	h.Get("", c.Show)
}

func (c *treeController) Show(ctx *fiber.Ctx) error {
	tree, err := c.noteService.GetTree(ctx.UserContext())
	if err != nil {
		return err
	}
	return ctx.JSON(tree)
}
