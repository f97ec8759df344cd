package controller

import (
	"notesync-be/internal/dto"
	"notesync-be/internal/pkg/serverutils"
	"notesync-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ITrashController interface {
	RegisterRoutes(r fiber.Router)
	Handle(ctx *fiber.Ctx) error
}

type trashController struct {
	trashService service.ITrashService
	auth         fiber.Handler
}

func NewTrashController(trashService service.ITrashService, auth fiber.Handler) ITrashController {
	return &trashController{
		trashService: trashService,
		auth:         auth,
	}
}

func (c *trashController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/trash")
	h.Use(c.auth)
	h.Post("", c.Handle)
}

func (c *trashController) Handle(ctx *fiber.Ctx) error {
	var req dto.TrashRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.trashService.Handle(ctx.UserContext(), &req); err != nil {
		return err
	}

	return ctx.SendStatus(fiber.StatusNoContent)
}
