package controller

import (
	"kb-assistant-be/internal/dto"
	"kb-assistant-be/internal/pkg/serverutils"
	"kb-assistant-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IChatController interface {
	RegisterRoutes(h fiber.Router)
	Rag(ctx *fiber.Ctx) error
	Session(ctx *fiber.Ctx) error
}

type chatController struct {
	chatService service.IChatService
}

func NewChatController(chatService service.IChatService) IChatController {
	return &chatController{
		chatService: chatService,
	}
}

func (c *chatController) RegisterRoutes(h fiber.Router) {
	g := h.Group("/v1/llm")
	g.Post("/rag", c.Rag)
	g.Get("/session", c.Session)
}

func (c *chatController) Rag(ctx *fiber.Ctx) error {
	identity, err := serverutils.IdentityFromHeaders(ctx)
	if err != nil {
		return err
	}

	var req dto.RagRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.chatService.Rag(ctx.Context(), identity, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success answer question", res))
}

func (c *chatController) Session(ctx *fiber.Ctx) error {
	identity, err := serverutils.IdentityFromHeaders(ctx)
	if err != nil {
		return err
	}

	res, err := c.chatService.Session(ctx.Context(), identity)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show session", res))
}
