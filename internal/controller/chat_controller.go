package controller

import (
	"video-rag-chat-be/internal/dto"
	"video-rag-chat-be/internal/pkg/serverutils"
	"video-rag-chat-be/internal/service"
	"video-rag-chat-be/pkg/store"

	"github.com/gofiber/fiber/v2"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	Summarize(ctx *fiber.Ctx) error
	Chat(ctx *fiber.Ctx) error
	History(ctx *fiber.Ctx) error
	Snippets(ctx *fiber.Ctx) error
}

type chatController struct {
	chatService service.IChatService
}

func NewChatController(chatService service.IChatService) IChatController {
	return &chatController{
		chatService: chatService,
	}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	r.Post("/summarize", c.Summarize)
	r.Post("/chat", c.Chat)
	r.Get("/history/:session", c.History)
	r.Get("/history/:session/snippets", c.Snippets)
}

// Summarize and Chat answer with bare {summary} / {answer} bodies so
// existing clients keep working; errors still use the envelope.
func (c *chatController) Summarize(ctx *fiber.Ctx) error {
	var req dto.SummarizeRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.chatService.Summarize(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(res)
}

func (c *chatController) Chat(ctx *fiber.Ctx) error {
	var req dto.ChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.chatService.Chat(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(res)
}

func (c *chatController) History(ctx *fiber.Ctx) error {
	res, err := c.chatService.History(ctx.UserContext(), ctx.Params("session"))
	if err != nil {
		return err
	}

	return ctx.JSON(res)
}

// Snippets lists stored memory; ?role=user|assistant narrows it.
func (c *chatController) Snippets(ctx *fiber.Ctx) error {
	role := ctx.Query("role")
	if role != "" && role != store.RoleUser && role != store.RoleAssistant {
		return fiber.NewError(fiber.StatusBadRequest, "role must be user or assistant")
	}

	res, err := c.chatService.Snippets(ctx.UserContext(), ctx.Params("session"), role)
	if err != nil {
		return err
	}

	return ctx.JSON(res)
}
