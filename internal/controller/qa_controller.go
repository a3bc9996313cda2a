package controller

import (
	"errors"
	"fmt"

	"document-qa-be/internal/dto"
	"document-qa-be/internal/pkg/serverutils"
	"document-qa-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IQAController interface {
	RegisterRoutes(r fiber.Router)
	Ask(ctx *fiber.Ctx) error
	History(ctx *fiber.Ctx) error
	Export(ctx *fiber.Ctx) error
}

type qaController struct {
	documentService service.IDocumentService
}

func NewQAController(documentService service.IDocumentService) IQAController {
	return &qaController{
		documentService: documentService,
	}
}

func (c *qaController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/qa/v1")
	h.Post("/ask", c.Ask)
	h.Get("/history", c.History)
	h.Get("/export", c.Export)
}

func (c *qaController) Ask(ctx *fiber.Ctx) error {
	var req dto.AskQuestionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	entry, err := c.documentService.Ask(ctx.Context(), req.DocumentId, req.Question)
	if err != nil {
		if errors.Is(err, service.ErrEmptyQuestion) || errors.Is(err, service.ErrNoDocumentSelected) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return err
	}

	// The placeholder is returned right away; the final answer replaces it
	// in the history once the gateway resolves.
	return ctx.Status(fiber.StatusAccepted).JSON(
		serverutils.SuccessResponse("Question submitted", dto.AskQuestionResponse{Entry: entry}),
	)
}

func (c *qaController) History(ctx *fiber.Ctx) error {
	documentId := ctx.Query("document_id")
	search := ctx.Query("search")

	entries := c.documentService.History(ctx.Context(), documentId, search)

	return ctx.JSON(serverutils.SuccessResponse("Success list history", dto.HistoryResponse{
		Entries: entries,
	}))
}

func (c *qaController) Export(ctx *fiber.Ctx) error {
	documentId := ctx.Query("document_id")

	filename, data, err := c.documentService.Export(ctx.Context(), documentId)
	if err != nil {
		if errors.Is(err, service.ErrNoDocumentSelected) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return err
	}

	ctx.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	ctx.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename=%q`, filename))
	return ctx.Send(data)
}
