package controller

import (
	"errors"
	"io"

	"document-qa-be/internal/dto"
	"document-qa-be/internal/pkg/serverutils"
	"document-qa-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IDocumentController interface {
	RegisterRoutes(r fiber.Router)
	Upload(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	Select(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	ClearAll(ctx *fiber.Ctx) error
}

type documentController struct {
	documentService service.IDocumentService
}

func NewDocumentController(documentService service.IDocumentService) IDocumentController {
	return &documentController{
		documentService: documentService,
	}
}

func (c *documentController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/document/v1")
	h.Post("/upload", c.Upload)
	h.Get("/", c.List)
	h.Put("/:id/select", c.Select)
	h.Delete("/:id", c.Delete)

	// Clearing is a storage-level operation, not a per-document one.
	s := r.Group("/storage/v1")
	s.Delete("/", c.ClearAll)
}

func (c *documentController) Upload(ctx *fiber.Ctx) error {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Missing file field")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return err
	}

	doc, err := c.documentService.Upload(
		ctx.Context(),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		content,
	)
	if err != nil {
		if errors.Is(err, service.ErrFileTooLarge) || errors.Is(err, service.ErrContentTooLarge) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return err
	}

	return ctx.Status(fiber.StatusAccepted).JSON(
		serverutils.SuccessResponse("Upload started", dto.UploadDocumentResponse{Document: doc}),
	)
}

func (c *documentController) List(ctx *fiber.Ctx) error {
	search := ctx.Query("search")

	docs, selectedId := c.documentService.Documents(ctx.Context(), search)

	return ctx.JSON(serverutils.SuccessResponse("Success list documents", dto.ListDocumentsResponse{
		Documents:          docs,
		SelectedDocumentId: selectedId,
	}))
}

func (c *documentController) Select(ctx *fiber.Ctx) error {
	id := ctx.Params("id")

	if err := c.documentService.Select(ctx.Context(), id); err != nil {
		if errors.Is(err, service.ErrDocumentNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Document not found")
		}
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success select document", dto.SelectDocumentResponse{
		SelectedDocumentId: id,
	}))
}

func (c *documentController) Delete(ctx *fiber.Ctx) error {
	id := ctx.Params("id")

	if err := c.documentService.Delete(ctx.Context(), id); err != nil {
		if errors.Is(err, service.ErrDocumentNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Document not found")
		}
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete document", nil))
}

func (c *documentController) ClearAll(ctx *fiber.Ctx) error {
	c.documentService.ClearAll(ctx.Context())
	return ctx.JSON(serverutils.SuccessResponse[any]("All data cleared", nil))
}
