package server

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"inkwell/internal/media"
	"inkwell/internal/middleware"
	"inkwell/internal/models"

	"github.com/gofiber/fiber/v2"
)

// imageField is the multipart part carrying an article cover image.
const imageField = "imageFile"

// respondError writes err with its AppError status. Anything else is logged
// and answered with a 500 carrying the fixed fallback message, so store and
// media failures never leak to clients.
func respondError(c *fiber.Ctx, err error, fallback string) error {
	if appErr, ok := models.AsAppError(err); ok && appErr.Code != models.CodeInternal {
		return models.RespondWithError(c, appErr.Status(), appErr)
	}

	middleware.Logger.ErrorContext(c.UserContext(), fallback, slog.String("error", err.Error()))
	return models.RespondWithError(c, fiber.StatusInternalServerError, &models.AppError{
		Code:    models.CodeInternal,
		Message: fallback,
		Err:     err,
	})
}

// respondCommentError answers comment ownership mismatches with 401, which is
// what existing clients of the comment endpoints expect.
func respondCommentError(c *fiber.Ctx, err error, fallback string) error {
	if appErr, ok := models.AsAppError(err); ok && appErr.Code == models.CodeForbidden {
		return models.RespondWithError(c, fiber.StatusUnauthorized, models.NewUnauthorizedError(appErr.Message))
	}
	return respondError(c, err, fallback)
}

func pathID(c *fiber.Ctx, param string) models.ID {
	return models.ID(strings.TrimSpace(c.Params(param)))
}

func invalidBody(c *fiber.Ctx) error {
	return models.RespondWithError(c, fiber.StatusBadRequest,
		models.NewValidationError("Invalid request body"))
}

func isMultipart(c *fiber.Ctx) bool {
	return strings.HasPrefix(strings.ToLower(c.Get(fiber.HeaderContentType)), fiber.MIMEMultipartForm)
}

// formImage reads the optional image part of a multipart request. It returns
// nil when the request is not multipart or carries no image part.
func formImage(c *fiber.Ctx) (*media.File, error) {
	if !isMultipart(c) {
		return nil, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, models.NewValidationError("Invalid multipart body")
	}
	files := form.File[imageField]
	if len(files) == 0 {
		return nil, nil
	}

	header := files[0]
	src, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("open uploaded file: %w", err)
	}
	defer func() { _ = src.Close() }()

	content, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("read uploaded file: %w", err)
	}
	return &media.File{
		Filename:    header.Filename,
		ContentType: header.Header.Get(fiber.HeaderContentType),
		Content:     content,
	}, nil
}
