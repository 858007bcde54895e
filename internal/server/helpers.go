package server

import (
	"errors"
	"log/slog"
	"strconv"

	"postboard/internal/middleware"
	"postboard/internal/models"

	"github.com/gofiber/fiber/v2"
)

const authContextKey = "auth"

// errResponseWritten signals that a helper already committed the response.
// Handlers return nil when they see it.
var errResponseWritten = errors.New("response already written")

// authFrom returns the AuthContext stored by AuthRequired.
func authFrom(c *fiber.Ctx) *models.AuthContext {
	auth, _ := c.Locals(authContextKey).(*models.AuthContext)
	return auth
}

func respondSuccess(c *fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(models.Envelope{
		Status:  models.StatusSuccess,
		Message: message,
		Data:    data,
	})
}

func respondError(c *fiber.Ctx, status int, message string, detail any) error {
	return c.Status(status).JSON(models.Envelope{
		Status:  models.StatusError,
		Message: message,
		Error:   detail,
	})
}

// respondInternal logs err and writes a 500. The raw error text is only
// exposed outside production.
func (s *Server) respondInternal(c *fiber.Ctx, message string, err error) error {
	middleware.Logger.ErrorContext(c.UserContext(), message,
		slog.String("path", c.Path()),
		slog.String("error", err.Error()),
	)
	var detail any
	if !s.config.IsProduction() {
		detail = err.Error()
	}
	return respondError(c, fiber.StatusInternalServerError, message, detail)
}

// respondAuthError maps auth service errors. Validation failures list their
// messages under "error" with a 400.
func (s *Server) respondAuthError(c *fiber.Ctx, err error, failure string) error {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case models.CodeValidation:
			return respondError(c, fiber.StatusBadRequest, appErr.Message, appErr.Messages())
		case models.CodeUnauthorized:
			return respondError(c, fiber.StatusUnauthorized, appErr.Message,
				"The provided credentials do not match our records.")
		}
	}
	return s.respondInternal(c, failure, err)
}

// respondPostError maps post service errors. Validation failures group their
// messages by field under "errors" with a 422.
func (s *Server) respondPostError(c *fiber.Ctx, err error, failure string) error {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case models.CodeValidation:
			return c.Status(fiber.StatusUnprocessableEntity).JSON(models.Envelope{
				Status:  models.StatusError,
				Message: appErr.Message,
				Errors:  appErr.FieldMap(),
			})
		case models.CodeNotFound:
			return respondPostNotFound(c)
		}
	}
	return s.respondInternal(c, failure, err)
}

func respondPostNotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(models.Envelope{
		Status:  models.StatusError,
		Message: "Post not found",
	})
}

// parsePostID reads the :id parameter. Anything that is not a positive
// integer cannot name a post, so it is answered with a 404.
func parsePostID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		_ = respondPostNotFound(c)
		return 0, errResponseWritten
	}
	return uint(id), nil
}
