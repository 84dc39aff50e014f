package ops

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain"
)

// APIResponse is the envelope of every admin API response.
type APIResponse struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message,omitempty"`
	Data      any       `json:"data,omitempty"`
	Error     *APIError `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func sendSuccess(c *fiber.Ctx, data any, message string) error {
	return c.Status(http.StatusOK).JSON(APIResponse{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now().UTC(),
	})
}

func sendError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(APIResponse{
		Error:     &APIError{Code: code, Message: message},
		Timestamp: time.Now().UTC(),
	})
}

// sendDomainError maps the error class onto an HTTP status.
func sendDomainError(c *fiber.Ctx, err error) error {
	var de *domain.Error
	if !errors.As(err, &de) {
		return sendError(c, http.StatusInternalServerError, "internal", domain.Message(err))
	}
	switch de.Class {
	case domain.Validation:
		return sendError(c, http.StatusBadRequest, de.Code, de.Message)
	case domain.Policy:
		return sendError(c, http.StatusConflict, de.Code, de.Message)
	default:
		return sendError(c, http.StatusInternalServerError, de.Code, domain.Message(err))
	}
}

// errorHandler answers errors that escape a handler, such as unknown routes.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	}
	return sendError(c, code, "http_error", message)
}
