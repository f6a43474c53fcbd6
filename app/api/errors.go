package api

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
)

// Error is a client-visible API error with an HTTP status.
type Error struct {
	Code    int    `json:"-"`
	Message string `json:"error"`
}

func (e Error) Error() string {
	return e.Message
}

func NewError(code int, msg string) Error {
	return Error{Code: code, Message: msg}
}

func ErrMissingQuestion() Error {
	return NewError(fiber.StatusBadRequest, "Missing question")
}

func ErrBadRequest() Error {
	return NewError(fiber.StatusBadRequest, "invalid JSON request")
}

// internalError is the fixed shape of a 500 response: a short
// kind+message summary, empty answer, empty sources. Internal detail
// never leaks beyond the message.
type internalError struct {
	Message string   `json:"error"`
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
}

// ErrorHandler converts every error escaping a handler into a structured
// JSON response. The serving process never crashes on a request.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var apiErr Error
	if errors.As(err, &apiErr) {
		return c.Status(apiErr.Code).JSON(apiErr)
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) && fiberErr.Code < fiber.StatusInternalServerError {
		return c.Status(fiberErr.Code).JSON(Error{Code: fiberErr.Code, Message: fiberErr.Message})
	}

	slog.Error("request failed", "path", c.Path(), "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(internalError{
		Message: err.Error(),
		Answer:  "",
		Sources: []string{},
	})
}
