package serverutils

import (
	"errors"

	"notesync-be/internal/pkg/apperror"
	"notesync-be/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

var fiberCodes = map[int]apperror.Code{
	fiber.StatusUnauthorized:     apperror.CodeUnauthorized,
	fiber.StatusNotFound:         apperror.CodeNotFound,
	fiber.StatusMethodNotAllowed: apperror.CodeNotSupported,
}

// ErrorHandlerMiddleware renders errors returned by later handlers as
// ErrorBody. Anything that is not an *apperror.Error or *fiber.Error becomes
// INTERNAL_SERVER_ERROR and is logged.
func ErrorHandlerMiddleware(log logger.ILogger) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}
		return WriteError(ctx, log, err)
	}
}

// WriteError is also installed as the app's ErrorHandler so errors raised
// before the middleware chain runs get the same body.
func WriteError(ctx *fiber.Ctx, log logger.ILogger, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code, ok := fiberCodes[fiberErr.Code]
		if !ok {
			code = apperror.CodeInvalidRequest
			if fiberErr.Code >= fiber.StatusInternalServerError {
				code = apperror.CodeInternalServerError
			}
		}
		return ctx.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Code, code, fiberErr.Message))
	}

	appErr := apperror.From(err)
	status := appErr.Status()
	if status >= fiber.StatusInternalServerError {
		log.Error("HTTP", "Request failed", map[string]interface{}{
			"method": ctx.Method(),
			"path":   ctx.Path(),
			"error":  err,
		})
		return ctx.Status(status).JSON(ErrorResponse(status, appErr.Code, "internal server error"))
	}
	return ctx.Status(status).JSON(ErrorResponse(status, appErr.Code, appErr.Message))
}
