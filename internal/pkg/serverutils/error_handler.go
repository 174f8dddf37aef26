package serverutils

import (
	"errors"

	"video-rag-chat-be/internal/pkg/logger"
	"video-rag-chat-be/pkg/rag/failure"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel/trace"
)

// StatusFor maps an error onto the HTTP status the API reports for it.
func StatusFor(err error) int {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}

	switch failure.KindOf(err) {
	case failure.ErrMalformedMessage:
		return fiber.StatusBadRequest
	case failure.ErrTranscriptUnavailable:
		return fiber.StatusUnprocessableEntity
	case failure.ErrGenerationFailed:
		return fiber.StatusBadGateway
	case failure.ErrStoreUnavailable:
		return fiber.StatusServiceUnavailable
	case failure.ErrTimeout:
		return fiber.StatusGatewayTimeout
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandler renders err as a Response envelope. It is installed as the
// fiber.Config ErrorHandler so panics recovered by fiber land here too.
func ErrorHandler(log logger.ILogger) fiber.ErrorHandler {
	return func(ctx *fiber.Ctx, err error) error {
		status := StatusFor(err)

		details := map[string]interface{}{
			"method": ctx.Method(),
			"path":   ctx.Path(),
			"status": status,
			"error":  err.Error(),
		}
		if sc := trace.SpanFromContext(ctx.UserContext()).SpanContext(); sc.HasTraceID() {
			details["trace_id"] = sc.TraceID().String()
		}
		if status >= fiber.StatusInternalServerError {
			log.Error("HTTP", "Request failed", details)
		} else {
			log.Warn("HTTP", "Request rejected", details)
		}

		body := ErrorResponse(status, err.Error())
		var fe *fiber.Error
		if !errors.As(err, &fe) {
			body.Error = failure.Code(err)
		}
		return ctx.Status(status).JSON(body)
	}
}

// ErrorHandlerMiddleware resolves handler errors in place, before they reach
// the app-level handler.
func ErrorHandlerMiddleware(log logger.ILogger) fiber.Handler {
	handle := ErrorHandler(log)
	return func(ctx *fiber.Ctx) error {
		if err := ctx.Next(); err != nil {
			return handle(ctx, err)
		}
		return nil
	}
}
