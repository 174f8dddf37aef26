package serverutils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"video-rag-chat-be/internal/pkg/logger"
	"video-rag-chat-be/pkg/rag/failure"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"fiber error", fiber.NewError(fiber.StatusNotFound, "nope"), 404},
		{"transcript", failure.New(failure.ErrTranscriptUnavailable, "fetch", "no captions"), 422},
		{"store", failure.New(failure.ErrStoreUnavailable, "upsert", "down"), 503},
		{"generation", failure.New(failure.ErrGenerationFailed, "chat", "empty"), 502},
		{"timeout", failure.New(failure.ErrTimeout, "chat", "slow"), 504},
		{"malformed", failure.New(failure.ErrMalformedMessage, "decode", "bad"), 400},
		{"wrapped kind", fmt.Errorf("outer: %w", failure.New(failure.ErrStoreUnavailable, "q", "x")), 503},
		{"plain", errors.New("boom"), 500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}

type sample struct {
	Name    string `json:"user_query" validate:"required"`
	Session string `json:"session" validate:"required"`
}

func TestValidateRequest(t *testing.T) {
	assert.NoError(t, ValidateRequest(sample{Name: "q", Session: "s"}))

	err := ValidateRequest(sample{Name: "q"})
	var fe *fiber.Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, fiber.StatusBadRequest, fe.Code)
	assert.Contains(t, fe.Message, "session")
}

func TestErrorHandlerMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(ErrorHandlerMiddleware(logger.NewNopLogger()))
	app.Get("/gen", func(c *fiber.Ctx) error {
		return failure.New(failure.ErrGenerationFailed, "answer.generate", "model returned an empty answer")
	})
	app.Get("/ok", func(c *fiber.Ctx) error {
		return c.JSON(SuccessResponse("fine", map[string]string{"a": "b"}))
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/gen", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadGateway, resp.StatusCode)

	raw, _ := io.ReadAll(resp.Body)
	var body Response[any]
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.False(t, body.Success)
	assert.Equal(t, 502, body.Code)
	assert.Equal(t, "generation_failed", body.Error)

	resp, err = app.Test(httptest.NewRequest("GET", "/ok", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
