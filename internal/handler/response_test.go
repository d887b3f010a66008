package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"cafe-stock/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: name is required", service.ErrValidation), fiber.StatusBadRequest},
		{service.ErrMissingProof, fiber.StatusBadRequest},
		{service.ErrInvalidCredentials, fiber.StatusUnauthorized},
		{service.ErrForbidden, fiber.StatusForbidden},
		{fmt.Errorf("payment: %w", service.ErrNotFound), fiber.StatusNotFound},
		{service.ErrInsufficientStock, fiber.StatusConflict},
		{service.ErrNoChange, fiber.StatusConflict},
		{service.ErrDuplicateKey, fiber.StatusConflict},
		{service.ErrInvalidTransition, fiber.StatusConflict},
		{service.ErrProductInUse, fiber.StatusConflict},
		{service.ErrProfileRequired, fiber.StatusConflict},
		{errors.New("disk on fire"), fiber.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestRespondErrorHidesInternalErrors(t *testing.T) {
	app := fiber.New()
	app.Get("/boom", func(c *fiber.Ctx) error {
		return respondError(c, zap.NewNop(), errors.New("dial tcp 10.0.0.5:5432: refused"))
	})
	app.Get("/short", func(c *fiber.Ctx) error {
		return respondError(c, zap.NewNop(), service.ErrInsufficientStock)
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/boom", nil))
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != fiber.StatusInternalServerError || strings.Contains(string(body), "10.0.0.5") {
		t.Errorf("internal error leaked: %d %s", resp.StatusCode, body)
	}

	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/short", nil))
	if err != nil {
		t.Fatal(err)
	}
	body, _ = io.ReadAll(resp.Body)
	if resp.StatusCode != fiber.StatusConflict || !strings.Contains(string(body), service.ErrInsufficientStock.Error()) {
		t.Errorf("conflict response: %d %s", resp.StatusCode, body)
	}
}
