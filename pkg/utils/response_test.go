package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/filedepot/backend/pkg/apperr"
	"github.com/gofiber/fiber/v2"
)

func setupResponseTestApp() *fiber.App {
	app := fiber.New()

	app.Get("/success", func(c *fiber.Ctx) error {
		return Success(c, fiber.StatusCreated, fiber.Map{"id": "123"})
	})

	app.Get("/error", func(c *fiber.Ctx) error {
		return Error(c, fiber.StatusBadRequest, "invalid input")
	})

	app.Get("/app-error/validation", func(c *fiber.Ctx) error {
		return AppError(c, apperr.New(apperr.CodeValidation, "name is required"))
	})

	app.Get("/app-error/not-found", func(c *fiber.Ctx) error {
		return AppError(c, apperr.New(apperr.CodeFileNotFound, "file not found"))
	})

	app.Get("/app-error/forbidden", func(c *fiber.Ctx) error {
		return AppError(c, apperr.NewForbidden("only the owner can delete this file"))
	})

	app.Get("/app-error/database", func(c *fiber.Ctx) error {
		return AppError(c, apperr.New(apperr.CodeDatabase, "query failed"))
	})

	app.Get("/app-error/plain", func(c *fiber.Ctx) error {
		return AppError(c, http.ErrBodyNotAllowed)
	})

	return app
}

func performResponseTestRequest(t *testing.T, app *fiber.App, path string) map[string]any {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request to %s failed: %v", path, err)
	}
	defer resp.Body.Close()

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed decoding %s response body: %v", path, err)
	}

	body["_statusCode"] = float64(resp.StatusCode)
	return body
}

func requireNumberField(t *testing.T, obj map[string]any, key string) int {
	t.Helper()

	raw, ok := obj[key]
	if !ok {
		t.Fatalf("expected field %q to exist in response", key)
	}

	number, ok := raw.(float64)
	if !ok {
		t.Fatalf("expected field %q to be numeric, got %T", key, raw)
	}

	return int(number)
}

func TestResponseHelpers(t *testing.T) {
	app := setupResponseTestApp()

	t.Run("Success returns expected envelope", func(t *testing.T) {
		body := performResponseTestRequest(t, app, "/success")

		if status := requireNumberField(t, body, "_statusCode"); status != fiber.StatusCreated {
			t.Fatalf("expected status %d, got %d", fiber.StatusCreated, status)
		}

		success, ok := body["success"].(bool)
		if !ok || !success {
			t.Fatalf("expected success=true, got %v", body["success"])
		}

		data, ok := body["data"].(map[string]any)
		if !ok {
			t.Fatalf("expected data object, got %T", body["data"])
		}
		if data["id"] != "123" {
			t.Fatalf("expected data.id to be %q, got %v", "123", data["id"])
		}
	})

	t.Run("Error returns expected envelope", func(t *testing.T) {
		body := performResponseTestRequest(t, app, "/error")

		if status := requireNumberField(t, body, "_statusCode"); status != fiber.StatusBadRequest {
			t.Fatalf("expected status %d, got %d", fiber.StatusBadRequest, status)
		}

		success, ok := body["success"].(bool)
		if !ok || success {
			t.Fatalf("expected success=false, got %v", body["success"])
		}
		if body["error"] != "invalid input" {
			t.Fatalf("expected error message %q, got %v", "invalid input", body["error"])
		}
	})
}

func TestAppErrorMapping(t *testing.T) {
	app := setupResponseTestApp()

	cases := []struct {
		name    string
		path    string
		status  int
		message string
	}{
		{"validation maps to 400", "/app-error/validation", fiber.StatusBadRequest, "name is required"},
		{"not found maps to 404", "/app-error/not-found", fiber.StatusNotFound, "file not found"},
		{"forbidden maps to 403", "/app-error/forbidden", fiber.StatusForbidden, "only the owner can delete this file"},
		{"database maps to 500", "/app-error/database", fiber.StatusInternalServerError, "query failed"},
		{"uncoded errors map to 500 with a generic message", "/app-error/plain", fiber.StatusInternalServerError, "internal error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body := performResponseTestRequest(t, app, tc.path)

			if status := requireNumberField(t, body, "_statusCode"); status != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, status)
			}
			if success, ok := body["success"].(bool); !ok || success {
				t.Fatalf("expected success=false, got %v", body["success"])
			}
			if body["error"] != tc.message {
				t.Fatalf("expected error %q, got %v", tc.message, body["error"])
			}
		})
	}
}
