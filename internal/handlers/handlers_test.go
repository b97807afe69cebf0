package handlers

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// testApp wires only the request-validation surface; requests in these
// tests are rejected before any dependency is touched.
func testApp() *fiber.App {
	log := logrus.New()
	log.SetOutput(io.Discard)

	h := &ApplicationHandler{
		Validate:   validator.New(),
		Logger:     log,
		PresignTTL: time.Hour,
	}

	app := fiber.New()
	api := app.Group("/api/v1")
	api.Post("/upload", h.UploadVideo)
	api.Post("/process-url", h.ProcessURL)
	api.Get("/videos/:videoId", h.GetVideo)
	api.Post("/videos/:videoId/retry", h.RetryVideo)
	api.Post("/clips/:clipId/convert-shorts", h.ConvertShorts)
	api.Get("/search/:videoId", h.SearchVideo)
	return app
}

func TestMissingUserHeaderIsUnauthorized(t *testing.T) {
	app := testApp()

	for _, route := range []struct {
		method string
		path   string
	}{
		{"POST", "/api/v1/upload"},
		{"POST", "/api/v1/process-url"},
		{"GET", "/api/v1/videos/3f1d3f66-0000-0000-0000-000000000000"},
		{"GET", "/api/v1/search/3f1d3f66-0000-0000-0000-000000000000?q=x"},
		{"POST", "/api/v1/videos/3f1d3f66-0000-0000-0000-000000000000/retry"},
	} {
		req := httptest.NewRequest(route.method, route.path, nil)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("%s %s: %v", route.method, route.path, err)
		}
		if resp.StatusCode != fiber.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401, got %d", route.method, route.path, resp.StatusCode)
		}
	}
}

func TestInvalidIDsAreRejected(t *testing.T) {
	app := testApp()

	req := httptest.NewRequest("GET", "/api/v1/videos/not-a-uuid", nil)
	req.Header.Set("X-User-ID", "user-1")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for bad video id, got %d", resp.StatusCode)
	}

	req = httptest.NewRequest("POST", "/api/v1/videos/not-a-uuid/retry", nil)
	req.Header.Set("X-User-ID", "user-1")
	resp, err = app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for bad retry video id, got %d", resp.StatusCode)
	}
}

func TestConvertShortsRejectsUnknownLayout(t *testing.T) {
	app := testApp()

	body := strings.NewReader(`{"layout_type":"diagonal"}`)
	req := httptest.NewRequest("POST", "/api/v1/clips/3f1d3f66-0000-0000-0000-000000000000/convert-shorts", body)
	req.Header.Set("X-User-ID", "user-1")
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for unknown layout, got %d", resp.StatusCode)
	}
}

func TestProcessURLRequiresValidURL(t *testing.T) {
	app := testApp()

	body := strings.NewReader(`{"url":"not a url"}`)
	req := httptest.NewRequest("POST", "/api/v1/process-url", body)
	req.Header.Set("X-User-ID", "user-1")
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for invalid url, got %d", resp.StatusCode)
	}
}

func TestSearchRequiresQuery(t *testing.T) {
	app := testApp()

	req := httptest.NewRequest("GET", "/api/v1/search/3f1d3f66-0000-0000-0000-000000000000", nil)
	req.Header.Set("X-User-ID", "user-1")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for missing query, got %d", resp.StatusCode)
	}
}
