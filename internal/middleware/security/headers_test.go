package security

import (
	"net/http/httptest"
	"testing"

	"github.com/go-playground/assert/v2"
	"github.com/gofiber/fiber/v2"
)

func TestHeadersMiddleware(t *testing.T) {
	tests := []struct {
		name     string
		cfg      HeadersConfig
		wantHSTS bool
		wantCSP  string
	}{
		{
			name:     "production",
			cfg:      HeadersConfig{AllowedOrigins: []string{"https://support.example.com", "*"}},
			wantHSTS: true,
			wantCSP:  "default-src 'none'; connect-src 'self' https://support.example.com; frame-ancestors 'none'; base-uri 'none'; form-action 'none'",
		},
		{
			name:    "development",
			cfg:     HeadersConfig{IsDevelopment: true},
			wantCSP: "default-src 'none'; connect-src 'self'; frame-ancestors 'none'; base-uri 'none'; form-action 'none'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Use(HeadersMiddleware(tt.cfg))
			app.Get("/health", func(c *fiber.Ctx) error { return c.SendString("ok") })

			resp, err := app.Test(httptest.NewRequest("GET", "/health", nil), -1)
			if err != nil {
				t.Fatalf("request: %v", err)
			}
			defer resp.Body.Close()

			assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
			assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
			assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
			assert.Equal(t, tt.wantCSP, resp.Header.Get("Content-Security-Policy"))
			assert.Equal(t, tt.wantHSTS, resp.Header.Get("Strict-Transport-Security") != "")
		})
	}
}
