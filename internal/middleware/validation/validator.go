package validation

import (
	"strings"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/complaints/backend/pkg/utils"
)

type Config struct {
	MaxTextLength       int
	MaxStatusLength     int
	AllowedContentTypes []string
	Logger              *zap.Logger
}

// Middleware rejects malformed complaint bodies before they reach the
// handlers. Lengths are counted in runes.
func Middleware(cfg Config) fiber.Handler {
	if cfg.MaxTextLength == 0 {
		cfg.MaxTextLength = 5000
	}
	if cfg.MaxStatusLength == 0 {
		cfg.MaxStatusLength = 64
	}
	if len(cfg.AllowedContentTypes) == 0 {
		cfg.AllowedContentTypes = []string{"application/json"}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return func(c *fiber.Ctx) error {
		method := c.Method()
		if method != fiber.MethodPost && method != fiber.MethodPut && method != fiber.MethodPatch {
			return c.Next()
		}

		contentType := c.Get(fiber.HeaderContentType)
		if contentType != "" && !allowedContentType(contentType, cfg.AllowedContentTypes) {
			return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{
				"error": "Unsupported content type",
			})
		}

		path := strings.TrimSuffix(c.Path(), "/")

		switch {
		case method == fiber.MethodPost && path == "/complaints":
			text, status, msg := requiredString(c, "text", cfg.MaxTextLength)
			if status != 0 {
				return c.Status(status).JSON(fiber.Map{"error": msg})
			}
			if strings.ContainsRune(text, '\x00') {
				cfg.Logger.Warn("Rejected complaint text with NUL byte",
					zap.String("ip", c.IP()),
					zap.String("fingerprint", utils.Fingerprint(text)),
				)
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Text contains invalid characters",
				})
			}

		case method == fiber.MethodPatch && strings.HasPrefix(path, "/complaints/") && strings.HasSuffix(path, "/status"):
			if _, status, msg := requiredString(c, "status", cfg.MaxStatusLength); status != 0 {
				return c.Status(status).JSON(fiber.Map{"error": msg})
			}
		}

		return c.Next()
	}
}

// requiredString returns a non-zero HTTP status and message when field is
// missing, not a string, blank or longer than maxLen.
func requiredString(c *fiber.Ctx, field string, maxLen int) (string, int, string) {
	var req map[string]interface{}
	if err := c.BodyParser(&req); err != nil {
		return "", fiber.StatusBadRequest, "Invalid JSON format"
	}

	value, ok := req[field].(string)
	if !ok || strings.TrimSpace(value) == "" {
		return "", fiber.StatusBadRequest, capitalize(field) + " is required and must be a string"
	}

	if utf8.RuneCountInString(value) > maxLen {
		return "", fiber.StatusRequestEntityTooLarge, capitalize(field) + " exceeds maximum length"
	}

	return value, 0, ""
}

func allowedContentType(contentType string, allowed []string) bool {
	for _, allowedType := range allowed {
		if strings.Contains(contentType, allowedType) {
			return true
		}
	}
	return false
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
