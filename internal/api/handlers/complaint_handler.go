package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/complaints/backend/internal/complaint"
	"github.com/complaints/backend/internal/storage/models"
	"github.com/complaints/backend/pkg/logger"
)

type ComplaintService interface {
	Create(ctx context.Context, text string) (*models.Complaint, error)
	Get(ctx context.Context, id int64) (*models.Complaint, error)
	List(ctx context.Context, filter models.ListFilter) ([]models.Complaint, error)
	UpdateStatus(ctx context.Context, id int64, status string) (*models.Complaint, error)
}

var sinceLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

type ComplaintHandler struct {
	service ComplaintService
}

func NewComplaintHandler(service ComplaintService) *ComplaintHandler {
	return &ComplaintHandler{
		service: service,
	}
}

func (h *ComplaintHandler) Register(router fiber.Router) {
	router.Post("/complaints", h.Create)
	router.Get("/complaints", h.List)
	router.Get("/complaints/:id", h.Get)
	router.Patch("/complaints/:id/status", h.UpdateStatus)
}

func (h *ComplaintHandler) Create(c *fiber.Ctx) error {
	var req CreateComplaintRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if strings.TrimSpace(req.Text) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Text is required",
		})
	}

	created, err := h.service.Create(c.Context(), req.Text)
	if err != nil {
		return h.fail(c, "create", err)
	}

	return c.JSON(toResponse(created))
}

func (h *ComplaintHandler) List(c *fiber.Ctx) error {
	filter := models.ListFilter{
		Status: c.Query("status"),
	}

	if raw := c.Query("since"); raw != "" {
		since, err := parseSince(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid since parameter",
			})
		}
		filter.Since = &since
	}

	complaints, err := h.service.List(c.Context(), filter)
	if err != nil {
		return h.fail(c, "list", err)
	}

	resp := make([]ComplaintResponse, 0, len(complaints))
	for i := range complaints {
		resp = append(resp, toResponse(&complaints[i]))
	}
	return c.JSON(resp)
}

func (h *ComplaintHandler) Get(c *fiber.Ctx) error {
	id, err := complaintID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid complaint id",
		})
	}

	found, err := h.service.Get(c.Context(), id)
	if err != nil {
		return h.fail(c, "get", err)
	}

	return c.JSON(toResponse(found))
}

func (h *ComplaintHandler) UpdateStatus(c *fiber.Ctx) error {
	id, err := complaintID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid complaint id",
		})
	}

	var req UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if strings.TrimSpace(req.Status) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Status is required",
		})
	}

	updated, err := h.service.UpdateStatus(c.Context(), id, req.Status)
	if err != nil {
		return h.fail(c, "update status", err)
	}

	return c.JSON(toResponse(updated))
}

func (h *ComplaintHandler) fail(c *fiber.Ctx, op string, err error) error {
	status := complaint.MapHTTPStatus(err)
	if errors.Is(err, complaint.ErrNotFound) {
		return c.Status(status).JSON(fiber.Map{
			"error": "Complaint not found",
		})
	}

	logger.Error("Complaint operation failed",
		zap.String("operation", op),
		zap.Error(err),
	)
	return c.Status(status).JSON(fiber.Map{
		"error": "Internal server error",
	})
}

func complaintID(c *fiber.Ctx) (int64, error) {
	return strconv.ParseInt(c.Params("id"), 10, 64)
}

// parseSince reads timestamps without a zone as UTC.
func parseSince(raw string) (time.Time, error) {
	var lastErr error
	for _, layout := range sinceLayouts {
		t, err := time.Parse(layout, raw)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
