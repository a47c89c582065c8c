package complaint

import (
	"errors"
	"net/http"

	"github.com/complaints/backend/internal/storage/models"
)

var ErrNotFound = models.ErrNotFound

// MapHTTPStatus maps complaint errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
