package handlers

import "github.com/complaints/backend/internal/storage/models"

type CreateComplaintRequest struct {
	Text string `json:"text"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// ComplaintResponse is the public view of a complaint. Text and creation
// time are not exposed.
type ComplaintResponse struct {
	ID        int64  `json:"id"`
	Status    string `json:"status"`
	Sentiment string `json:"sentiment"`
	Category  string `json:"category"`
}

func toResponse(c *models.Complaint) ComplaintResponse {
	return ComplaintResponse{
		ID:        c.ID,
		Status:    c.Status,
		Sentiment: c.Sentiment,
		Category:  c.Category,
	}
}
