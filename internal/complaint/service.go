package complaint

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/complaints/backend/internal/metrics"
	"github.com/complaints/backend/internal/storage/models"
	"github.com/complaints/backend/pkg/logger"
	"github.com/complaints/backend/pkg/utils"
)

type Store interface {
	InsertComplaint(ctx context.Context, complaint *models.Complaint) error
	UpdateCategory(ctx context.Context, id int64, category string) (*models.Complaint, error)
	UpdateStatus(ctx context.Context, id int64, status string) (*models.Complaint, error)
	GetComplaint(ctx context.Context, id int64) (*models.Complaint, error)
	ListComplaints(ctx context.Context, filter models.ListFilter) ([]models.Complaint, error)
}

// SentimentClassifier returns a usable label even when err is non-nil.
type SentimentClassifier interface {
	ClassifySentiment(ctx context.Context, text string) (string, error)
}

// CategoryClassifier returns a canonical category even when err is non-nil.
type CategoryClassifier interface {
	ClassifyCategory(ctx context.Context, text string) (string, error)
}

type Service struct {
	store     Store
	sentiment SentimentClassifier
	category  CategoryClassifier
}

func NewService(store Store, sentiment SentimentClassifier, category CategoryClassifier) *Service {
	return &Service{
		store:     store,
		sentiment: sentiment,
		category:  category,
	}
}

// Create classifies and stores a complaint. The record is inserted with the
// default category first and updated once the category is known, so a
// concurrent reader may briefly see category "other".
func (s *Service) Create(ctx context.Context, text string) (*models.Complaint, error) {
	fingerprint := utils.Fingerprint(text)

	sentiment, err := s.sentiment.ClassifySentiment(ctx, text)
	if err != nil {
		logger.Warn("Sentiment classification fell back",
			zap.String("fingerprint", fingerprint),
			zap.String("sentiment", sentiment),
			zap.Error(err),
		)
	}

	record := &models.Complaint{
		Text:      text,
		Status:    models.StatusOpen,
		Sentiment: sentiment,
		Category:  models.CategoryOther,
	}
	if err := s.store.InsertComplaint(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to store complaint: %w", err)
	}

	category, err := s.category.ClassifyCategory(ctx, text)
	if err != nil {
		logger.Warn("Category classification fell back",
			zap.Int64("complaint_id", record.ID),
			zap.String("fingerprint", fingerprint),
			zap.String("category", category),
			zap.Error(err),
		)
	}
	if !models.IsCategory(category) {
		category = models.CategoryOther
	}

	updated, err := s.store.UpdateCategory(ctx, record.ID, category)
	if err != nil {
		return nil, fmt.Errorf("failed to update complaint category: %w", err)
	}

	metrics.ComplaintsCreated.Inc()
	metrics.ComplaintCategories.WithLabelValues(updated.Category).Inc()

	logger.Info("Complaint created",
		zap.Int64("complaint_id", updated.ID),
		zap.String("fingerprint", fingerprint),
		zap.String("sentiment", updated.Sentiment),
		zap.String("category", updated.Category),
	)

	return updated, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*models.Complaint, error) {
	return s.store.GetComplaint(ctx, id)
}

func (s *Service) List(ctx context.Context, filter models.ListFilter) ([]models.Complaint, error) {
	return s.store.ListComplaints(ctx, filter)
}

func (s *Service) UpdateStatus(ctx context.Context, id int64, status string) (*models.Complaint, error) {
	updated, err := s.store.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}

	metrics.StatusUpdates.Inc()
	logger.Info("Complaint status updated",
		zap.Int64("complaint_id", id),
		zap.String("status", status),
	)

	return updated, nil
}
