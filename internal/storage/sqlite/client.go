package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/complaints/backend/internal/storage/models"
	"github.com/complaints/backend/pkg/logger"
)

type Client struct {
	db *sql.DB
}

func NewClient(dbPath string, busyTimeoutMs int) (*Client, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=%d", dbPath, busyTimeoutMs)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS complaints (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		text TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'open',
		sentiment TEXT NOT NULL DEFAULT 'unknown',
		category TEXT NOT NULL DEFAULT 'other',
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_complaints_status ON complaints(status);
	CREATE INDEX IF NOT EXISTS idx_complaints_created ON complaints(created_at);
	`

	_, err := c.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}

// InsertComplaint stores a new complaint and assigns its ID. Empty status,
// sentiment and category are replaced with their defaults.
func (c *Client) InsertComplaint(ctx context.Context, complaint *models.Complaint) error {
	if complaint.Status == "" {
		complaint.Status = models.StatusOpen
	}
	if complaint.Sentiment == "" {
		complaint.Sentiment = models.SentimentUnknown
	}
	if complaint.Category == "" {
		complaint.Category = models.CategoryOther
	}
	if complaint.CreatedAt.IsZero() {
		complaint.CreatedAt = time.Now().UTC()
	}

	query := `INSERT INTO complaints (text, status, sentiment, category, created_at) VALUES (?, ?, ?, ?, ?)`

	res, err := c.db.ExecContext(
		ctx,
		query,
		complaint.Text,
		complaint.Status,
		complaint.Sentiment,
		complaint.Category,
		complaint.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert complaint: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read complaint id: %w", err)
	}
	complaint.ID = id

	logger.Debug("Complaint inserted", zap.Int64("complaint_id", id))
	return nil
}

func (c *Client) UpdateCategory(ctx context.Context, id int64, category string) (*models.Complaint, error) {
	return c.updateColumn(ctx, id, "category", category)
}

func (c *Client) UpdateStatus(ctx context.Context, id int64, status string) (*models.Complaint, error) {
	return c.updateColumn(ctx, id, "status", status)
}

// updateColumn is only called with the fixed column names above.
func (c *Client) updateColumn(ctx context.Context, id int64, column, value string) (*models.Complaint, error) {
	query := fmt.Sprintf(`UPDATE complaints SET %s = ? WHERE id = ?`, column)

	res, err := c.db.ExecContext(ctx, query, value, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update complaint %s: %w", column, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to update complaint %s: %w", column, err)
	}
	if affected == 0 {
		return nil, models.ErrNotFound
	}

	return c.GetComplaint(ctx, id)
}

func (c *Client) GetComplaint(ctx context.Context, id int64) (*models.Complaint, error) {
	query := `SELECT id, text, status, sentiment, category, created_at FROM complaints WHERE id = ?`

	complaint, err := scanComplaint(c.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get complaint: %w", err)
	}

	return complaint, nil
}

func (c *Client) ListComplaints(ctx context.Context, filter models.ListFilter) ([]models.Complaint, error) {
	var (
		conditions []string
		args       []interface{}
	)

	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.Since != nil {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, filter.Since.UnixMilli())
	}

	query := `SELECT id, text, status, sentiment, category, created_at FROM complaints`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY id ASC"

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list complaints: %w", err)
	}
	defer rows.Close()

	complaints := make([]models.Complaint, 0)
	for rows.Next() {
		complaint, err := scanComplaint(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		complaints = append(complaints, *complaint)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list complaints: %w", err)
	}

	return complaints, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanComplaint(row scanner) (*models.Complaint, error) {
	var complaint models.Complaint
	var createdAt int64

	err := row.Scan(
		&complaint.ID,
		&complaint.Text,
		&complaint.Status,
		&complaint.Sentiment,
		&complaint.Category,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	complaint.CreatedAt = time.UnixMilli(createdAt).UTC()
	return &complaint, nil
}
