package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dhoini/clearpath-signup/internal/domain"
	"github.com/Dhoini/clearpath-signup/internal/repository"
	"github.com/Dhoini/clearpath-signup/pkg/logger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
	CREATE TABLE IF NOT EXISTS baseline_requests (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		email       TEXT NOT NULL,
		website     TEXT NOT NULL,
		company     TEXT NOT NULL DEFAULT '',
		type        TEXT NOT NULL,
		submitted   TEXT NOT NULL,
		status      TEXT NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS baseline_requests_status_idx ON baseline_requests (status);
	CREATE TABLE IF NOT EXISTS rescan_requests (
		id          TEXT PRIMARY KEY,
		email       TEXT NOT NULL,
		website     TEXT NOT NULL,
		context     TEXT NOT NULL,
		report_url  TEXT NOT NULL DEFAULT '',
		created_at  TIMESTAMPTZ NOT NULL
	);
`

// uniqueViolation код ошибки PostgreSQL для нарушения уникальности
const uniqueViolation = "23505"

// SubmissionRepository хранение заявок в PostgreSQL
type SubmissionRepository struct {
	db  *pgxpool.Pool
	log *logger.Logger
}

// NewSubmissionRepository создает репозиторий заявок
func NewSubmissionRepository(db *pgxpool.Pool, log *logger.Logger) *SubmissionRepository {
	return &SubmissionRepository{
		db:  db,
		log: log,
	}
}

// EnsureSchema создает таблицы, если их нет
func (r *SubmissionRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// SaveBaseline сохраняет заявку на базовый отчет
func (r *SubmissionRepository) SaveBaseline(ctx context.Context, req domain.BaselineRequest) error {
	query := `
		INSERT INTO baseline_requests (id, name, email, website, company, type, submitted, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.Exec(ctx, query,
		req.ID,
		req.Name,
		req.Email,
		req.Website,
		req.Company,
		req.Type,
		req.Timestamp,
		req.Status,
		req.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return repository.ErrDuplicate
		}
		r.log.Errorw("Failed to save baseline request", "error", err, "requestID", req.ID)
		return fmt.Errorf("failed to save baseline request: %w", err)
	}

	return nil
}

// CountQueuedBaselines число заявок в очереди
func (r *SubmissionRepository) CountQueuedBaselines(ctx context.Context) (int, error) {
	query := `SELECT COUNT(*) FROM baseline_requests WHERE status = $1`

	var n int
	if err := r.db.QueryRow(ctx, query, domain.BaselineStatusQueued).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count queued baselines: %w", err)
	}
	return n, nil
}

// GetBaseline возвращает заявку по ID
func (r *SubmissionRepository) GetBaseline(ctx context.Context, id string) (domain.BaselineRequest, error) {
	query := `
		SELECT id, name, email, website, company, type, submitted, status, created_at
		FROM baseline_requests
		WHERE id = $1
	`

	var b domain.BaselineRequest
	err := r.db.QueryRow(ctx, query, id).Scan(
		&b.ID,
		&b.Name,
		&b.Email,
		&b.Website,
		&b.Company,
		&b.Type,
		&b.Timestamp,
		&b.Status,
		&b.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.BaselineRequest{}, repository.ErrNotFound
		}
		return domain.BaselineRequest{}, fmt.Errorf("failed to get baseline request: %w", err)
	}
	return b, nil
}

// SaveRescan сохраняет запрос на повторное сканирование
func (r *SubmissionRepository) SaveRescan(ctx context.Context, req domain.RescanRequest) error {
	query := `
		INSERT INTO rescan_requests (id, email, website, context, report_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	if _, err := r.db.Exec(ctx, query, req.ID, req.Email, req.Website, req.Context, req.ReportURL, req.CreatedAt); err != nil {
		r.log.Errorw("Failed to save rescan request", "error", err, "requestID", req.ID)
		return fmt.Errorf("failed to save rescan request: %w", err)
	}
	return nil
}

var _ repository.SubmissionRepository = (*SubmissionRepository)(nil)
