package repository

import (
	"context"
	"sync"

	"github.com/Dhoini/clearpath-signup/internal/domain"
)

// SubmissionRepository локальное хранилище заявок. Это журнал, а не очередь.
type SubmissionRepository interface {
	SaveBaseline(ctx context.Context, req domain.BaselineRequest) error
	// CountQueuedBaselines число заявок в статусе queued
	CountQueuedBaselines(ctx context.Context) (int, error)
	GetBaseline(ctx context.Context, id string) (domain.BaselineRequest, error)
	SaveRescan(ctx context.Context, req domain.RescanRequest) error
}

// MemorySubmissionRepository хранилище в памяти процесса
type MemorySubmissionRepository struct {
	mu        sync.RWMutex
	baselines map[string]domain.BaselineRequest
	rescans   []domain.RescanRequest
}

// NewMemorySubmissionRepository создает хранилище в памяти
func NewMemorySubmissionRepository() *MemorySubmissionRepository {
	return &MemorySubmissionRepository{
		baselines: make(map[string]domain.BaselineRequest),
	}
}

func (r *MemorySubmissionRepository) SaveBaseline(_ context.Context, req domain.BaselineRequest) error {
	if req.ID == "" {
		return ErrInvalidData
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.baselines[req.ID]; ok {
		return ErrDuplicate
	}
	r.baselines[req.ID] = req
	return nil
}

func (r *MemorySubmissionRepository) CountQueuedBaselines(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, b := range r.baselines {
		if b.Status == domain.BaselineStatusQueued {
			n++
		}
	}
	return n, nil
}

func (r *MemorySubmissionRepository) GetBaseline(_ context.Context, id string) (domain.BaselineRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.baselines[id]
	if !ok {
		return domain.BaselineRequest{}, ErrNotFound
	}
	return b, nil
}

func (r *MemorySubmissionRepository) SaveRescan(_ context.Context, req domain.RescanRequest) error {
	if req.ID == "" {
		return ErrInvalidData
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rescans = append(r.rescans, req)
	return nil
}

// Rescans копия сохраненных запросов на повторное сканирование
func (r *MemorySubmissionRepository) Rescans() []domain.RescanRequest {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.RescanRequest, len(r.rescans))
	copy(out, r.rescans)
	return out
}
