package repository

import (
	"context"
	"testing"
	"time"

	"github.com/Dhoini/clearpath-signup/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

func newBaseline(email string) domain.BaselineRequest {
	return domain.NewBaselineRequest("Ann", email, "https://ann.dev", "", "", "", testNow)
}

func TestMemorySubmissionRepository_Baselines(t *testing.T) {
	ctx := context.Background()
	repo := NewMemorySubmissionRepository()

	first := newBaseline("ann@ann.dev")
	second := newBaseline("bob@ann.dev")
	require.NoError(t, repo.SaveBaseline(ctx, first))
	require.NoError(t, repo.SaveBaseline(ctx, second))

	count, err := repo.CountQueuedBaselines(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	got, err := repo.GetBaseline(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first, got)

	t.Run("duplicate id", func(t *testing.T) {
		assert.ErrorIs(t, repo.SaveBaseline(ctx, first), ErrDuplicate)
	})

	t.Run("empty id", func(t *testing.T) {
		assert.ErrorIs(t, repo.SaveBaseline(ctx, domain.BaselineRequest{}), ErrInvalidData)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := repo.GetBaseline(ctx, "baseline_missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("only queued are counted", func(t *testing.T) {
		done := newBaseline("done@ann.dev")
		done.Status = "completed"
		require.NoError(t, repo.SaveBaseline(ctx, done))

		count, err := repo.CountQueuedBaselines(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})
}

func TestMemorySubmissionRepository_Rescans(t *testing.T) {
	ctx := context.Background()
	repo := NewMemorySubmissionRepository()

	req := domain.NewRescanRequest("ann@ann.dev", "https://ann.dev", "", "", testNow)
	require.NoError(t, repo.SaveRescan(ctx, req))
	require.NoError(t, repo.SaveRescan(ctx, req))
	assert.ErrorIs(t, repo.SaveRescan(ctx, domain.RescanRequest{}), ErrInvalidData)

	rescans := repo.Rescans()
	require.Len(t, rescans, 2)
	assert.Equal(t, req, rescans[0])

	rescans[0].Email = "changed@ann.dev"
	assert.Equal(t, "ann@ann.dev", repo.Rescans()[0].Email)
}
