package service

import (
	"context"
	"testing"
	"time"

	"github.com/Dhoini/clearpath-signup/internal/domain"
	"github.com/Dhoini/clearpath-signup/internal/repository"
	"github.com/Dhoini/clearpath-signup/internal/stripe/stripetest"
	"github.com/Dhoini/clearpath-signup/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

func newBaselineFixture(repo repository.SubmissionRepository, p *stripetest.Provider) (*baselineService, *recordingPublisher, *recordingReporter) {
	pub := &recordingPublisher{}
	rep := &recordingReporter{}
	var identity IdentityService
	if p != nil {
		identity = newTestIdentity(p)
	}
	svc := NewBaselineService(repo, identity, nil, pub, rep, nil, logger.NewNop()).(*baselineService)
	svc.now = func() time.Time { return fixedNow }
	return svc, pub, rep
}

func validBaseline() BaselineInput {
	return BaselineInput{
		Name:    "Ann",
		Email:   "Ann@Example.com",
		Website: "https://ann.dev/",
		Company: "Acme",
	}
}

func TestBaselineService_Submit_Validation(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(in *BaselineInput)
		field string
	}{
		{name: "missing name", edit: func(in *BaselineInput) { in.Name = " " }, field: "name"},
		{name: "missing email", edit: func(in *BaselineInput) { in.Email = "" }, field: "email"},
		{name: "missing website", edit: func(in *BaselineInput) { in.Website = "" }, field: "website"},
		{name: "bad email", edit: func(in *BaselineInput) { in.Email = "ann" }, field: "email"},
		{name: "http website", edit: func(in *BaselineInput) { in.Website = "http://ann.dev" }, field: "website"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := repository.NewMemorySubmissionRepository()
			p := stripetest.New()
			svc, pub, _ := newBaselineFixture(repo, p)

			in := validBaseline()
			tt.edit(&in)
			receipt, _, err := svc.Submit(context.Background(), in)

			require.ErrorIs(t, err, domain.ErrInvalidRequest)
			assert.Nil(t, receipt)
			assert.Equal(t, tt.field, domain.AsAppError(err).Field)
			assert.Zero(t, p.Writes())
			assert.Empty(t, pub.Types())
			n, _ := repo.CountQueuedBaselines(context.Background())
			assert.Zero(t, n)
		})
	}
}

func TestBaselineService_Submit_MirrorsToCustomer(t *testing.T) {
	repo := repository.NewMemorySubmissionRepository()
	p := stripetest.New()
	svc, pub, _ := newBaselineFixture(repo, p)

	receipt, effect, err := svc.Submit(context.Background(), validBaseline())
	require.NoError(t, err)

	assert.True(t, effect.Succeeded())
	assert.True(t, receipt.Mirrored)
	assert.Equal(t, 1, receipt.QueuePosition)
	assert.Equal(t, fixedNow.Add(30*time.Minute), receipt.EstimatedCompletion)
	assert.Equal(t, "ann@example.com", receipt.Request.Email)

	stored, err := repo.GetBaseline(context.Background(), receipt.Request.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://ann.dev", stored.Website)

	customers := p.Customers()
	require.Len(t, customers, 1)
	assert.Equal(t, "Ann", customers[0].Name)
	assert.Equal(t, domain.SourceFreeBaseline, customers[0].Metadata[domain.KeyBASource])
	assert.Equal(t, "Acme", customers[0].Metadata[domain.KeyBACompany])
	assert.Equal(t, domain.BaselineStatusQueued, customers[0].Metadata[domain.KeyBAStatus])

	assert.Equal(t, []string{EventBaselineQueued}, pub.Types())
}

func TestBaselineService_Submit_QueuePositionGrows(t *testing.T) {
	repo := repository.NewMemorySubmissionRepository()
	svc, _, _ := newBaselineFixture(repo, nil)

	first, _, err := svc.Submit(context.Background(), validBaseline())
	require.NoError(t, err)
	second, _, err := svc.Submit(context.Background(), validBaseline())
	require.NoError(t, err)

	assert.Equal(t, 1, first.QueuePosition)
	assert.Equal(t, 2, second.QueuePosition)
	assert.NotEqual(t, first.Request.ID, second.Request.ID)
}

func TestBaselineService_Submit_ProviderFailureStillAcknowledged(t *testing.T) {
	repo := repository.NewMemorySubmissionRepository()
	p := stripetest.New()
	p.FailOn(stripetest.OpFindCustomersByEmail, errDown)
	svc, _, rep := newBaselineFixture(repo, p)

	receipt, effect, err := svc.Submit(context.Background(), validBaseline())

	require.NoError(t, err)
	require.NotNil(t, receipt)
	assert.False(t, receipt.Mirrored)
	assert.True(t, effect.Attempted)
	assert.ErrorIs(t, effect.Err, domain.ErrProviderUnavailable)
	assert.Equal(t, 1, rep.Count())
	assert.Empty(t, p.Customers())
}

func TestBaselineService_Submit_StoreFailureStillAcknowledged(t *testing.T) {
	p := stripetest.New()
	svc, _, rep := newBaselineFixture(failingStore{}, p)

	receipt, effect, err := svc.Submit(context.Background(), validBaseline())

	require.NoError(t, err)
	assert.Equal(t, 1, receipt.QueuePosition)
	assert.True(t, effect.Succeeded())
	assert.Equal(t, 1, rep.Count())
}

func TestBaselineService_Submit_WithoutProvider(t *testing.T) {
	svc, _, _ := newBaselineFixture(repository.NewMemorySubmissionRepository(), nil)

	receipt, effect, err := svc.Submit(context.Background(), validBaseline())

	require.NoError(t, err)
	assert.False(t, receipt.Mirrored)
	assert.False(t, effect.Attempted)
}

func TestBaselineService_Submit_KeepsOtherFamilies(t *testing.T) {
	p := stripetest.New()
	p.SeedCustomer("ann@example.com", "Ann", domain.Metadata{
		domain.KeyFASource:  domain.SourceFounderAccess,
		domain.KeyFAWebsite: "https://ann.dev",
	})
	svc, _, _ := newBaselineFixture(repository.NewMemorySubmissionRepository(), p)

	_, _, err := svc.Submit(context.Background(), validBaseline())
	require.NoError(t, err)

	customers := p.Customers()
	require.Len(t, customers, 1)
	assert.Equal(t, domain.SourceFounderAccess, customers[0].Metadata[domain.KeyFASource])
	assert.Equal(t, domain.SourceFreeBaseline, customers[0].Metadata[domain.KeyBASource])
	assert.Equal(t, domain.AccessFounder, domain.Classify(customers[0].Metadata, nil))
}

func TestBaselineService_Rescan(t *testing.T) {
	t.Run("mirrored via customer metadata", func(t *testing.T) {
		repo := repository.NewMemorySubmissionRepository()
		p := stripetest.New()
		svc, pub, _ := newBaselineFixture(repo, p)

		receipt, effect, err := svc.Rescan(context.Background(), RescanInput{
			Email:   "bob@example.com",
			Website: "https://bob.dev",
			Context: "report_footer",
		})
		require.NoError(t, err)

		assert.True(t, effect.Succeeded())
		assert.Equal(t, RescanViaCustomerMetadata, receipt.Via)
		assert.Len(t, repo.Rescans(), 1)

		customers := p.Customers()
		require.Len(t, customers, 1)
		assert.Equal(t, "bob", customers[0].Name)
		assert.Equal(t, "1", customers[0].Metadata[domain.KeyRescanRequested])
		assert.Equal(t, "report_footer", customers[0].Metadata[domain.KeyRescanContext])
		assert.Equal(t, []string{EventRescanRequested}, pub.Types())
	})

	t.Run("local when provider fails", func(t *testing.T) {
		p := stripetest.New()
		p.FailOn(stripetest.OpCreateCustomer, errRejected)
		svc, _, _ := newBaselineFixture(repository.NewMemorySubmissionRepository(), p)

		receipt, effect, err := svc.Rescan(context.Background(), RescanInput{Email: "bob@example.com", Website: "https://bob.dev"})

		require.NoError(t, err)
		assert.Equal(t, RescanViaLocal, receipt.Via)
		assert.Equal(t, "unknown", receipt.Request.Context)
		assert.Error(t, effect.Err)
	})

	t.Run("validation", func(t *testing.T) {
		svc, _, _ := newBaselineFixture(repository.NewMemorySubmissionRepository(), nil)

		_, _, err := svc.Rescan(context.Background(), RescanInput{Email: "bob@example.com"})

		require.ErrorIs(t, err, domain.ErrInvalidRequest)
		assert.Equal(t, "website", domain.AsAppError(err).Field)
	})
}

func TestBaselineService_Submit_InvalidatesDashboardSnapshot(t *testing.T) {
	t.Run("after successful mirror", func(t *testing.T) {
		cache := &memoryDashboardCache{stored: &domain.Dashboard{}}
		svc, _, _ := newBaselineFixture(repository.NewMemorySubmissionRepository(), stripetest.New())
		svc.cache = cache

		_, _, err := svc.Submit(context.Background(), validBaseline())

		require.NoError(t, err)
		assert.Nil(t, cache.stored)
	})

	t.Run("kept when mirror fails", func(t *testing.T) {
		cache := &memoryDashboardCache{stored: &domain.Dashboard{}}
		p := stripetest.New()
		p.FailOn(stripetest.OpFindCustomersByEmail, errDown)
		svc, _, _ := newBaselineFixture(repository.NewMemorySubmissionRepository(), p)
		svc.cache = cache

		_, _, err := svc.Rescan(context.Background(), RescanInput{Email: "ann@example.com", Website: "https://ann.dev"})

		require.NoError(t, err)
		assert.NotNil(t, cache.stored)
	})
}

func TestBaselineService_Status(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemorySubmissionRepository()
	svc, _, _ := newBaselineFixture(repo, nil)

	receipt, _, err := svc.Submit(ctx, validBaseline())
	require.NoError(t, err)

	t.Run("found", func(t *testing.T) {
		got, err := svc.Status(ctx, " "+receipt.Request.ID+" ")
		require.NoError(t, err)
		assert.Equal(t, receipt.Request.ID, got.ID)
		assert.Equal(t, domain.BaselineStatusQueued, got.Status)
	})

	t.Run("missing id", func(t *testing.T) {
		_, err := svc.Status(ctx, "")
		require.ErrorIs(t, err, domain.ErrInvalidRequest)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := svc.Status(ctx, "baseline_0_missing")
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("store failure", func(t *testing.T) {
		broken, _, _ := newBaselineFixture(failingStore{}, nil)
		_, err := broken.Status(ctx, receipt.Request.ID)
		require.Error(t, err)
		assert.Equal(t, domain.CodeInternal, domain.AsAppError(err).Code)
	})
}
