package domain

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewBaselineRequest_Normalizes(t *testing.T) {
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

	req := NewBaselineRequest("  Ann ", " Ann@Example.COM ", "https://site.com/", " Acme ", "", "", now)

	assert.Regexp(t, regexp.MustCompile(`^baseline_\d+_[0-9a-f]{10}$`), req.ID)
	assert.Equal(t, "Ann", req.Name)
	assert.Equal(t, "ann@example.com", req.Email)
	assert.Equal(t, "https://site.com", req.Website)
	assert.Equal(t, "Acme", req.Company)
	assert.Equal(t, SourceFreeBaseline, req.Type)
	assert.Equal(t, "2025-05-01T12:00:00Z", req.Timestamp)
	assert.Equal(t, BaselineStatusQueued, req.Status)
}

func TestBaselineRequest_MirrorMetadata(t *testing.T) {
	req := NewBaselineRequest("Ann", "ann@example.com", "https://site.com", "", "", "2025-01-01T00:00:00Z", time.Now())

	md := req.MirrorMetadata()

	assert.Equal(t, SubmissionTypeBaseline, md[KeySubmissionType])
	assert.Equal(t, SourceFreeBaseline, md[KeyBASource])
	assert.Equal(t, "https://site.com", md[KeyBAWebsite])
	assert.Equal(t, BaselineStatusQueued, md[KeyBAStatus])
	assert.Equal(t, "2025-01-01T00:00:00Z", md[KeyBATimestamp])
	assert.NotContains(t, md.WithoutEmpty(), KeyBACompany)
}

func TestNewRescanRequest_DefaultsContext(t *testing.T) {
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	req := NewRescanRequest("A@B.com", "https://x.com/", "", "", now)

	assert.Equal(t, "a@b.com", req.Email)
	assert.Equal(t, "https://x.com", req.Website)
	assert.Equal(t, "unknown", req.Context)

	md := req.MirrorMetadata()
	assert.Equal(t, "1", md[KeyRescanRequested])
	assert.Equal(t, "2025-05-01T12:00:00Z", md[KeyRescanTS])
}

func TestValidators(t *testing.T) {
	assert.True(t, ValidEmail("a@b.co"))
	assert.False(t, ValidEmail("a@b"))
	assert.False(t, ValidEmail("a b@c.com"))
	assert.True(t, ValidWebsite("https://x.com"))
	assert.False(t, ValidWebsite("http://x.com"))
	assert.Equal(t, "ann", EmailLocalPart("ann@example.com"))
}
