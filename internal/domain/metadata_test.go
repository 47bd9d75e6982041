package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetadata_Merge(t *testing.T) {
	base := Metadata{"fa_source": "founder_access", "fa_website": "https://a.com"}
	patch := Metadata{"ba_source": "free_baseline", "fa_website": "https://b.com"}

	merged := base.Merge(patch)

	assert.Equal(t, Metadata{
		"fa_source":  "founder_access",
		"fa_website": "https://b.com",
		"ba_source":  "free_baseline",
	}, merged)
	assert.Equal(t, "https://a.com", base["fa_website"], "receiver must not change")
}

func TestMetadata_MergeNilReceiver(t *testing.T) {
	var m Metadata
	assert.Equal(t, Metadata{"plan": "pro"}, m.Merge(Metadata{"plan": "pro"}))
	assert.Equal(t, "", m.Get("plan"))
}

func TestMetadata_Contains(t *testing.T) {
	m := Metadata{"source": "paid_plan_signup", "plan": "pro"}

	tests := []struct {
		name  string
		patch Metadata
		want  bool
	}{
		{name: "empty patch", patch: Metadata{}, want: true},
		{name: "subset", patch: Metadata{"plan": "pro"}, want: true},
		{name: "different value", patch: Metadata{"plan": "starter"}, want: false},
		{name: "missing key", patch: Metadata{"website": "https://a.com"}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Contains(tt.patch))
		})
	}
}

func TestMetadata_FillMissing(t *testing.T) {
	m := Metadata{"plan": "pro"}
	out := m.FillMissing(Metadata{"plan": "starter", "website": "https://a.com"})

	assert.Equal(t, Metadata{"plan": "pro", "website": "https://a.com"}, out)
}

func TestMetadata_WithoutEmpty(t *testing.T) {
	m := Metadata{"ba_company": "", "ba_website": "https://a.com"}
	assert.Equal(t, Metadata{"ba_website": "https://a.com"}, m.WithoutEmpty())
}

func TestFirstNonEmpty(t *testing.T) {
	assert.Equal(t, "b", FirstNonEmpty("", "b", "c"))
	assert.Equal(t, "", FirstNonEmpty("", ""))
}
