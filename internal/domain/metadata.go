package domain

// Ключи метаданных. Три семейства сосуществуют на одном клиенте.
const (
	// founder access
	KeyFASource  = "fa_source"
	KeyFAWebsite = "fa_website"

	// baseline
	KeySubmissionType = "submission_type"
	KeyBASource       = "ba_source"
	KeyBAWebsite      = "ba_website"
	KeyBACompany      = "ba_company"
	KeyBATimestamp    = "ba_timestamp"
	KeyBAStatus       = "ba_status"

	// paid plan
	KeySource       = "source"
	KeyPlan         = "plan"
	KeyWebsite      = "website"
	KeyCustomerName = "customer_name"

	// rescan
	KeyRescanRequested = "rescan_requested"
	KeyRescanWebsite   = "rescan_website"
	KeyRescanContext   = "rescan_context"
	KeyRescanReportURL = "rescan_report_url"
	KeyRescanTS        = "rescan_ts"

	// session-only
	KeyName = "name"

	// duplicate reconciliation
	KeyMergedInto = "merged_into"
)

// Значения метаданных
const (
	SourceFounderAccess    = "founder_access"
	SourceFreeBaseline     = "free_baseline"
	SourcePaidPlanSignup   = "paid_plan_signup"
	SourceClearpathWebsite = "clearpath_website"
	SubmissionTypeBaseline = "baseline"
	BaselineStatusQueued   = "queued"
)

// Metadata плоский набор строковых ключей и значений
type Metadata map[string]string

// Get возвращает значение ключа; безопасно для nil
func (m Metadata) Get(key string) string {
	if m == nil {
		return ""
	}
	return m[key]
}

// Clone копия метаданных; nil превращается в пустую карту
func (m Metadata) Clone() Metadata {
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Merge неразрушающее объединение: ключи patch перезаписывают, остальные сохраняются.
// Исходная карта не изменяется.
func (m Metadata) Merge(patch Metadata) Metadata {
	out := m.Clone()
	for k, v := range patch {
		out[k] = v
	}
	return out
}

// Contains true, если все пары patch уже присутствуют с теми же значениями
func (m Metadata) Contains(patch Metadata) bool {
	for k, v := range patch {
		existing, ok := m[k]
		if !ok || existing != v {
			return false
		}
	}
	return true
}

// FillMissing копирует из other только ключи, которых нет в m
func (m Metadata) FillMissing(other Metadata) Metadata {
	out := m.Clone()
	for k, v := range other {
		if _, ok := out[k]; !ok {
			out[k] = v
		}
	}
	return out
}

// WithoutEmpty копия без пустых значений. Провайдер трактует пустую строку как удаление ключа.
func (m Metadata) WithoutEmpty() Metadata {
	out := make(Metadata, len(m))
	for k, v := range m {
		if v != "" {
			out[k] = v
		}
	}
	return out
}

// FirstNonEmpty возвращает первое непустое значение
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
