package dto

// ─── Requests ────────────────────────────────────────────────────────────────

// CreateAnalysisRequest is the entire wire contract with the scheduling layer:
// the caller picks a similarity cutoff and a result cap, the run reports back
// through the analysis record. Threshold is a pointer so that 0 — report every
// pair up to the limit — survives the required check.
type CreateAnalysisRequest struct {
	Threshold   *float64 `json:"threshold"    validate:"required,gte=0,lte=1"`
	Limit       int      `json:"limit"        validate:"required,min=1,max=1000"`
	NotifyEmail *string  `json:"notify_email" validate:"omitempty,email"`
}

// ─── Responses ───────────────────────────────────────────────────────────────

// VendorSummary is the compact vendor view embedded in match results so a
// reviewer can audit a pairing without loading each vendor.
type VendorSummary struct {
	ID          string  `json:"id"`
	CompanyName string  `json:"company_name"`
	ContactName *string `json:"contact_name"`
	Email       *string `json:"email"`
	Phone       *string `json:"phone"`
	Trades      *string `json:"trades"`
}

// DuplicateMatch is one qualifying pair with the signals that fired.
type DuplicateMatch struct {
	Vendor1      VendorSummary `json:"vendor1"`
	Vendor2      VendorSummary `json:"vendor2"`
	Similarity   float64       `json:"similarity"`
	MatchReasons []string      `json:"match_reasons"`
}

type AnalysisResponse struct {
	ID              string           `json:"id"`
	Threshold       float64          `json:"threshold"`
	Limit           int              `json:"limit"`
	Status          string           `json:"status"`
	TotalVendors    int              `json:"total_vendors"`
	Comparisons     int64            `json:"comparisons"`
	DuplicatesFound int              `json:"duplicates_found"`
	Results         []DuplicateMatch `json:"results,omitempty"`
	ErrorMessage    *string          `json:"error_message,omitempty"`
	StartedAt       *string          `json:"started_at,omitempty"`
	CompletedAt     *string          `json:"completed_at,omitempty"`
	CreatedAt       string           `json:"created_at"`
}

type AnalysisListResponse struct {
	Data  []AnalysisResponse `json:"data"`
	Total int64              `json:"total"`
}
