package dto

// ─── Requests ────────────────────────────────────────────────────────────────

type CreateVendorRequest struct {
	CompanyName  string  `json:"company_name" validate:"required,min=2"`
	ContactName  *string `json:"contact_name"`
	Email        *string `json:"email"  validate:"omitempty,email"`
	Phone        *string `json:"phone"`
	Trades       *string `json:"trades"`
	AddressLine1 *string `json:"address_line1"`
	AddressLine2 *string `json:"address_line2"`
	City         *string `json:"city"`
	State        *string `json:"state"`
	Zip          *string `json:"zip"`
}

// UpdateVendorRequest patches contact fields. nil leaves a field unchanged.
type UpdateVendorRequest struct {
	CompanyName  *string `json:"company_name" validate:"omitempty,min=2"`
	ContactName  *string `json:"contact_name"`
	Email        *string `json:"email"  validate:"omitempty,email"`
	Phone        *string `json:"phone"`
	Trades       *string `json:"trades"`
	AddressLine1 *string `json:"address_line1"`
	AddressLine2 *string `json:"address_line2"`
	City         *string `json:"city"`
	State        *string `json:"state"`
	Zip          *string `json:"zip"`
}

// MarkDuplicateRequest links a vendor to its canonical record.
type MarkDuplicateRequest struct {
	CanonicalVendorID string `json:"canonical_vendor_id" validate:"required,uuid"`
}

// VendorFilter is bound from the query string of GET /v1/vendors.
type VendorFilter struct {
	CanonicalOnly bool   `form:"canonical_only"`
	Trade         string `form:"trade"`
	Page          int    `form:"page,default=1"   validate:"min=1"`
	Limit         int    `form:"limit,default=50" validate:"min=1,max=200"`
}

// ─── Responses ───────────────────────────────────────────────────────────────

type VendorResponse struct {
	ID                string  `json:"id"`
	CompanyName       string  `json:"company_name"`
	ContactName       *string `json:"contact_name"`
	Email             *string `json:"email"`
	Phone             *string `json:"phone"`
	Trades            *string `json:"trades"`
	AddressLine1      *string `json:"address_line1"`
	AddressLine2      *string `json:"address_line2"`
	City              *string `json:"city"`
	State             *string `json:"state"`
	Zip               *string `json:"zip"`
	CanonicalVendorID *string `json:"canonical_vendor_id"`
	DuplicateCount    int64   `json:"duplicate_count"`
	Active            bool    `json:"active"`
	CreatedAt         string  `json:"created_at"`
}

type VendorListResponse struct {
	Data  []VendorResponse `json:"data"`
	Total int64            `json:"total"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
}

// VendorMutationResponse wraps the updated vendor with a human message, e.g.
// "Vendor is already canonical".
type VendorMutationResponse struct {
	Vendor  VendorResponse `json:"vendor"`
	Message string         `json:"message"`
}
