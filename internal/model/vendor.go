package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Vendor represents a service business (plumber, electrician, landscaper…)
// that performs work orders across the property portfolio.
//
// Canonicalization: a vendor with CanonicalVendorID == nil is canonical.
// A vendor with it set is a duplicate record pointing at the canonical one.
// The graph is a depth-1 tree: a vendor that has duplicates pointing at it
// can never itself become a duplicate without re-assigning those first.
type Vendor struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyName string    `gorm:"not null;index"`
	ContactName *string
	Email       *string
	Phone       *string
	// Trades is a comma-delimited list, e.g. "plumbing, hvac".
	Trades       *string
	AddressLine1 *string
	AddressLine2 *string
	City         *string
	State        *string
	Zip          *string

	WorkersCompExpiresAt *time.Time
	LiabilityExpiresAt   *time.Time
	AutoExpiresAt        *time.Time

	CanonicalVendorID *uuid.UUID `gorm:"type:uuid;index"`
	CanonicalVendor   *Vendor    `gorm:"foreignKey:CanonicalVendorID"`

	Active    bool `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time

	WorkOrders []WorkOrder `gorm:"foreignKey:VendorID"`
}

func (Vendor) TableName() string { return "vendors" }

// IsCanonical reports whether this record is the authoritative one.
func (v *Vendor) IsCanonical() bool { return v.CanonicalVendorID == nil }

// TradeList splits the comma-delimited trades field into trimmed,
// lowercased entries. Empty entries are dropped.
func (v *Vendor) TradeList() []string {
	if v.Trades == nil {
		return nil
	}
	parts := strings.Split(*v.Trades, ",")
	trades := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.ToLower(strings.TrimSpace(p))
		if t != "" {
			trades = append(trades, t)
		}
	}
	return trades
}
