package model

import (
	"time"

	"github.com/google/uuid"
)

// Property is a managed building or complex. UnitCount and SquareFeet feed
// the per-unit / per-square-foot utility cost normalizations.
type Property struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name         string    `gorm:"not null"`
	AddressLine1 *string
	City         *string
	State        *string
	Zip          *string
	UnitCount    int `gorm:"not null;default:0"`
	SquareFeet   int `gorm:"not null;default:0"`
	Active       bool `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	UtilityAccounts []UtilityAccount `gorm:"foreignKey:PropertyID"`
	WorkOrders      []WorkOrder      `gorm:"foreignKey:PropertyID"`
}

func (Property) TableName() string { return "properties" }
