package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Known utility types. Stored as plain strings so that new types can be
// introduced by data without a migration.
const (
	UtilityElectric = "electric"
	UtilityGas      = "gas"
	UtilityWater    = "water"
	UtilitySewer    = "sewer"
	UtilityTrash    = "trash"
	UtilityInternet = "internet"
	UtilityOther    = "other"
)

// UtilityAccount links a property to a utility provider account. Expenses
// hang off the account; the account carries the utility type.
type UtilityAccount struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PropertyID    uuid.UUID `gorm:"type:uuid;not null;index"`
	UtilityType   string    `gorm:"not null;index"`
	AccountNumber *string
	Provider      *string
	Active        bool `gorm:"not null;default:true"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Property *Property        `gorm:"foreignKey:PropertyID"`
	Expenses []UtilityExpense `gorm:"foreignKey:UtilityAccountID"`
}

func (UtilityAccount) TableName() string { return "utility_accounts" }

// UtilityExpense is the raw fact row for all utility metrics.
type UtilityExpense struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UtilityAccountID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount           decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	ExpenseDate      time.Time       `gorm:"not null;index"`
	VendorName       *string
	CreatedAt        time.Time
	UpdatedAt        time.Time

	UtilityAccount *UtilityAccount `gorm:"foreignKey:UtilityAccountID"`
}

func (UtilityExpense) TableName() string { return "utility_expenses" }
