package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Work order statuses. Only completed/cancelled orders carry a completion
// time; open and in-progress orders are excluded from duration metrics.
const (
	WorkOrderOpen       = "open"
	WorkOrderInProgress = "in_progress"
	WorkOrderCompleted  = "completed"
	WorkOrderCancelled  = "cancelled"
)

// WorkOrder is the raw fact row for all vendor metrics. The aggregation
// engine only ever reads these; a closed work order is immutable.
type WorkOrder struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	VendorID   uuid.UUID `gorm:"type:uuid;not null;index"`
	PropertyID uuid.UUID `gorm:"type:uuid;not null;index"`

	Amount   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	OpenedAt time.Time       `gorm:"not null;index"`
	ClosedAt *time.Time
	Status   string `gorm:"not null;default:'open'"`
	Priority string `gorm:"not null;default:'normal'"` // low | normal | high | emergency

	Description *string
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Vendor   *Vendor   `gorm:"foreignKey:VendorID"`
	Property *Property `gorm:"foreignKey:PropertyID"`
}

func (WorkOrder) TableName() string { return "work_orders" }

// CompletionDays returns the open→close duration in days, or nil when the
// order has not reached a terminal status.
func (w *WorkOrder) CompletionDays() *float64 {
	if w.ClosedAt == nil || (w.Status != WorkOrderCompleted && w.Status != WorkOrderCancelled) {
		return nil
	}
	days := w.ClosedAt.Sub(w.OpenedAt).Hours() / 24
	return &days
}
