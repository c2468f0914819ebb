package entity

import (
	"time"
)

// WorkerPrice 工种基准人工单价
type WorkerPrice struct {
	ID           string    `json:"id" gorm:"primaryKey;size:36"`
	PositionName string    `json:"position_name" gorm:"size:128;not null"`
	LaborCost    float64   `json:"labor_cost" gorm:"type:decimal(14,2);not null"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (WorkerPrice) TableName() string {
	return "worker_prices"
}

// WorkerForProject 报价单上的用工行，ExportLaborCost 不得低于工种基准价
type WorkerForProject struct {
	ID              string    `json:"id" gorm:"primaryKey;size:36"`
	QuotationID     string    `json:"quotation_id" gorm:"size:36;not null;index"`
	WorkerPriceID   string    `json:"worker_price_id" gorm:"size:36;not null"`
	Quantity        int       `json:"quantity" gorm:"not null"`
	ExportLaborCost float64   `json:"export_labor_cost" gorm:"type:decimal(14,2);not null"`
	CreatedAt       time.Time `json:"created_at"`

	WorkerPrice *WorkerPrice `json:"worker_price,omitempty" gorm:"foreignKey:WorkerPriceID"`
}

func (WorkerForProject) TableName() string {
	return "workers_for_project"
}
