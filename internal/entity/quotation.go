package entity

import (
	"time"
)

// QuotationStatus 报价单状态
const (
	QuotationStatusPending   = "pending"
	QuotationStatusDealing   = "dealing" // 议价中
	QuotationStatusApproved  = "approved"
	QuotationStatusRejected  = "rejected"
	QuotationStatusCancelled = "cancelled"
)

// Quotation 项目报价单，折扣按物料类别分开记录
type Quotation struct {
	ID                  string    `json:"id" gorm:"primaryKey;size:36"`
	ProjectID           string    `json:"project_id" gorm:"size:36;not null;index"`
	Status              string    `json:"status" gorm:"size:20;not null;default:pending"`
	RawMaterialDiscount float64   `json:"raw_material_discount" gorm:"type:decimal(5,4);default:0"`
	FurnitureDiscount   float64   `json:"furniture_discount" gorm:"type:decimal(5,4);default:0"`
	LaborDiscount       float64   `json:"labor_discount" gorm:"type:decimal(5,4);default:0"`
	TotalLaborPrice     float64   `json:"total_labor_price" gorm:"type:decimal(14,2);default:0"`
	CreateDate          time.Time `json:"create_date"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`

	Project *Project          `json:"project,omitempty" gorm:"foreignKey:ProjectID"`
	Details []QuotationDetail `json:"details,omitempty" gorm:"foreignKey:QuotationID"`
}

func (Quotation) TableName() string {
	return "quotations"
}

// QuotationDetail 报价单行项，Quantity 为该物料在本项目的承诺用量上限
type QuotationDetail struct {
	ID          string    `json:"id" gorm:"primaryKey;size:36"`
	QuotationID string    `json:"quotation_id" gorm:"size:36;not null;index"`
	MaterialID  string    `json:"material_id" gorm:"size:36;not null;index"`
	Quantity    int       `json:"quantity" gorm:"not null"`
	Total       float64   `json:"total" gorm:"type:decimal(14,2);not null;default:0"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Quotation *Quotation `json:"quotation,omitempty" gorm:"foreignKey:QuotationID"`
	Material  *Material  `json:"material,omitempty" gorm:"foreignKey:MaterialID"`
}

func (QuotationDetail) TableName() string {
	return "quotation_details"
}
