package entity

import (
	"time"
)

// SupplierType 供应商类型，决定其可供应的物料单位类别
const (
	SupplierTypeConstructionMaterial = "construction_material"
	SupplierTypeFurniture            = "furniture"
	SupplierTypeBoth                 = "both"
)

// CanSupplyUnit 供应商类型是否允许供应该单位类别的物料
func CanSupplyUnit(supplierType string, unit int) bool {
	switch supplierType {
	case SupplierTypeBoth:
		return true
	case SupplierTypeConstructionMaterial:
		return IsConstructionUnit(unit)
	case SupplierTypeFurniture:
		return unit == UnitPcs
	}
	return false
}

// Supplier 供应商
type Supplier struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	Name      string    `json:"name" gorm:"size:128;not null;index"`
	Type      string    `json:"type" gorm:"size:32;not null;default:both"`
	IsDeleted bool      `json:"is_deleted" gorm:"default:false"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Supplier) TableName() string {
	return "suppliers"
}

// SupplierPriceQuotation 供应商报价单头，一次上传一单
type SupplierPriceQuotation struct {
	ID         string    `json:"id" gorm:"primaryKey;size:36"`
	SupplierID string    `json:"supplier_id" gorm:"size:36;not null;index"`
	Date       time.Time `json:"date" gorm:"not null;index"`
	CreatedAt  time.Time `json:"created_at"`

	Supplier *Supplier             `json:"supplier,omitempty" gorm:"foreignKey:SupplierID"`
	Details  []SupplierPriceDetail `json:"details,omitempty" gorm:"foreignKey:SupplierPriceQuotationID"`
}

func (SupplierPriceQuotation) TableName() string {
	return "supplier_price_quotations"
}

// SupplierPriceDetail 供应商报价行，MOQ 为该价格档的最小起订量
type SupplierPriceDetail struct {
	ID                       string    `json:"id" gorm:"primaryKey;size:36"`
	SupplierPriceQuotationID string    `json:"supplier_price_quotation_id" gorm:"size:36;not null;index"`
	MaterialID               string    `json:"material_id" gorm:"size:36;not null;index"`
	MOQ                      int       `json:"moq" gorm:"not null"`
	Price                    float64   `json:"price" gorm:"type:decimal(14,2);not null"`
	CreatedAt                time.Time `json:"created_at"`

	Material *Material `json:"material,omitempty" gorm:"foreignKey:MaterialID"`
}

func (SupplierPriceDetail) TableName() string {
	return "supplier_price_details"
}
