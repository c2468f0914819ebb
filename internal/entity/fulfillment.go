package entity

import (
	"time"
)

// ProgressConstructionMaterial 施工领料记录：对报价单行项的一次实际消耗。
// Discount 与 ExportPriceID 在创建时快照，后续价格与折扣变动不回溯。
type ProgressConstructionMaterial struct {
	ID                string    `json:"id" gorm:"primaryKey;size:36"`
	QuotationDetailID string    `json:"quotation_detail_id" gorm:"size:36;not null;index"`
	ExportPriceID     string    `json:"export_price_id" gorm:"size:36;not null"`
	Quantity          int       `json:"quantity" gorm:"not null"`
	Discount          float64   `json:"discount" gorm:"type:decimal(5,4);not null;default:0"`
	Total             float64   `json:"total" gorm:"type:decimal(14,2);not null;default:0"`
	Date              time.Time `json:"date" gorm:"not null"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`

	QuotationDetail *QuotationDetail `json:"quotation_detail,omitempty" gorm:"foreignKey:QuotationDetailID"`
	ExportPrice     *ExportPrice     `json:"export_price,omitempty" gorm:"foreignKey:ExportPriceID"`
}

func (ProgressConstructionMaterial) TableName() string {
	return "progress_construction_materials"
}

// InventoryHistory 库存流水，入库挂供应商报价行，出库挂领料记录，二者只取其一
type InventoryHistory struct {
	ID                             string    `json:"id" gorm:"primaryKey;size:36"`
	Quantity                       int       `json:"quantity" gorm:"not null"`
	Date                           time.Time `json:"date" gorm:"not null"`
	ProgressConstructionMaterialID *string   `json:"progress_construction_material_id" gorm:"size:36;index"`
	SupplierPriceDetailID          *string   `json:"supplier_price_detail_id" gorm:"size:36;index"`
	CreatedAt                      time.Time `json:"created_at"`
}

func (InventoryHistory) TableName() string {
	return "inventory_histories"
}
