package entity

import (
	"time"
)

// MaterialType 物料分类
const (
	MaterialTypeRaw       = 0 // 原材料（砖、砂、石、水泥等）
	MaterialTypeFurniture = 1 // 家具类
)

// MaterialUnit 计量单位编码
const (
	UnitKG  = 0
	UnitM3  = 1
	UnitBar = 2
	UnitPcs = 3
)

// MaterialUnits 单位名称到编码的映射，大小写兼容历史报价单
var MaterialUnits = map[string]int{
	"KG": UnitKG, "Kg": UnitKG, "kg": UnitKG,
	"M3": UnitM3, "m3": UnitM3,
	"BAR": UnitBar, "Bar": UnitBar, "bar": UnitBar,
	"PCS": UnitPcs, "Pcs": UnitPcs, "pcs": UnitPcs,
}

// IsConstructionUnit 单位是否属于建材类（家具类只有按件计量）
func IsConstructionUnit(unit int) bool {
	return unit < UnitPcs
}

// Material 物料主数据，Quantity 为当前在库数量
type Material struct {
	ID           string    `json:"id" gorm:"primaryKey;size:36"`
	Name         string    `json:"name" gorm:"size:128;not null;index"`
	Unit         int       `json:"unit" gorm:"not null;default:0"`
	MaterialType int       `json:"material_type" gorm:"not null;default:0"`
	Quantity     int       `json:"quantity" gorm:"not null;default:0"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Material) TableName() string {
	return "materials"
}

// ExportPrice 物料出库价历史，只追加不修改
type ExportPrice struct {
	ID         string    `json:"id" gorm:"primaryKey;size:36"`
	MaterialID string    `json:"material_id" gorm:"size:36;not null;index"`
	Price      float64   `json:"price" gorm:"type:decimal(14,2);not null"`
	Date       time.Time `json:"date" gorm:"not null;index"`
	CreatedAt  time.Time `json:"created_at"`

	Material *Material `json:"material,omitempty" gorm:"foreignKey:MaterialID"`
}

func (ExportPrice) TableName() string {
	return "export_prices"
}
