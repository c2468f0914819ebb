package entity

import (
	"strconv"
	"strings"
	"time"
)

// ConstructionConfig 施工配置：按建筑类型与面积/楼层区间给出砂浆配比。
// 区间字段为 "lo-hi" 或 "n+" 形式，例如 "100-200"、"3+"。
type ConstructionConfig struct {
	ID                string    `json:"id" gorm:"primaryKey;size:36"`
	ConstructionType  string    `json:"construction_type" gorm:"size:32;not null;index"`
	NumOfFloor        string    `json:"num_of_floor" gorm:"size:16;not null"`
	Area              string    `json:"area" gorm:"size:16;not null"`
	TiledArea         string    `json:"tiled_area" gorm:"size:16;not null"`
	SandMixingRatio   float64   `json:"sand_mixing_ratio" gorm:"type:decimal(6,2);not null"`
	CementMixingRatio float64   `json:"cement_mixing_ratio" gorm:"type:decimal(6,2);not null"`
	StoneMixingRatio  float64   `json:"stone_mixing_ratio" gorm:"type:decimal(6,2);not null"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func (ConstructionConfig) TableName() string {
	return "construction_configs"
}

// Matches 判断该配置是否覆盖给定项目参数
func (c *ConstructionConfig) Matches(numOfFloor int, area, tiledArea float64) bool {
	return BracketContains(c.NumOfFloor, float64(numOfFloor)) &&
		BracketContains(c.Area, area) &&
		BracketContains(c.TiledArea, tiledArea)
}

// BracketContains 解析 "lo-hi" / "n+" 区间并判断取值是否落入，区间两端含边界。
// 格式非法时返回 false。
func BracketContains(bracket string, v float64) bool {
	bracket = strings.TrimSpace(bracket)
	if strings.HasSuffix(bracket, "+") {
		lo, err := strconv.ParseFloat(strings.TrimSuffix(bracket, "+"), 64)
		if err != nil {
			return false
		}
		return v >= lo
	}
	parts := strings.SplitN(bracket, "-", 2)
	if len(parts) != 2 {
		return false
	}
	lo, err1 := strconv.ParseFloat(parts[0], 64)
	hi, err2 := strconv.ParseFloat(parts[1], 64)
	if err1 != nil || err2 != nil {
		return false
	}
	return v >= lo && v <= hi
}
