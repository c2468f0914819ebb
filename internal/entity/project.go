package entity

import (
	"time"
)

// ProjectStatus 项目状态
const (
	ProjectStatusPending           = "pending"            // 待配置
	ProjectStatusProcessing        = "processing"         // 报价流程中
	ProjectStatusUnderConstruction = "under_construction" // 施工中
	ProjectStatusCompleted         = "completed"
)

// ConstructionType 建筑类型
const (
	ConstructionTypeRoughHouse    = "rough_house"    // 毛坯房
	ConstructionTypeCompletedHome = "completed_home" // 整装房
)

// Project 施工项目
type Project struct {
	ID                  string     `json:"id" gorm:"primaryKey;size:36"`
	Name                string     `json:"name" gorm:"size:200;not null"`
	ConstructionType    string     `json:"construction_type" gorm:"size:32;not null"`
	NumOfFloor          int        `json:"num_of_floor" gorm:"not null;default:1"`
	Area                float64    `json:"area" gorm:"type:decimal(12,2);not null;default:0"`
	TiledArea           float64    `json:"tiled_area" gorm:"type:decimal(12,2);default:0"`
	WallLength          float64    `json:"wall_length" gorm:"type:decimal(12,2);default:0"`
	WallHeight          float64    `json:"wall_height" gorm:"type:decimal(12,2);default:0"`
	SandMixingRatio     float64    `json:"sand_mixing_ratio" gorm:"type:decimal(6,2);default:0"`
	CementMixingRatio   float64    `json:"cement_mixing_ratio" gorm:"type:decimal(6,2);default:0"`
	StoneMixingRatio    float64    `json:"stone_mixing_ratio" gorm:"type:decimal(6,2);default:0"`
	NumberOfLabor       int        `json:"number_of_labor" gorm:"default:0"`
	EstimatedCompletion *time.Time `json:"estimated_completion"`
	Status              string     `json:"status" gorm:"size:32;not null;default:pending"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`

	Contract *Contract `json:"contract,omitempty" gorm:"foreignKey:ProjectID"`
}

func (Project) TableName() string {
	return "projects"
}
