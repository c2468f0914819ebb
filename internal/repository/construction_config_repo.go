package repository

import (
	"context"

	"github.com/bitfantasy/banyan/internal/entity"
	"gorm.io/gorm"
)

type ConstructionConfigRepository struct {
	db *gorm.DB
}

func NewConstructionConfigRepository(db *gorm.DB) *ConstructionConfigRepository {
	return &ConstructionConfigRepository{db: db}
}

// Create 创建施工配置
func (r *ConstructionConfigRepository) Create(ctx context.Context, c *entity.ConstructionConfig) error {
	return r.db.WithContext(ctx).Create(c).Error
}

// ListByType 按建筑类型取全部配置
func (r *ConstructionConfigRepository) ListByType(ctx context.Context, constructionType string) ([]entity.ConstructionConfig, error) {
	var configs []entity.ConstructionConfig
	err := r.db.WithContext(ctx).
		Where("construction_type = ?", constructionType).
		Find(&configs).Error
	return configs, err
}

// FindMatch 取覆盖给定项目参数的配置。区间判定在内存中做，配置量很小。
// 无匹配时返回 gorm.ErrRecordNotFound。
func (r *ConstructionConfigRepository) FindMatch(ctx context.Context, constructionType string, numOfFloor int, area, tiledArea float64) (*entity.ConstructionConfig, error) {
	configs, err := r.ListByType(ctx, constructionType)
	if err != nil {
		return nil, err
	}
	for i := range configs {
		if configs[i].Matches(numOfFloor, area, tiledArea) {
			return &configs[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}
