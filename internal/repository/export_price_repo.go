package repository

import (
	"context"
	"time"

	"github.com/bitfantasy/banyan/internal/entity"
	"gorm.io/gorm"
)

type ExportPriceRepository struct {
	db *gorm.DB
}

func NewExportPriceRepository(db *gorm.DB) *ExportPriceRepository {
	return &ExportPriceRepository{db: db}
}

// Create 追加一条出库价
func (r *ExportPriceRepository) Create(ctx context.Context, p *entity.ExportPrice) error {
	return r.db.WithContext(ctx).Create(p).Error
}

// FindByID 根据ID查找出库价
func (r *ExportPriceRepository) FindByID(ctx context.Context, id string) (*entity.ExportPrice, error) {
	var p entity.ExportPrice
	err := r.db.WithContext(ctx).Preload("Material").First(&p, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// LatestByMaterial 取物料在 asOf 时点的现行价：生效日不晚于 asOf 的最近一条，
// 同日并存时按录入先后取后录入者。
func (r *ExportPriceRepository) LatestByMaterial(ctx context.Context, materialID string, asOf time.Time) (*entity.ExportPrice, error) {
	var p entity.ExportPrice
	err := r.db.WithContext(ctx).
		Where("material_id = ? AND date <= ?", materialID, asOf).
		Order("date DESC, created_at DESC").
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListByMaterial 物料价格历史，新价在前
func (r *ExportPriceRepository) ListByMaterial(ctx context.Context, materialID string) ([]entity.ExportPrice, error) {
	var prices []entity.ExportPrice
	err := r.db.WithContext(ctx).
		Where("material_id = ?", materialID).
		Order("date DESC, created_at DESC").
		Find(&prices).Error
	return prices, err
}
