package repository

import (
	"context"

	"github.com/bitfantasy/banyan/internal/entity"
	"gorm.io/gorm"
)

type InventoryRepository struct {
	db *gorm.DB
}

func NewInventoryRepository(db *gorm.DB) *InventoryRepository {
	return &InventoryRepository{db: db}
}

// FindByFulfillmentTx 事务内取领料记录的配对流水，删除时据此回补库存
func (r *InventoryRepository) FindByFulfillmentTx(tx *gorm.DB, fulfillmentID string) ([]entity.InventoryHistory, error) {
	var histories []entity.InventoryHistory
	err := tx.Where("progress_construction_material_id = ?", fulfillmentID).
		Find(&histories).Error
	return histories, err
}

// ListByMaterial 物料库存流水，新记录在前
func (r *InventoryRepository) ListByMaterial(ctx context.Context, materialID string, page, size int) ([]entity.InventoryHistory, int64, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}
	query := r.db.WithContext(ctx).
		Model(&entity.InventoryHistory{}).
		Joins("LEFT JOIN progress_construction_materials pcm ON pcm.id = inventory_histories.progress_construction_material_id").
		Joins("LEFT JOIN quotation_details qd ON qd.id = pcm.quotation_detail_id").
		Joins("LEFT JOIN supplier_price_details spd ON spd.id = inventory_histories.supplier_price_detail_id").
		Where("qd.material_id = ? OR spd.material_id = ?", materialID, materialID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var histories []entity.InventoryHistory
	err := query.
		Order("inventory_histories.date DESC, inventory_histories.created_at DESC").
		Offset((page - 1) * size).
		Limit(size).
		Find(&histories).Error
	return histories, total, err
}
