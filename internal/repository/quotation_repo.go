package repository

import (
	"context"

	"github.com/bitfantasy/banyan/internal/entity"
	"gorm.io/gorm"
)

type QuotationRepository struct {
	db *gorm.DB
}

func NewQuotationRepository(db *gorm.DB) *QuotationRepository {
	return &QuotationRepository{db: db}
}

func (r *QuotationRepository) DB() *gorm.DB {
	return r.db
}

// FindByID 根据ID查找报价单，带行项与物料
func (r *QuotationRepository) FindByID(ctx context.Context, id string) (*entity.Quotation, error) {
	var q entity.Quotation
	err := r.db.WithContext(ctx).
		Preload("Project").
		Preload("Details").
		Preload("Details.Material").
		First(&q, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// FindByProject 取项目当前报价单，新单在前
func (r *QuotationRepository) FindByProject(ctx context.Context, projectID string) ([]entity.Quotation, error) {
	var quotations []entity.Quotation
	err := r.db.WithContext(ctx).
		Preload("Details").
		Where("project_id = ?", projectID).
		Order("create_date DESC").
		Find(&quotations).Error
	return quotations, err
}

// FindDetailByID 根据ID查找报价单行项，带报价单与物料
func (r *QuotationRepository) FindDetailByID(ctx context.Context, id string) (*entity.QuotationDetail, error) {
	var d entity.QuotationDetail
	err := r.db.WithContext(ctx).
		Preload("Quotation").
		Preload("Material").
		First(&d, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// UpdateStatus 更新报价单状态
func (r *QuotationRepository) UpdateStatus(ctx context.Context, id, status string) error {
	return r.db.WithContext(ctx).Model(&entity.Quotation{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// UpdateDiscounts 更新报价单折扣
func (r *QuotationRepository) UpdateDiscounts(ctx context.Context, id string, rawMaterial, furniture, labor float64) error {
	return r.db.WithContext(ctx).Model(&entity.Quotation{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"raw_material_discount": rawMaterial,
			"furniture_discount":    furniture,
			"labor_discount":        labor,
		}).Error
}
