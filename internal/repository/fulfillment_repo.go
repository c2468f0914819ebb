package repository

import (
	"context"

	"github.com/bitfantasy/banyan/internal/entity"
	"gorm.io/gorm"
)

type FulfillmentRepository struct {
	db *gorm.DB
}

func NewFulfillmentRepository(db *gorm.DB) *FulfillmentRepository {
	return &FulfillmentRepository{db: db}
}

func (r *FulfillmentRepository) DB() *gorm.DB {
	return r.db
}

// FindByID 根据ID查找领料记录，带行项、物料与价格快照
func (r *FulfillmentRepository) FindByID(ctx context.Context, id string) (*entity.ProgressConstructionMaterial, error) {
	var f entity.ProgressConstructionMaterial
	err := r.db.WithContext(ctx).
		Preload("QuotationDetail").
		Preload("QuotationDetail.Material").
		Preload("QuotationDetail.Quotation").
		Preload("ExportPrice").
		First(&f, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// SumQuantityByDetail 行项下的累计领料量。excludeID 非空时排除指定记录，改单重算用。
func (r *FulfillmentRepository) SumQuantityByDetail(ctx context.Context, detailID, excludeID string) (int, error) {
	return sumQuantityByDetail(r.db.WithContext(ctx), detailID, excludeID)
}

// SumQuantityByDetailTx 同 SumQuantityByDetail，在给定事务内执行
func (r *FulfillmentRepository) SumQuantityByDetailTx(tx *gorm.DB, detailID, excludeID string) (int, error) {
	return sumQuantityByDetail(tx, detailID, excludeID)
}

func sumQuantityByDetail(db *gorm.DB, detailID, excludeID string) (int, error) {
	var result struct{ Total int }
	query := db.Model(&entity.ProgressConstructionMaterial{}).
		Select("COALESCE(SUM(quantity), 0) as total").
		Where("quotation_detail_id = ?", detailID)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}
	err := query.Scan(&result).Error
	return result.Total, err
}

// ListParams 领料记录查询参数
type ListParams struct {
	QuotationID string
	DetailID    string
	Page        int
	Size        int
	SortBy      string
	SortDir     string
}

// 可排序字段白名单，防止排序参数注入
var fulfillmentSortColumns = map[string]string{
	"date":       "date",
	"quantity":   "quantity",
	"total":      "total",
	"created_at": "created_at",
}

// List 领料记录分页列表
func (r *FulfillmentRepository) List(ctx context.Context, params ListParams) ([]entity.ProgressConstructionMaterial, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.ProgressConstructionMaterial{})
	if params.DetailID != "" {
		query = query.Where("quotation_detail_id = ?", params.DetailID)
	}
	if params.QuotationID != "" {
		query = query.Joins("JOIN quotation_details qd ON qd.id = progress_construction_materials.quotation_detail_id").
			Where("qd.quotation_id = ?", params.QuotationID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	column, ok := fulfillmentSortColumns[params.SortBy]
	if !ok {
		column = "date"
	}
	dir := "DESC"
	if params.SortDir == "asc" {
		dir = "ASC"
	}

	if params.Page < 1 {
		params.Page = 1
	}
	if params.Size < 1 || params.Size > 100 {
		params.Size = 20
	}

	var records []entity.ProgressConstructionMaterial
	err := query.
		Preload("QuotationDetail").
		Preload("QuotationDetail.Material").
		Preload("ExportPrice").
		Order("progress_construction_materials." + column + " " + dir).
		Offset((params.Page - 1) * params.Size).
		Limit(params.Size).
		Find(&records).Error
	return records, total, err
}
