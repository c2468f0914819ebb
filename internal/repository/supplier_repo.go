package repository

import (
	"context"
	"strings"
	"time"

	"github.com/bitfantasy/banyan/internal/entity"
	"gorm.io/gorm"
)

type SupplierRepository struct {
	db *gorm.DB
}

func NewSupplierRepository(db *gorm.DB) *SupplierRepository {
	return &SupplierRepository{db: db}
}

func (r *SupplierRepository) DB() *gorm.DB {
	return r.db
}

// FindByName 按名称查找未删除的供应商，名称不区分大小写
func (r *SupplierRepository) FindByName(ctx context.Context, name string) (*entity.Supplier, error) {
	var s entity.Supplier
	err := r.db.WithContext(ctx).
		Where("LOWER(name) = ? AND is_deleted = false", strings.ToLower(strings.TrimSpace(name))).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// FindByID 根据ID查找供应商
func (r *SupplierRepository) FindByID(ctx context.Context, id string) (*entity.Supplier, error) {
	var s entity.Supplier
	err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// FindQuotationByID 根据ID查找供应商报价单，带行项与物料
func (r *SupplierRepository) FindQuotationByID(ctx context.Context, id string) (*entity.SupplierPriceQuotation, error) {
	var q entity.SupplierPriceQuotation
	err := r.db.WithContext(ctx).
		Preload("Supplier").
		Preload("Details").
		Preload("Details.Material").
		First(&q, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// HasStoredDetail 同一供应商同一报价日是否已存在同物料同起订量的报价行，
// 重复上传校验用。
func (r *SupplierRepository) HasStoredDetail(ctx context.Context, supplierID string, date time.Time, materialID string, moq int) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.SupplierPriceDetail{}).
		Joins("JOIN supplier_price_quotations spq ON spq.id = supplier_price_details.supplier_price_quotation_id").
		Where("spq.supplier_id = ? AND spq.date = ?", supplierID, date).
		Where("supplier_price_details.material_id = ? AND supplier_price_details.moq = ?", materialID, moq).
		Count(&count).Error
	return count > 0, err
}

// CountInventoryRefs 报价单下已被库存流水引用的行项数，删除前校验用
func (r *SupplierRepository) CountInventoryRefs(ctx context.Context, quotationID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.InventoryHistory{}).
		Joins("JOIN supplier_price_details spd ON spd.id = inventory_histories.supplier_price_detail_id").
		Where("spd.supplier_price_quotation_id = ?", quotationID).
		Count(&count).Error
	return count, err
}

// ListQuotationsByMonth 某月内的供应商报价单，带供应商
func (r *SupplierRepository) ListQuotationsByMonth(ctx context.Context, year int, month time.Month, loc *time.Location) ([]entity.SupplierPriceQuotation, error) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	end := start.AddDate(0, 1, 0)
	var quotations []entity.SupplierPriceQuotation
	err := r.db.WithContext(ctx).
		Preload("Supplier").
		Where("date >= ? AND date < ?", start, end).
		Order("date DESC").
		Find(&quotations).Error
	return quotations, err
}
