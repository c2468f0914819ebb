package repository

import (
	"context"
	"strings"

	"github.com/bitfantasy/banyan/internal/entity"
	"gorm.io/gorm"
)

type MaterialRepository struct {
	db *gorm.DB
}

func NewMaterialRepository(db *gorm.DB) *MaterialRepository {
	return &MaterialRepository{db: db}
}

func (r *MaterialRepository) DB() *gorm.DB {
	return r.db
}

// Create 创建物料
func (r *MaterialRepository) Create(ctx context.Context, m *entity.Material) error {
	return r.db.WithContext(ctx).Create(m).Error
}

// FindByID 根据ID查找物料
func (r *MaterialRepository) FindByID(ctx context.Context, id string) (*entity.Material, error) {
	var m entity.Material
	err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// FindByName 按名称查找物料，名称不区分大小写
func (r *MaterialRepository) FindByName(ctx context.Context, name string) (*entity.Material, error) {
	var m entity.Material
	err := r.db.WithContext(ctx).
		Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name))).
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// FindByNameAndUnit 按名称与单位查找物料，报价单校验用
func (r *MaterialRepository) FindByNameAndUnit(ctx context.Context, name string, unit int) (*entity.Material, error) {
	var m entity.Material
	err := r.db.WithContext(ctx).
		Where("LOWER(name) = ? AND unit = ?", strings.ToLower(strings.TrimSpace(name)), unit).
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// List 物料列表
func (r *MaterialRepository) List(ctx context.Context, keyword string, materialType *int) ([]entity.Material, error) {
	query := r.db.WithContext(ctx).Model(&entity.Material{})
	if keyword != "" {
		query = query.Where("name ILIKE ?", "%"+keyword+"%")
	}
	if materialType != nil {
		query = query.Where("material_type = ?", *materialType)
	}
	var materials []entity.Material
	err := query.Order("name ASC").Find(&materials).Error
	return materials, err
}

// Update 更新物料
func (r *MaterialRepository) Update(ctx context.Context, m *entity.Material) error {
	return r.db.WithContext(ctx).Save(m).Error
}
