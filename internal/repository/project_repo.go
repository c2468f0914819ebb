package repository

import (
	"context"

	"github.com/bitfantasy/banyan/internal/entity"
	"gorm.io/gorm"
)

type ProjectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

func (r *ProjectRepository) DB() *gorm.DB {
	return r.db
}

// Create 创建项目
func (r *ProjectRepository) Create(ctx context.Context, p *entity.Project) error {
	return r.db.WithContext(ctx).Create(p).Error
}

// FindByID 根据ID查找项目，带合同
func (r *ProjectRepository) FindByID(ctx context.Context, id string) (*entity.Project, error) {
	var p entity.Project
	err := r.db.WithContext(ctx).Preload("Contract").First(&p, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// List 项目列表
func (r *ProjectRepository) List(ctx context.Context, status string) ([]entity.Project, error) {
	query := r.db.WithContext(ctx).Model(&entity.Project{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var projects []entity.Project
	err := query.Order("created_at DESC").Find(&projects).Error
	return projects, err
}

// Update 更新项目
func (r *ProjectRepository) Update(ctx context.Context, p *entity.Project) error {
	return r.db.WithContext(ctx).Save(p).Error
}

// UpdateStatus 更新项目状态
func (r *ProjectRepository) UpdateStatus(ctx context.Context, id, status string) error {
	return r.db.WithContext(ctx).Model(&entity.Project{}).
		Where("id = ?", id).
		Update("status", status).Error
}
