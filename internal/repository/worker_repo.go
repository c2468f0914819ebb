package repository

import (
	"context"

	"github.com/bitfantasy/banyan/internal/entity"
	"gorm.io/gorm"
)

type WorkerRepository struct {
	db *gorm.DB
}

func NewWorkerRepository(db *gorm.DB) *WorkerRepository {
	return &WorkerRepository{db: db}
}

// FindPriceByID 根据ID查找工种基准价
func (r *WorkerRepository) FindPriceByID(ctx context.Context, id string) (*entity.WorkerPrice, error) {
	var p entity.WorkerPrice
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListPrices 工种基准价列表
func (r *WorkerRepository) ListPrices(ctx context.Context) ([]entity.WorkerPrice, error) {
	var prices []entity.WorkerPrice
	err := r.db.WithContext(ctx).Order("position_name ASC").Find(&prices).Error
	return prices, err
}

// ListByQuotation 报价单上的用工行
func (r *WorkerRepository) ListByQuotation(ctx context.Context, quotationID string) ([]entity.WorkerForProject, error) {
	var workers []entity.WorkerForProject
	err := r.db.WithContext(ctx).
		Preload("WorkerPrice").
		Where("quotation_id = ?", quotationID).
		Find(&workers).Error
	return workers, err
}
