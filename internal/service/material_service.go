package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bitfantasy/banyan/internal/apperr"
	"github.com/bitfantasy/banyan/internal/clock"
	"github.com/bitfantasy/banyan/internal/entity"
	"github.com/bitfantasy/banyan/internal/repository"
)

type MaterialService struct {
	repos *repository.Repositories
	clk   clock.Clock
}

func NewMaterialService(repos *repository.Repositories, clk clock.Clock) *MaterialService {
	return &MaterialService{repos: repos, clk: clk}
}

// CreateMaterialRequest 创建物料请求
type CreateMaterialRequest struct {
	Name         string `json:"name" binding:"required"`
	Unit         string `json:"unit" binding:"required"`
	MaterialType int    `json:"material_type"`
}

// Create 创建物料，单位按报价单同一套名称解析
func (s *MaterialService) Create(ctx context.Context, req CreateMaterialRequest) (*entity.Material, error) {
	unitCode, ok := entity.MaterialUnits[req.Unit]
	if !ok {
		return nil, apperr.Newf(apperr.ValidationFailed, "Unit: %s does not exist.", req.Unit)
	}

	if _, err := s.repos.Material.FindByNameAndUnit(ctx, req.Name, unitCode); err == nil {
		return nil, apperr.Newf(apperr.DuplicateInput, "Material %s with unit %s already exists.", req.Name, req.Unit)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Wrap(apperr.Internal, err, "failed to create material")
	}

	m := &entity.Material{
		ID:           uuid.New().String(),
		Name:         req.Name,
		Unit:         unitCode,
		MaterialType: req.MaterialType,
	}
	if err := s.repos.Material.Create(ctx, m); err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "failed to create material")
	}
	return m, nil
}

// Get 取物料
func (s *MaterialService) Get(ctx context.Context, id string) (*entity.Material, error) {
	m, err := s.repos.Material.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Newf(apperr.NotFound, "Material %s does not exist.", id)
		}
		return nil, apperr.Wrap(apperr.Internal, err, "failed to load material")
	}
	return m, nil
}

// List 物料列表
func (s *MaterialService) List(ctx context.Context, keyword string, materialType *int) ([]entity.Material, error) {
	materials, err := s.repos.Material.List(ctx, keyword, materialType)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "failed to list materials")
	}
	return materials, nil
}

// AddExportPrice 追加一条出库价，生效日缺省为当天
func (s *MaterialService) AddExportPrice(ctx context.Context, materialID string, price float64, date *time.Time) (*entity.ExportPrice, error) {
	if price <= 0 {
		return nil, apperr.New(apperr.ValidationFailed, "Price must be higher than 0.")
	}
	if _, err := s.Get(ctx, materialID); err != nil {
		return nil, err
	}

	effective := s.clk.Now()
	if date != nil {
		effective = *date
	}
	p := &entity.ExportPrice{
		ID:         uuid.New().String(),
		MaterialID: materialID,
		Price:      price,
		Date:       effective,
	}
	if err := s.repos.ExportPrice.Create(ctx, p); err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "failed to create export price")
	}
	return p, nil
}

// PriceHistory 物料出库价历史
func (s *MaterialService) PriceHistory(ctx context.Context, materialID string) ([]entity.ExportPrice, error) {
	if _, err := s.Get(ctx, materialID); err != nil {
		return nil, err
	}
	prices, err := s.repos.ExportPrice.ListByMaterial(ctx, materialID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "failed to list export prices")
	}
	return prices, nil
}

// LatestPrice 物料在当前时点的现行出库价
func (s *MaterialService) LatestPrice(ctx context.Context, materialID string) (*entity.ExportPrice, error) {
	p, err := s.repos.ExportPrice.LatestByMaterial(ctx, materialID, s.clk.Now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Newf(apperr.NotFound, "Material %s has no export price.", materialID)
		}
		return nil, apperr.Wrap(apperr.Internal, err, "failed to load export price")
	}
	return p, nil
}
