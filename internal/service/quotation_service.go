package service

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/bitfantasy/banyan/internal/apperr"
	"github.com/bitfantasy/banyan/internal/clock"
	"github.com/bitfantasy/banyan/internal/entity"
	"github.com/bitfantasy/banyan/internal/repository"
)

// 基准物料名称，配置报价时按名称解析
const (
	BaselineMaterialBrick  = "Brick"
	BaselineMaterialSand   = "Sand"
	BaselineMaterialStone  = "Stone"
	BaselineMaterialCement = "Cement"
)

type QuotationService struct {
	db     *gorm.DB
	repos  *repository.Repositories
	clk    clock.Clock
	logger *zap.Logger
}

func NewQuotationService(db *gorm.DB, repos *repository.Repositories, clk clock.Clock, logger *zap.Logger) *QuotationService {
	return &QuotationService{db: db, repos: repos, clk: clk, logger: logger}
}

// ceilQuantity 体积估算向上取整为可领用的整数数量
func ceilQuantity(v float64) int {
	return int(math.Ceil(v))
}

// LaborLine 报价配置中的一条用工
type LaborLine struct {
	WorkerPriceID   string  `json:"worker_price_id" binding:"required"`
	Quantity        int     `json:"quantity" binding:"required,min=1"`
	ExportLaborCost float64 `json:"export_labor_cost" binding:"required"`
}

// ConfigureProjectRequest 项目配置请求
type ConfigureProjectRequest struct {
	ProjectID           string      `json:"project_id" binding:"required"`
	WallLength          float64     `json:"wall_length" binding:"required"`
	WallHeight          float64     `json:"wall_height" binding:"required"`
	TiledArea           float64     `json:"tiled_area"`
	EstimatedCompletion *time.Time  `json:"estimated_completion"`
	LaborLines          []LaborLine `json:"labor_lines"`
}

// ConfigureProject 为项目生成报价单：匹配施工配置，估算四种基准物料用量，
// 按现行出库价定价，校验全部通过后一次性落库。
func (s *QuotationService) ConfigureProject(ctx context.Context, req ConfigureProjectRequest) (*entity.Quotation, error) {
	project, err := s.repos.Project.FindByID(ctx, req.ProjectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Newf(apperr.NotFound, "Project %s does not exist.", req.ProjectID)
		}
		s.logger.Error("load project failed", zap.String("project_id", req.ProjectID), zap.Error(err))
		return nil, apperr.Wrap(apperr.Internal, err, "failed to configure project")
	}
	if project.Status != entity.ProjectStatusPending {
		return nil, apperr.Newf(apperr.StateConflict, "Project %s has already been configured.", project.ID)
	}

	var errs error

	// 用工行校验：工种必须存在，报价人工单价不得低于基准价
	for _, line := range req.LaborLines {
		wp, err := s.repos.Worker.FindPriceByID(ctx, line.WorkerPriceID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				errs = multierr.Append(errs, apperr.Newf(apperr.NotFound, "Worker price %s does not exist.", line.WorkerPriceID))
				continue
			}
			s.logger.Error("load worker price failed", zap.String("worker_price_id", line.WorkerPriceID), zap.Error(err))
			return nil, apperr.Wrap(apperr.Internal, err, "failed to configure project")
		}
		if line.ExportLaborCost < wp.LaborCost {
			errs = multierr.Append(errs, apperr.Newf(apperr.ValidationFailed,
				"Export labor cost for %s must not be lower than the base labor cost %.2f.", wp.PositionName, wp.LaborCost))
		}
	}

	// 无匹配配置时无法定价，连同已累积的用工错误一并返回
	config, err := s.repos.ConstructionConfig.FindMatch(ctx, project.ConstructionType, project.NumOfFloor, project.Area, req.TiledArea)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			errs = multierr.Append(errs, apperr.New(apperr.ValidationFailed,
				"No construction config matches this project. A quotation cannot be priced without one."))
			return nil, errs
		}
		s.logger.Error("load construction config failed", zap.String("project_id", project.ID), zap.Error(err))
		return nil, apperr.Wrap(apperr.Internal, err, "failed to configure project")
	}

	est := EstimateWallMaterials(WallEstimateInput{
		WallLength:        req.WallLength,
		WallHeight:        req.WallHeight,
		SandMixingRatio:   config.SandMixingRatio,
		CementMixingRatio: config.CementMixingRatio,
		StoneMixingRatio:  config.StoneMixingRatio,
	})

	now := s.clk.Now()

	// 四种基准物料逐个定价，缺物料或缺价都累积后一次性返回
	type pricedLine struct {
		materialID string
		quantity   int
		total      float64
	}
	baseline := []struct {
		name     string
		quantity int
	}{
		{BaselineMaterialBrick, est.BrickQuantity},
		{BaselineMaterialSand, ceilQuantity(est.SandVolume)},
		{BaselineMaterialStone, ceilQuantity(est.StoneVolume)},
		{BaselineMaterialCement, ceilQuantity(est.CementVolume)},
	}
	lines := make([]pricedLine, 0, len(baseline))
	for _, b := range baseline {
		material, err := s.repos.Material.FindByName(ctx, b.name)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				errs = multierr.Append(errs, apperr.Newf(apperr.NotFound, "Material %s does not exist.", b.name))
				continue
			}
			s.logger.Error("load material failed", zap.String("material", b.name), zap.Error(err))
			return nil, apperr.Wrap(apperr.Internal, err, "failed to configure project")
		}
		price, err := s.repos.ExportPrice.LatestByMaterial(ctx, material.ID, now)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				errs = multierr.Append(errs, apperr.Newf(apperr.ValidationFailed, "Material %s has no export price.", b.name))
				continue
			}
			s.logger.Error("load export price failed", zap.String("material", b.name), zap.Error(err))
			return nil, apperr.Wrap(apperr.Internal, err, "failed to configure project")
		}
		lines = append(lines, pricedLine{
			materialID: material.ID,
			quantity:   b.quantity,
			total:      float64(b.quantity) * price.Price,
		})
	}

	if errs != nil {
		return nil, errs
	}

	totalLabor := 0.0
	laborHeadcount := 0
	for _, line := range req.LaborLines {
		totalLabor += float64(line.Quantity) * line.ExportLaborCost
		laborHeadcount += line.Quantity
	}

	quotation := &entity.Quotation{
		ID:              uuid.New().String(),
		ProjectID:       project.ID,
		Status:          entity.QuotationStatusPending,
		TotalLaborPrice: totalLabor,
		CreateDate:      now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		project.Status = entity.ProjectStatusProcessing
		project.WallLength = req.WallLength
		project.WallHeight = req.WallHeight
		project.TiledArea = req.TiledArea
		project.SandMixingRatio = config.SandMixingRatio
		project.CementMixingRatio = config.CementMixingRatio
		project.StoneMixingRatio = config.StoneMixingRatio
		project.NumberOfLabor = laborHeadcount
		project.EstimatedCompletion = req.EstimatedCompletion
		if err := tx.Save(project).Error; err != nil {
			return err
		}

		if err := tx.Create(quotation).Error; err != nil {
			return err
		}

		for _, line := range lines {
			detail := &entity.QuotationDetail{
				ID:          uuid.New().String(),
				QuotationID: quotation.ID,
				MaterialID:  line.materialID,
				Quantity:    line.quantity,
				Total:       line.total,
			}
			if err := tx.Create(detail).Error; err != nil {
				return err
			}
			quotation.Details = append(quotation.Details, *detail)
		}

		for _, line := range req.LaborLines {
			worker := &entity.WorkerForProject{
				ID:              uuid.New().String(),
				QuotationID:     quotation.ID,
				WorkerPriceID:   line.WorkerPriceID,
				Quantity:        line.Quantity,
				ExportLaborCost: line.ExportLaborCost,
			}
			if err := tx.Create(worker).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("configure project commit failed", zap.String("project_id", project.ID), zap.Error(err))
		return nil, apperr.Wrap(apperr.Internal, err, "failed to configure project")
	}

	return quotation, nil
}

// GetByID 取报价单
func (s *QuotationService) GetByID(ctx context.Context, id string) (*entity.Quotation, error) {
	q, err := s.repos.Quotation.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Newf(apperr.NotFound, "Quotation %s does not exist.", id)
		}
		return nil, apperr.Wrap(apperr.Internal, err, "failed to load quotation")
	}
	return q, nil
}

// GetByProject 取项目的全部报价单
func (s *QuotationService) GetByProject(ctx context.Context, projectID string) ([]entity.Quotation, error) {
	quotations, err := s.repos.Quotation.FindByProject(ctx, projectID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "failed to load quotations")
	}
	return quotations, nil
}

// ListWorkerPrices 工种基准价列表，配置项目时选人工用
func (s *QuotationService) ListWorkerPrices(ctx context.Context) ([]entity.WorkerPrice, error) {
	prices, err := s.repos.Worker.ListPrices(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "failed to list worker prices")
	}
	return prices, nil
}

// Workers 取报价单上的用工行
func (s *QuotationService) Workers(ctx context.Context, quotationID string) ([]entity.WorkerForProject, error) {
	if _, err := s.GetByID(ctx, quotationID); err != nil {
		return nil, err
	}
	workers, err := s.repos.Worker.ListByQuotation(ctx, quotationID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "failed to list quotation workers")
	}
	return workers, nil
}

// DealQuotation 报价单状态流转：Pending 进入议价，Dealing 议定为通过或否决
func (s *QuotationService) DealQuotation(ctx context.Context, id string, accept bool) (*entity.Quotation, error) {
	q, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var next string
	switch q.Status {
	case entity.QuotationStatusPending:
		next = entity.QuotationStatusDealing
	case entity.QuotationStatusDealing:
		if accept {
			next = entity.QuotationStatusApproved
		} else {
			next = entity.QuotationStatusRejected
		}
	default:
		return nil, apperr.Newf(apperr.StateConflict, "Quotation %s can no longer be dealt in status %s.", id, q.Status)
	}

	if err := s.repos.Quotation.UpdateStatus(ctx, id, next); err != nil {
		s.logger.Error("update quotation status failed", zap.String("quotation_id", id), zap.Error(err))
		return nil, apperr.Wrap(apperr.Internal, err, "failed to update quotation")
	}
	q.Status = next
	return q, nil
}

// ApplyDiscount 议价中设置分类折扣，折扣取 [0,1) 的小数
func (s *QuotationService) ApplyDiscount(ctx context.Context, id string, rawMaterial, furniture, labor float64) (*entity.Quotation, error) {
	for _, d := range []float64{rawMaterial, furniture, labor} {
		if d < 0 || d >= 1 {
			return nil, apperr.Newf(apperr.ValidationFailed, "Discount %.4f is out of range [0, 1).", d)
		}
	}

	q, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if q.Status != entity.QuotationStatusDealing {
		return nil, apperr.Newf(apperr.StateConflict, "Discounts can only be applied while quotation %s is being dealt.", id)
	}

	if err := s.repos.Quotation.UpdateDiscounts(ctx, id, rawMaterial, furniture, labor); err != nil {
		s.logger.Error("update quotation discounts failed", zap.String("quotation_id", id), zap.Error(err))
		return nil, apperr.Wrap(apperr.Internal, err, "failed to update quotation")
	}
	q.RawMaterialDiscount = rawMaterial
	q.FurnitureDiscount = furniture
	q.LaborDiscount = labor
	return q, nil
}
