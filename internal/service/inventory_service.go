package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/bitfantasy/banyan/internal/apperr"
	"github.com/bitfantasy/banyan/internal/clock"
	"github.com/bitfantasy/banyan/internal/entity"
	"github.com/bitfantasy/banyan/internal/repository"
)

type InventoryService struct {
	db     *gorm.DB
	repos  *repository.Repositories
	clk    clock.Clock
	logger *zap.Logger
}

func NewInventoryService(db *gorm.DB, repos *repository.Repositories, clk clock.Clock, logger *zap.Logger) *InventoryService {
	return &InventoryService{db: db, repos: repos, clk: clk, logger: logger}
}

// Import 对着供应商报价行入库：加库存并写入库侧流水
func (s *InventoryService) Import(ctx context.Context, supplierPriceDetailID string, quantity int) (*entity.InventoryHistory, error) {
	if quantity <= 0 {
		return nil, apperr.New(apperr.ValidationFailed, "Quantity must be higher than 0.")
	}

	var history *entity.InventoryHistory
	now := s.clk.Now()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var detail entity.SupplierPriceDetail
		err := tx.First(&detail, "id = ?", supplierPriceDetailID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.Newf(apperr.NotFound, "Supplier price detail %s does not exist.", supplierPriceDetailID)
			}
			return err
		}

		var material entity.Material
		err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&material, "id = ?", detail.MaterialID).Error
		if err != nil {
			return err
		}

		err = tx.Model(&entity.Material{}).
			Where("id = ?", material.ID).
			UpdateColumn("quantity", gorm.Expr("quantity + ?", quantity)).Error
		if err != nil {
			return err
		}

		history = &entity.InventoryHistory{
			ID:                    uuid.New().String(),
			Quantity:              quantity,
			Date:                  now,
			SupplierPriceDetailID: &detail.ID,
		}
		return tx.Create(history).Error
	})
	if err != nil {
		if apperr.KindOf(err) == apperr.Internal {
			s.logger.Error("import inventory failed", zap.String("supplier_price_detail_id", supplierPriceDetailID), zap.Error(err))
			return nil, apperr.Wrap(apperr.Internal, err, "failed to import inventory")
		}
		return nil, err
	}
	return history, nil
}

// History 物料库存流水分页查询
func (s *InventoryService) History(ctx context.Context, materialID string, page, size int) ([]entity.InventoryHistory, int64, error) {
	histories, total, err := s.repos.Inventory.ListByMaterial(ctx, materialID, page, size)
	if err != nil {
		return nil, 0, apperr.Wrap(apperr.Internal, err, "failed to list inventory history")
	}
	return histories, total, nil
}
