package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/bitfantasy/banyan/internal/apperr"
	"github.com/bitfantasy/banyan/internal/clock"
	"github.com/bitfantasy/banyan/internal/entity"
	"github.com/bitfantasy/banyan/internal/repository"
)

type FulfillmentService struct {
	db     *gorm.DB
	repos  *repository.Repositories
	clk    clock.Clock
	logger *zap.Logger
}

func NewFulfillmentService(db *gorm.DB, repos *repository.Repositories, clk clock.Clock, logger *zap.Logger) *FulfillmentService {
	return &FulfillmentService{db: db, repos: repos, clk: clk, logger: logger}
}

// FulfillmentRequest 一条领料请求
type FulfillmentRequest struct {
	QuotationDetailID string `json:"quotation_detail_id" binding:"required"`
	Quantity          int    `json:"quantity" binding:"required,min=1"`
}

// Create 批量创建领料记录。整批在一个事务内：逐条过门禁与余量校验，
// 错误全部累积，任何一条失败整批不落库；末尾对涉及物料做全有或全无的
// 库存校验与扣减。余量判定前对行项加行锁，并发领料按行项串行。
func (s *FulfillmentService) Create(ctx context.Context, reqs []FulfillmentRequest) ([]entity.ProgressConstructionMaterial, error) {
	if len(reqs) == 0 {
		return nil, apperr.New(apperr.ValidationFailed, "At least one fulfillment item is required.")
	}

	now := s.clk.Now()
	var entries []entity.ProgressConstructionMaterial

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var errs error
		// 按物料累计本批出库量，物料名只为报错可读
		exported := map[string]int{}
		materialNames := map[string]string{}
		// 按行项累计本批已暂存量，余量判定把同批前面的行一并计入
		staged := map[string]int{}

		for _, req := range reqs {
			var detail entity.QuotationDetail
			err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				First(&detail, "id = ?", req.QuotationDetailID).Error
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					errs = multierr.Append(errs, apperr.Newf(apperr.NotFound,
						"Quotation detail %s does not exist.", req.QuotationDetailID))
					continue
				}
				return err
			}

			var material entity.Material
			if err := tx.First(&material, "id = ?", detail.MaterialID).Error; err != nil {
				return err
			}
			materialNames[material.ID] = material.Name

			quotation, err := s.gate(tx, &detail, &material)
			if err != nil {
				errs = multierr.Append(errs, err)
				continue
			}

			fulfilled, err := s.repos.Fulfillment.SumQuantityByDetailTx(tx, detail.ID, "")
			if err != nil {
				return err
			}
			remaining := detail.Quantity - fulfilled - staged[detail.ID]
			if req.Quantity > remaining {
				errs = multierr.Append(errs, apperr.Newf(apperr.ValidationFailed,
					"The fulfilling quantity of material %s is higher than the remaining quantity %d.", material.Name, remaining))
				continue
			}

			price, err := latestPriceTx(tx, material.ID, now)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					errs = multierr.Append(errs, apperr.Newf(apperr.ValidationFailed,
						"Material %s has no export price.", material.Name))
					continue
				}
				return err
			}

			discount := quotation.FurnitureDiscount
			if material.MaterialType == entity.MaterialTypeRaw {
				discount = quotation.RawMaterialDiscount
			}

			entries = append(entries, entity.ProgressConstructionMaterial{
				ID:                uuid.New().String(),
				QuotationDetailID: detail.ID,
				ExportPriceID:     price.ID,
				Quantity:          req.Quantity,
				Discount:          discount,
				Total:             float64(req.Quantity) * (1 - discount) * price.Price,
				Date:              now,
			})
			exported[material.ID] += req.Quantity
			staged[detail.ID] += req.Quantity
		}

		if errs != nil {
			return errs
		}

		for i := range entries {
			if err := tx.Create(&entries[i]).Error; err != nil {
				return err
			}
			history := &entity.InventoryHistory{
				ID:                             uuid.New().String(),
				Quantity:                       entries[i].Quantity,
				Date:                           now,
				ProgressConstructionMaterialID: &entries[i].ID,
			}
			if err := tx.Create(history).Error; err != nil {
				return err
			}
		}

		// 库存校验与扣减全有或全无，任一物料不足整批回滚
		for materialID, qty := range exported {
			var material entity.Material
			err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				First(&material, "id = ?", materialID).Error
			if err != nil {
				return err
			}
			if material.Quantity < qty {
				errs = multierr.Append(errs, apperr.Newf(apperr.IntegrityViolation,
					"Material %s does not have enough stock for quantity %d.", materialNames[materialID], qty))
			}
		}
		if errs != nil {
			return errs
		}
		for materialID, qty := range exported {
			err := tx.Model(&entity.Material{}).
				Where("id = ?", materialID).
				UpdateColumn("quantity", gorm.Expr("quantity - ?", qty)).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if apperr.KindOf(err) == apperr.Internal {
			s.logger.Error("create fulfillment failed", zap.Error(err))
			return nil, apperr.Wrap(apperr.Internal, err, "failed to create fulfillment")
		}
		return nil, err
	}

	return entries, nil
}

// gate 校验领料门禁：报价单已通过、项目施工中、合同生效、定金已付
func (s *FulfillmentService) gate(tx *gorm.DB, detail *entity.QuotationDetail, material *entity.Material) (*entity.Quotation, error) {
	var quotation entity.Quotation
	if err := tx.First(&quotation, "id = ?", detail.QuotationID).Error; err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "failed to load quotation")
	}
	if quotation.Status != entity.QuotationStatusApproved {
		return nil, apperr.Newf(apperr.StateConflict,
			"The quotation for material %s has not been approved.", material.Name)
	}

	var project entity.Project
	if err := tx.First(&project, "id = ?", quotation.ProjectID).Error; err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "failed to load project")
	}
	if project.Status != entity.ProjectStatusUnderConstruction {
		return nil, apperr.Newf(apperr.StateConflict,
			"Project %s is not under construction.", project.Name)
	}

	contract, err := s.repos.Contract.FindByProjectTx(tx, project.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Newf(apperr.StateConflict,
				"Project %s has no active contract.", project.Name)
		}
		return nil, apperr.Wrap(apperr.Internal, err, "failed to load contract")
	}
	if contract.Status != entity.ContractStatusActive {
		return nil, apperr.Newf(apperr.StateConflict,
			"The contract of project %s is not active.", project.Name)
	}

	deposit, err := s.repos.Contract.FindDepositPaymentTx(tx, contract.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Newf(apperr.StateConflict,
				"The deposit of project %s has not been paid.", project.Name)
		}
		return nil, apperr.Wrap(apperr.Internal, err, "failed to load deposit payment")
	}
	if deposit.Payment == nil || deposit.Payment.Status != entity.PaymentStatusSuccess {
		return nil, apperr.Newf(apperr.StateConflict,
			"The deposit of project %s has not been paid.", project.Name)
	}

	return &quotation, nil
}

// latestPriceTx 事务内取现行出库价，排序规则与 ExportPriceRepository 一致
func latestPriceTx(tx *gorm.DB, materialID string, asOf time.Time) (*entity.ExportPrice, error) {
	var p entity.ExportPrice
	err := tx.Where("material_id = ? AND date <= ?", materialID, asOf).
		Order("date DESC, created_at DESC").
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Update 修改领料数量：按新数量重算余量（不计本单），金额沿用创建时的
// 价格与折扣快照，差额同步到库存与配对流水。
func (s *FulfillmentService) Update(ctx context.Context, id string, quantity int) (*entity.ProgressConstructionMaterial, error) {
	if quantity <= 0 {
		return nil, apperr.New(apperr.ValidationFailed, "Quantity must be higher than 0.")
	}

	var updated *entity.ProgressConstructionMaterial
	now := s.clk.Now()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var entry entity.ProgressConstructionMaterial
		err := tx.First(&entry, "id = ?", id).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.Newf(apperr.NotFound, "Fulfillment %s does not exist.", id)
			}
			return err
		}

		var detail entity.QuotationDetail
		err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&detail, "id = ?", entry.QuotationDetailID).Error
		if err != nil {
			return err
		}

		var material entity.Material
		if err := tx.First(&material, "id = ?", detail.MaterialID).Error; err != nil {
			return err
		}

		fulfilled, err := s.repos.Fulfillment.SumQuantityByDetailTx(tx, detail.ID, entry.ID)
		if err != nil {
			return err
		}
		remaining := detail.Quantity - fulfilled
		if quantity > remaining {
			return apperr.Newf(apperr.ValidationFailed,
				"The fulfilling quantity of material %s is higher than the remaining quantity %d.", material.Name, remaining)
		}

		delta := quantity - entry.Quantity
		if delta != 0 {
			var locked entity.Material
			err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				First(&locked, "id = ?", material.ID).Error
			if err != nil {
				return err
			}
			if delta > 0 && locked.Quantity < delta {
				return apperr.Newf(apperr.IntegrityViolation,
					"Material %s does not have enough stock for quantity %d.", material.Name, delta)
			}
			err = tx.Model(&entity.Material{}).
				Where("id = ?", material.ID).
				UpdateColumn("quantity", gorm.Expr("quantity - ?", delta)).Error
			if err != nil {
				return err
			}
		}

		var price entity.ExportPrice
		if err := tx.First(&price, "id = ?", entry.ExportPriceID).Error; err != nil {
			return err
		}

		entry.Quantity = quantity
		entry.Total = float64(quantity) * (1 - entry.Discount) * price.Price
		entry.Date = now
		if err := tx.Save(&entry).Error; err != nil {
			return err
		}

		err = tx.Model(&entity.InventoryHistory{}).
			Where("progress_construction_material_id = ?", entry.ID).
			Updates(map[string]interface{}{"quantity": quantity, "date": now}).Error
		if err != nil {
			return err
		}

		updated = &entry
		return nil
	})
	if err != nil {
		if apperr.KindOf(err) == apperr.Internal {
			s.logger.Error("update fulfillment failed", zap.String("fulfillment_id", id), zap.Error(err))
			return nil, apperr.Wrap(apperr.Internal, err, "failed to update fulfillment")
		}
		return nil, err
	}
	return updated, nil
}

// Delete 删除领料记录并把数量退回库存，配对流水一并删除
func (s *FulfillmentService) Delete(ctx context.Context, id string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var entry entity.ProgressConstructionMaterial
		err := tx.First(&entry, "id = ?", id).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.Newf(apperr.NotFound, "Fulfillment %s does not exist.", id)
			}
			return err
		}

		var detail entity.QuotationDetail
		if err := tx.First(&detail, "id = ?", entry.QuotationDetailID).Error; err != nil {
			return err
		}

		histories, err := s.repos.Inventory.FindByFulfillmentTx(tx, entry.ID)
		if err != nil {
			return err
		}

		restored := 0
		for _, h := range histories {
			restored += h.Quantity
		}
		if restored > 0 {
			err = tx.Model(&entity.Material{}).
				Where("id = ?", detail.MaterialID).
				UpdateColumn("quantity", gorm.Expr("quantity + ?", restored)).Error
			if err != nil {
				return err
			}
		}

		err = tx.Where("progress_construction_material_id = ?", entry.ID).
			Delete(&entity.InventoryHistory{}).Error
		if err != nil {
			return err
		}
		return tx.Delete(&entry).Error
	})
	if err != nil {
		if apperr.KindOf(err) == apperr.Internal {
			s.logger.Error("delete fulfillment failed", zap.String("fulfillment_id", id), zap.Error(err))
			return apperr.Wrap(apperr.Internal, err, "failed to delete fulfillment")
		}
		return err
	}
	return nil
}

// Remaining 行项的剩余可领量
func (s *FulfillmentService) Remaining(ctx context.Context, detailID string) (int, error) {
	detail, err := s.repos.Quotation.FindDetailByID(ctx, detailID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, apperr.Newf(apperr.NotFound, "Quotation detail %s does not exist.", detailID)
		}
		return 0, apperr.Wrap(apperr.Internal, err, "failed to load quotation detail")
	}
	fulfilled, err := s.repos.Fulfillment.SumQuantityByDetail(ctx, detailID, "")
	if err != nil {
		return 0, apperr.Wrap(apperr.Internal, err, "failed to sum fulfillments")
	}
	return detail.Quantity - fulfilled, nil
}

// GetByID 取领料记录
func (s *FulfillmentService) GetByID(ctx context.Context, id string) (*entity.ProgressConstructionMaterial, error) {
	entry, err := s.repos.Fulfillment.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Newf(apperr.NotFound, "Fulfillment %s does not exist.", id)
		}
		return nil, apperr.Wrap(apperr.Internal, err, "failed to load fulfillment")
	}
	return entry, nil
}

// List 领料记录分页查询，空结果不是错误
func (s *FulfillmentService) List(ctx context.Context, params repository.ListParams) ([]entity.ProgressConstructionMaterial, int64, error) {
	records, total, err := s.repos.Fulfillment.List(ctx, params)
	if err != nil {
		return nil, 0, apperr.Wrap(apperr.Internal, err, "failed to list fulfillments")
	}
	return records, total, nil
}
