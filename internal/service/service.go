package service

import (
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/bitfantasy/banyan/internal/clock"
	"github.com/bitfantasy/banyan/internal/config"
	"github.com/bitfantasy/banyan/internal/repository"
)

// Services 服务集合
type Services struct {
	Quotation   *QuotationService
	Fulfillment *FulfillmentService
	PriceSheet  *PriceSheetService
	Inventory   *InventoryService
	Material    *MaterialService
}

// NewServices 创建服务集合。minioClient 可为 nil，此时报价单归档被跳过。
func NewServices(db *gorm.DB, repos *repository.Repositories, minioClient *minio.Client, cfg *config.Config, clk clock.Clock, logger *zap.Logger) *Services {
	return &Services{
		Quotation:   NewQuotationService(db, repos, clk, logger),
		Fulfillment: NewFulfillmentService(db, repos, clk, logger),
		PriceSheet:  NewPriceSheetService(db, repos, minioClient, cfg.MinIO.Bucket, clk, logger),
		Inventory:   NewInventoryService(db, repos, clk, logger),
		Material:    NewMaterialService(repos, clk),
	}
}
