package entity

import "gorm.io/gorm"

// AutoMigrate 自动迁移所有表
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		// 基础数据
		&Material{},
		&ExportPrice{},
		&WorkerPrice{},
		&ConstructionConfig{},
		&Supplier{},

		// 项目与报价
		&Project{},
		&Quotation{},
		&QuotationDetail{},
		&WorkerForProject{},

		// 合同与支付
		&Contract{},
		&ContractProgressPayment{},
		&Payment{},

		// 领料与库存
		&ProgressConstructionMaterial{},
		&InventoryHistory{},

		// 供应商报价
		&SupplierPriceQuotation{},
		&SupplierPriceDetail{},
	)
}
