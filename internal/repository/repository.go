package repository

import (
	"gorm.io/gorm"
)

// Repositories 仓库集合
type Repositories struct {
	Material           *MaterialRepository
	ExportPrice        *ExportPriceRepository
	Project            *ProjectRepository
	Quotation          *QuotationRepository
	ConstructionConfig *ConstructionConfigRepository
	Contract           *ContractRepository
	Worker             *WorkerRepository
	Supplier           *SupplierRepository
	Fulfillment        *FulfillmentRepository
	Inventory          *InventoryRepository
}

// NewRepositories 创建仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Material:           NewMaterialRepository(db),
		ExportPrice:        NewExportPriceRepository(db),
		Project:            NewProjectRepository(db),
		Quotation:          NewQuotationRepository(db),
		ConstructionConfig: NewConstructionConfigRepository(db),
		Contract:           NewContractRepository(db),
		Worker:             NewWorkerRepository(db),
		Supplier:           NewSupplierRepository(db),
		Fulfillment:        NewFulfillmentRepository(db),
		Inventory:          NewInventoryRepository(db),
	}
}
