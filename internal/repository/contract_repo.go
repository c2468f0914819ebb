package repository

import (
	"gorm.io/gorm"

	"github.com/bitfantasy/banyan/internal/entity"
)

type ContractRepository struct {
	db *gorm.DB
}

func NewContractRepository(db *gorm.DB) *ContractRepository {
	return &ContractRepository{db: db}
}

// FindByProjectTx 事务内取项目合同，领料门禁在写事务里走这里
func (r *ContractRepository) FindByProjectTx(tx *gorm.DB, projectID string) (*entity.Contract, error) {
	var c entity.Contract
	err := tx.First(&c, "project_id = ?", projectID).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// FindDepositPaymentTx 事务内取合同定金进度款，带支付记录
func (r *ContractRepository) FindDepositPaymentTx(tx *gorm.DB, contractID string) (*entity.ContractProgressPayment, error) {
	var p entity.ContractProgressPayment
	err := tx.Preload("Payment").
		Where("contract_id = ? AND name = ?", contractID, entity.DepositPaymentName).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}
