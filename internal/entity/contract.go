package entity

import (
	"time"
)

// ContractStatus 合同状态
const (
	ContractStatusNew        = "new"
	ContractStatusInProgress = "in_progress"
	ContractStatusActive     = "active"
	ContractStatusCompleted  = "completed"
	ContractStatusTerminated = "terminated"
)

// PaymentStatus 支付状态
const (
	PaymentStatusPending = "pending"
	PaymentStatusSuccess = "success"
	PaymentStatusFailed  = "failed"
)

// DepositPaymentName 定金进度款的固定名称，领料门禁按此名称查找
const DepositPaymentName = "Deposit"

// Contract 施工合同
type Contract struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	ProjectID string    `json:"project_id" gorm:"size:36;not null;uniqueIndex"`
	Total     float64   `json:"total" gorm:"type:decimal(14,2);default:0"`
	Status    string    `json:"status" gorm:"size:20;not null;default:new"`
	SignDate  *time.Time `json:"sign_date"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Contract) TableName() string {
	return "contracts"
}

// ContractProgressPayment 合同进度款，定金为名称等于 DepositPaymentName 的一期
type ContractProgressPayment struct {
	ID         string    `json:"id" gorm:"primaryKey;size:36"`
	ContractID string    `json:"contract_id" gorm:"size:36;not null;index"`
	Name       string    `json:"name" gorm:"size:64;not null"`
	PaymentID  string    `json:"payment_id" gorm:"size:36;not null"`
	CreatedAt  time.Time `json:"created_at"`

	Payment *Payment `json:"payment,omitempty" gorm:"foreignKey:PaymentID"`
}

func (ContractProgressPayment) TableName() string {
	return "contract_progress_payments"
}

// Payment 支付记录，网关交互在系统之外完成，这里只读结果
type Payment struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	Amount    float64   `json:"amount" gorm:"type:decimal(14,2);not null;default:0"`
	Status    string    `json:"status" gorm:"size:20;not null;default:pending"`
	PaidAt    *time.Time `json:"paid_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Payment) TableName() string {
	return "payments"
}
