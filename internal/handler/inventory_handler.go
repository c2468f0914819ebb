package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/bitfantasy/banyan/internal/service"
)

type InventoryHandler struct {
	svc *service.InventoryService
}

func NewInventoryHandler(svc *service.InventoryService) *InventoryHandler {
	return &InventoryHandler{svc: svc}
}

type importRequest struct {
	SupplierPriceDetailID string `json:"supplier_price_detail_id" binding:"required"`
	Quantity              int    `json:"quantity" binding:"required,min=1"`
}

// Import 对着供应商报价行入库
func (h *InventoryHandler) Import(c *gin.Context) {
	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	history, err := h.svc.Import(c.Request.Context(), req.SupplierPriceDetailID, req.Quantity)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, history)
}

// History 物料库存流水
func (h *InventoryHandler) History(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	histories, total, err := h.svc.History(c.Request.Context(), c.Param("materialId"), page, size)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{"items": histories, "total": total, "page": page, "size": size})
}
