package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/bitfantasy/banyan/internal/repository"
	"github.com/bitfantasy/banyan/internal/service"
)

type FulfillmentHandler struct {
	svc *service.FulfillmentService
}

func NewFulfillmentHandler(svc *service.FulfillmentService) *FulfillmentHandler {
	return &FulfillmentHandler{svc: svc}
}

type createFulfillmentRequest struct {
	Items []service.FulfillmentRequest `json:"items" binding:"required,dive"`
}

// Create 批量创建领料记录
func (h *FulfillmentHandler) Create(c *gin.Context) {
	var req createFulfillmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	entries, err := h.svc.Create(c.Request.Context(), req.Items)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, entries)
}

// Get 取领料记录
func (h *FulfillmentHandler) Get(c *gin.Context) {
	entry, err := h.svc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, entry)
}

type updateFulfillmentRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

// Update 修改领料数量
func (h *FulfillmentHandler) Update(c *gin.Context) {
	var req updateFulfillmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	entry, err := h.svc.Update(c.Request.Context(), c.Param("id"), req.Quantity)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, entry)
}

// Delete 删除领料记录并退回库存
func (h *FulfillmentHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		Fail(c, err)
		return
	}
	Success(c, nil)
}

// Remaining 行项剩余可领量
func (h *FulfillmentHandler) Remaining(c *gin.Context) {
	remaining, err := h.svc.Remaining(c.Request.Context(), c.Param("detailId"))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{"quotation_detail_id": c.Param("detailId"), "remaining": remaining})
}

// List 领料记录分页查询，空结果返回提示语而非错误
func (h *FulfillmentHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	params := repository.ListParams{
		QuotationID: c.Query("quotation_id"),
		DetailID:    c.Query("quotation_detail_id"),
		Page:        page,
		Size:        size,
		SortBy:      c.DefaultQuery("sort_by", "date"),
		SortDir:     c.DefaultQuery("sort_dir", "desc"),
	}
	records, total, err := h.svc.List(c.Request.Context(), params)
	if err != nil {
		Fail(c, err)
		return
	}
	data := gin.H{"items": records, "total": total, "page": page, "size": size}
	if total == 0 {
		SuccessMessage(c, "No fulfillment records found.", data)
		return
	}
	Success(c, data)
}
