package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bitfantasy/banyan/internal/service"
)

type MaterialHandler struct {
	svc *service.MaterialService
}

func NewMaterialHandler(svc *service.MaterialService) *MaterialHandler {
	return &MaterialHandler{svc: svc}
}

// Create 创建物料
func (h *MaterialHandler) Create(c *gin.Context) {
	var req service.CreateMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	material, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, material)
}

// Get 取物料
func (h *MaterialHandler) Get(c *gin.Context) {
	material, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, material)
}

// List 物料列表
func (h *MaterialHandler) List(c *gin.Context) {
	var materialType *int
	if raw := c.Query("material_type"); raw != "" {
		if t, err := strconv.Atoi(raw); err == nil {
			materialType = &t
		}
	}
	materials, err := h.svc.List(c.Request.Context(), c.Query("keyword"), materialType)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, materials)
}

type addPriceRequest struct {
	Price float64    `json:"price" binding:"required"`
	Date  *time.Time `json:"date"`
}

// AddExportPrice 追加出库价
func (h *MaterialHandler) AddExportPrice(c *gin.Context) {
	var req addPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	price, err := h.svc.AddExportPrice(c.Request.Context(), c.Param("id"), req.Price, req.Date)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, price)
}

// PriceHistory 出库价历史
func (h *MaterialHandler) PriceHistory(c *gin.Context) {
	prices, err := h.svc.PriceHistory(c.Request.Context(), c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, prices)
}

// LatestPrice 现行出库价
func (h *MaterialHandler) LatestPrice(c *gin.Context) {
	price, err := h.svc.LatestPrice(c.Request.Context(), c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, price)
}
