package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/bitfantasy/banyan/internal/service"
)

type QuotationHandler struct {
	svc *service.QuotationService
}

func NewQuotationHandler(svc *service.QuotationService) *QuotationHandler {
	return &QuotationHandler{svc: svc}
}

// ConfigureProject 配置项目并生成报价单
func (h *QuotationHandler) ConfigureProject(c *gin.Context) {
	var req service.ConfigureProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	quotation, err := h.svc.ConfigureProject(c.Request.Context(), req)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, quotation)
}

// Get 取报价单
func (h *QuotationHandler) Get(c *gin.Context) {
	quotation, err := h.svc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, quotation)
}

// GetByProject 取项目的报价单列表
func (h *QuotationHandler) GetByProject(c *gin.Context) {
	quotations, err := h.svc.GetByProject(c.Request.Context(), c.Param("projectId"))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, quotations)
}

// Workers 取报价单的用工行
func (h *QuotationHandler) Workers(c *gin.Context) {
	workers, err := h.svc.Workers(c.Request.Context(), c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, workers)
}

// WorkerPrices 工种基准价列表
func (h *QuotationHandler) WorkerPrices(c *gin.Context) {
	prices, err := h.svc.ListWorkerPrices(c.Request.Context())
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, prices)
}

type dealRequest struct {
	Accept bool `json:"accept"`
}

// Deal 报价单议价流转
func (h *QuotationHandler) Deal(c *gin.Context) {
	var req dealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	quotation, err := h.svc.DealQuotation(c.Request.Context(), c.Param("id"), req.Accept)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, quotation)
}

type discountRequest struct {
	RawMaterialDiscount float64 `json:"raw_material_discount"`
	FurnitureDiscount   float64 `json:"furniture_discount"`
	LaborDiscount       float64 `json:"labor_discount"`
}

// ApplyDiscount 议价中设置折扣
func (h *QuotationHandler) ApplyDiscount(c *gin.Context) {
	var req discountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	quotation, err := h.svc.ApplyDiscount(c.Request.Context(), c.Param("id"),
		req.RawMaterialDiscount, req.FurnitureDiscount, req.LaborDiscount)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, quotation)
}
