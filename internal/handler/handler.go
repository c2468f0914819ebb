package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bitfantasy/banyan/internal/apperr"
	"github.com/bitfantasy/banyan/internal/service"
)

// Handlers HTTP处理器集合
type Handlers struct {
	Quotation   *QuotationHandler
	Fulfillment *FulfillmentHandler
	PriceSheet  *PriceSheetHandler
	Inventory   *InventoryHandler
	Material    *MaterialHandler
}

func NewHandlers(services *service.Services) *Handlers {
	return &Handlers{
		Quotation:   NewQuotationHandler(services.Quotation),
		Fulfillment: NewFulfillmentHandler(services.Fulfillment),
		PriceSheet:  NewPriceSheetHandler(services.PriceSheet),
		Inventory:   NewInventoryHandler(services.Inventory),
		Material:    NewMaterialHandler(services.Material),
	}
}

// Response 通用响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Errors  []string    `json:"errors,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// SuccessMessage 带提示语的成功响应，空列表等非错误场景用
func SuccessMessage(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: message,
		Data:    data,
	})
}

// BadRequest 请求体解析失败响应
func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, Response{Code: 10001, Message: message})
}

// Fail 按错误类别映射 HTTP 状态码，累积的校验消息逐条返回
func Fail(c *gin.Context, err error) {
	FailWithData(c, err, nil)
}

// FailWithData 同 Fail，另附带数据（如校验报告）
func FailWithData(c *gin.Context, err error, data interface{}) {
	msgs := apperr.Messages(err)
	message := "internal error"
	if len(msgs) > 0 {
		message = msgs[0]
	}

	var status, code int
	switch apperr.KindOf(err) {
	case apperr.NotFound:
		status, code = http.StatusNotFound, 10002
	case apperr.ValidationFailed, apperr.DuplicateInput:
		status, code = http.StatusBadRequest, 10001
	case apperr.StateConflict, apperr.IntegrityViolation:
		status, code = http.StatusConflict, 10003
	default:
		status, code = http.StatusInternalServerError, 50001
		message = "internal error"
		msgs = nil
	}

	c.JSON(status, Response{
		Code:    code,
		Message: message,
		Errors:  msgs,
		Data:    data,
	})
}
