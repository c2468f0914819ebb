package handler

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"github.com/bitfantasy/banyan/internal/apperr"
	"github.com/bitfantasy/banyan/internal/service"
)

type PriceSheetHandler struct {
	svc *service.PriceSheetService
}

func NewPriceSheetHandler(svc *service.PriceSheetService) *PriceSheetHandler {
	return &PriceSheetHandler{svc: svc}
}

// 上传文件大小上限
const maxSheetSize = 10 << 20

func (h *PriceSheetHandler) readUpload(c *gin.Context) (string, *excelize.File, []byte, error) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return "", nil, nil, apperr.New(apperr.ValidationFailed, "A file is required.")
	}
	if fileHeader.Size > maxSheetSize {
		return "", nil, nil, apperr.New(apperr.ValidationFailed, "The file is too large.")
	}
	src, err := fileHeader.Open()
	if err != nil {
		return "", nil, nil, apperr.Wrap(apperr.ValidationFailed, err, "The file could not be opened.")
	}
	defer src.Close()

	raw, err := io.ReadAll(src)
	if err != nil {
		return "", nil, nil, apperr.Wrap(apperr.ValidationFailed, err, "The file could not be read.")
	}
	f, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		return "", nil, nil, apperr.Wrap(apperr.ValidationFailed, err, "The file could not be read as a spreadsheet.")
	}
	return fileHeader.Filename, f, raw, nil
}

// Validate 校验报价单，只出报告不落库
func (h *PriceSheetHandler) Validate(c *gin.Context) {
	filename, f, _, err := h.readUpload(c)
	if err != nil {
		Fail(c, err)
		return
	}
	defer f.Close()

	report, err := h.svc.Validate(c.Request.Context(), filename, f)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, report)
}

// Upload 校验并提交报价单，任何行错误整批拒绝
func (h *PriceSheetHandler) Upload(c *gin.Context) {
	filename, f, raw, err := h.readUpload(c)
	if err != nil {
		Fail(c, err)
		return
	}
	defer f.Close()

	result, err := h.svc.Commit(c.Request.Context(), filename, f, raw)
	if err != nil {
		if result != nil {
			FailWithData(c, err, result.Report)
			return
		}
		Fail(c, err)
		return
	}
	Success(c, result)
}

// ErrorWorkbook 校验后渲染错误工作簿，供供应商修正重传
func (h *PriceSheetHandler) ErrorWorkbook(c *gin.Context) {
	filename, f, _, err := h.readUpload(c)
	if err != nil {
		Fail(c, err)
		return
	}
	defer f.Close()

	report, err := h.svc.Validate(c.Request.Context(), filename, f)
	if err != nil {
		Fail(c, err)
		return
	}
	out, err := h.svc.ErrorWorkbook(report)
	if err != nil {
		Fail(c, apperr.Wrap(apperr.Internal, err, "failed to render error workbook"))
		return
	}
	defer out.Close()

	h.streamWorkbook(c, out, "(ErrorColor)"+filename)
}

// Template 下载空白报价单模板
func (h *PriceSheetHandler) Template(c *gin.Context) {
	f, err := h.svc.Template()
	if err != nil {
		Fail(c, apperr.Wrap(apperr.Internal, err, "failed to render template"))
		return
	}
	defer f.Close()

	h.streamWorkbook(c, f, "PriceSheetTemplate.xlsx")
}

func (h *PriceSheetHandler) streamWorkbook(c *gin.Context, f *excelize.File, filename string) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := f.Write(c.Writer); err != nil {
		c.Status(http.StatusInternalServerError)
	}
}

// Get 取报价单
func (h *PriceSheetHandler) Get(c *gin.Context) {
	quotation, err := h.svc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, quotation)
}

// ListByMonth 按月列出报价单，缺省当月
func (h *PriceSheetHandler) ListByMonth(c *gin.Context) {
	now := time.Now()
	year, _ := strconv.Atoi(c.DefaultQuery("year", strconv.Itoa(now.Year())))
	monthNum, _ := strconv.Atoi(c.DefaultQuery("month", strconv.Itoa(int(now.Month()))))
	if monthNum < 1 || monthNum > 12 {
		BadRequest(c, "month must be between 1 and 12")
		return
	}
	quotations, err := h.svc.ListByMonth(c.Request.Context(), year, time.Month(monthNum))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, quotations)
}

// Delete 删除报价单，已被库存引用的拒绝
func (h *PriceSheetHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		Fail(c, err)
		return
	}
	Success(c, nil)
}
