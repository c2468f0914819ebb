package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/bitfantasy/banyan/internal/apperr"
	"github.com/bitfantasy/banyan/internal/clock"
	"github.com/bitfantasy/banyan/internal/entity"
	"github.com/bitfantasy/banyan/internal/repository"
)

// 供应商报价单固定表头
var priceSheetHeaders = []string{"No", "MaterialName", "Unit", "MOQ", "Price"}

// 重传报价单的文件名前缀
const resubmissionPrefix = "(ErrorColor)"

type PriceSheetService struct {
	db     *gorm.DB
	repos  *repository.Repositories
	minio  *minio.Client
	bucket string
	clk    clock.Clock
	logger *zap.Logger
}

func NewPriceSheetService(db *gorm.DB, repos *repository.Repositories, minioClient *minio.Client, bucket string, clk clock.Clock, logger *zap.Logger) *PriceSheetService {
	return &PriceSheetService{db: db, repos: repos, minio: minioClient, bucket: bucket, clk: clk, logger: logger}
}

// SheetRow 报价单一行的校验结果。Row 为数据区内的行号，从 1 起
type SheetRow struct {
	Row          int      `json:"row"`
	MaterialName string   `json:"material_name"`
	Unit         string   `json:"unit"`
	MOQ          int      `json:"moq"`
	Price        float64  `json:"price"`
	MaterialID   string   `json:"material_id,omitempty"`
	Errors       []string `json:"errors,omitempty"`
	Warnings     []string `json:"warnings,omitempty"`
}

// SheetReport 整张报价单的校验报告
type SheetReport struct {
	SupplierID   string     `json:"supplier_id"`
	SupplierName string     `json:"supplier_name"`
	Date         time.Time  `json:"date"`
	Resubmission bool       `json:"resubmission"`
	HeaderErrors []string   `json:"header_errors,omitempty"`
	Rows         []SheetRow `json:"rows"`
	ErrorCount   int        `json:"error_count"`
	WarningCount int        `json:"warning_count"`
}

// HasErrors 报告中是否存在阻断提交的错误。警告不阻断。
func (r *SheetReport) HasErrors() bool {
	return len(r.HeaderErrors) > 0 || r.ErrorCount > 0
}

// CommitResult 提交结果
type CommitResult struct {
	Quotation *entity.SupplierPriceQuotation `json:"quotation"`
	Report    *SheetReport                   `json:"report"`
	Archived  string                         `json:"archived,omitempty"`
}

// ParseSheetFileName 解析报价单文件名 <SupplierName>_<ddMMyyyy>，
// 可选 (ErrorColor) 前缀标记纠错重传。
func ParseSheetFileName(filename string, loc *time.Location) (supplierName string, date time.Time, resubmission bool, err error) {
	name := filename
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[:i]
	}
	if strings.HasPrefix(name, resubmissionPrefix) {
		resubmission = true
		name = strings.TrimPrefix(name, resubmissionPrefix)
	}
	name = strings.TrimSpace(name)

	i := strings.LastIndex(name, "_")
	if i <= 0 || i == len(name)-1 {
		return "", time.Time{}, false, apperr.Newf(apperr.ValidationFailed,
			"File name %s must follow <SupplierName>_<ddMMyyyy>.", filename)
	}
	supplierName = name[:i]
	datePart := name[i+1:]
	if len(datePart) < 8 {
		return "", time.Time{}, false, apperr.Newf(apperr.ValidationFailed,
			"File name %s must follow <SupplierName>_<ddMMyyyy>.", filename)
	}
	date, parseErr := time.ParseInLocation("02012006", datePart[:8], loc)
	if parseErr != nil {
		return "", time.Time{}, false, apperr.Newf(apperr.ValidationFailed,
			"File name %s must follow <SupplierName>_<ddMMyyyy>.", filename)
	}
	return supplierName, date, resubmission, nil
}

// Validate 校验报价单但不落库，可重复调用，同一文件两次结果一致
func (s *PriceSheetService) Validate(ctx context.Context, filename string, f *excelize.File) (*SheetReport, error) {
	supplierName, date, resubmission, err := ParseSheetFileName(filename, s.clk.Now().Location())
	if err != nil {
		return nil, err
	}

	supplier, err := s.repos.Supplier.FindByName(ctx, supplierName)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Newf(apperr.NotFound, "Supplier %s does not exist.", supplierName)
		}
		s.logger.Error("load supplier failed", zap.String("supplier", supplierName), zap.Error(err))
		return nil, apperr.Wrap(apperr.Internal, err, "failed to validate price sheet")
	}

	report := &SheetReport{
		SupplierID:   supplier.ID,
		SupplierName: supplier.Name,
		Date:         date,
		Resubmission: resubmission,
	}

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, apperr.Wrap(apperr.ValidationFailed, err, "The file could not be read as a spreadsheet.")
	}
	if len(rows) == 0 {
		report.HeaderErrors = append(report.HeaderErrors, "The sheet has no header row.")
		return report, nil
	}

	// 表头必须与模板完全一致，不一致时不再评估数据行
	if diff := headerDiff(rows[0]); diff != "" {
		report.HeaderErrors = append(report.HeaderErrors, diff)
		return report, nil
	}

	// 物料按 (名称, 单位) 记忆化，同一批内相同组合只查一次
	materialCache := map[string]*entity.Material{}
	// (名称小写, MOQ) -> 首次出现的行号
	seen := map[string]int{}

	for i, raw := range rows[1:] {
		row := s.validateRow(ctx, i+1, raw, supplier, date, materialCache, seen)
		report.ErrorCount += len(row.Errors)
		report.WarningCount += len(row.Warnings)
		report.Rows = append(report.Rows, row)
	}
	return report, nil
}

// headerDiff 比对表头，返回首个差异的描述，完全一致返回空串
func headerDiff(header []string) string {
	for i, want := range priceSheetHeaders {
		got := ""
		if i < len(header) {
			got = strings.TrimSpace(header[i])
		}
		if got != want {
			return fmt.Sprintf("Header column %d must be %s, got %q.", i+1, want, got)
		}
	}
	return ""
}

func (s *PriceSheetService) validateRow(ctx context.Context, position int, raw []string, supplier *entity.Supplier, date time.Time, materialCache map[string]*entity.Material, seen map[string]int) SheetRow {
	cell := func(i int) string {
		if i < len(raw) {
			return strings.TrimSpace(raw[i])
		}
		return ""
	}

	row := SheetRow{
		Row:          position,
		MaterialName: cell(1),
		Unit:         cell(2),
	}

	// 序号列必须等于物理行位置
	if no, err := strconv.Atoi(cell(0)); err != nil || no != position {
		row.Errors = append(row.Errors, fmt.Sprintf("No must be %d.", position))
	}

	// 名称、单位、MOQ、价格各查各的，一行里的错误全部报出来
	if row.MaterialName == "" || row.Unit == "" {
		row.Errors = append(row.Errors, "MaterialName and Unit must not be empty.")
	}

	unitCode, unitKnown := entity.MaterialUnits[row.Unit]
	if row.Unit != "" && !unitKnown {
		row.Errors = append(row.Errors, fmt.Sprintf("Unit: %s does not exist.", row.Unit))
	}
	if unitKnown && !entity.CanSupplyUnit(supplier.Type, unitCode) {
		row.Errors = append(row.Errors, fmt.Sprintf("Supplier %s does not supply this material.", supplier.Name))
	}

	var material *entity.Material
	if row.MaterialName != "" && unitKnown {
		cacheKey := strings.ToLower(row.MaterialName) + "|" + strconv.Itoa(unitCode)
		m, cached := materialCache[cacheKey]
		if !cached {
			found, err := s.repos.Material.FindByNameAndUnit(ctx, row.MaterialName, unitCode)
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				row.Errors = append(row.Errors, "Material lookup failed.")
				s.logger.Error("material lookup failed", zap.String("material", row.MaterialName), zap.Error(err))
				return row
			}
			m = found
			materialCache[cacheKey] = m
		}
		material = m
		if material == nil {
			row.Errors = append(row.Errors, fmt.Sprintf("Material %s with unit %s does not exist.", row.MaterialName, row.Unit))
		} else {
			row.MaterialID = material.ID
		}
	}

	moq, err := strconv.Atoi(cell(3))
	if err != nil {
		row.Errors = append(row.Errors, "MOQ (Minimum Order Quantity) must be a number.")
	} else {
		row.MOQ = moq
		if moq <= 0 {
			row.Errors = append(row.Errors, "MOQ (Minimum Order Quantity) must be higher than 0.")
		}
	}

	price, err := strconv.ParseFloat(cell(4), 64)
	if err != nil {
		row.Errors = append(row.Errors, "Price must be a number.")
	} else {
		row.Price = price
		if price <= 0 {
			row.Errors = append(row.Errors, "Price must be higher than 0.")
		}
	}

	// 批内 (名称, MOQ) 查重，引用首次出现的行号
	if row.MaterialName != "" && row.MOQ > 0 {
		dupKey := strings.ToLower(row.MaterialName) + "|" + strconv.Itoa(row.MOQ)
		if first, dup := seen[dupKey]; dup {
			row.Errors = append(row.Errors, fmt.Sprintf("Duplicated material name and MOQ with row %d.", first))
		} else {
			seen[dupKey] = position
		}
	}

	// 同供应商同日同物料同档位已入库的按疑似重传告警，不阻断
	if material != nil && row.MOQ > 0 {
		stored, err := s.repos.Supplier.HasStoredDetail(ctx, supplier.ID, date, material.ID, row.MOQ)
		if err != nil {
			s.logger.Error("stored detail lookup failed", zap.String("material", row.MaterialName), zap.Error(err))
		} else if stored {
			row.Warnings = append(row.Warnings,
				"A price with the same MOQ was already stored for this supplier on the same day.")
		}
	}

	return row
}

// Commit 重跑校验后整批落库。任何一行有错误则整批拒绝；
// 警告不阻断提交。提交成功后原始文件归档到对象存储。
func (s *PriceSheetService) Commit(ctx context.Context, filename string, f *excelize.File, raw []byte) (*CommitResult, error) {
	report, err := s.Validate(ctx, filename, f)
	if err != nil {
		return nil, err
	}
	result := &CommitResult{Report: report}
	if report.HasErrors() {
		return result, apperr.New(apperr.ValidationFailed, "The price sheet contains invalid rows and was rejected.")
	}
	if len(report.Rows) == 0 {
		return result, apperr.New(apperr.ValidationFailed, "The price sheet has no data rows.")
	}

	quotation := &entity.SupplierPriceQuotation{
		ID:         uuid.New().String(),
		SupplierID: report.SupplierID,
		Date:       report.Date,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(quotation).Error; err != nil {
			return err
		}
		for _, row := range report.Rows {
			detail := &entity.SupplierPriceDetail{
				ID:                       uuid.New().String(),
				SupplierPriceQuotationID: quotation.ID,
				MaterialID:               row.MaterialID,
				MOQ:                      row.MOQ,
				Price:                    row.Price,
			}
			if err := tx.Create(detail).Error; err != nil {
				return err
			}
			quotation.Details = append(quotation.Details, *detail)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("commit price sheet failed", zap.String("supplier", report.SupplierName), zap.Error(err))
		return nil, apperr.Wrap(apperr.Internal, err, "failed to commit price sheet")
	}
	result.Quotation = quotation

	// 归档尽力而为，失败只记日志不回滚业务数据
	if s.minio != nil && len(raw) > 0 {
		key := fmt.Sprintf("price-sheets/%s/%s", report.Date.Format("2006/01"), filename)
		_, err := s.minio.PutObject(ctx, s.bucket, key, bytes.NewReader(raw), int64(len(raw)), minio.PutObjectOptions{
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		})
		if err != nil {
			s.logger.Warn("archive price sheet failed", zap.String("key", key), zap.Error(err))
		} else {
			result.Archived = key
		}
	}

	return result, nil
}

// Template 生成空白报价单模板
func (s *PriceSheetService) Template() (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := "PriceSheet"
	f.SetSheetName("Sheet1", sheet)

	boldStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return nil, err
	}
	for i, h := range priceSheetHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, boldStyle)
	}
	widths := []float64{6, 28, 10, 10, 14}
	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, col, col, w)
	}
	return f, nil
}

// ErrorWorkbook 把校验报告渲染回工作簿：出错行标红，错误与警告写在行尾，
// 供供应商修正后以 (ErrorColor) 前缀重传。
func (s *PriceSheetService) ErrorWorkbook(report *SheetReport) (*excelize.File, error) {
	f, err := s.Template()
	if err != nil {
		return nil, err
	}
	sheet := f.GetSheetName(0)

	errStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#FFC7CE"}},
		Font: &excelize.Font{Color: "9C0006"},
	})
	if err != nil {
		return nil, err
	}
	warnStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#FFEB9C"}},
		Font: &excelize.Font{Color: "9C6500"},
	})
	if err != nil {
		return nil, err
	}

	for i, h := range report.HeaderErrors {
		f.SetCellValue(sheet, fmt.Sprintf("F%d", i+1), h)
		f.SetCellStyle(sheet, fmt.Sprintf("F%d", i+1), fmt.Sprintf("F%d", i+1), errStyle)
	}

	for _, row := range report.Rows {
		n := row.Row + 1
		f.SetCellValue(sheet, fmt.Sprintf("A%d", n), row.Row)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", n), row.MaterialName)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", n), row.Unit)
		if row.MOQ > 0 {
			f.SetCellValue(sheet, fmt.Sprintf("D%d", n), row.MOQ)
		}
		if row.Price > 0 {
			f.SetCellValue(sheet, fmt.Sprintf("E%d", n), row.Price)
		}
		if len(row.Errors) > 0 {
			f.SetCellValue(sheet, fmt.Sprintf("F%d", n), numberedMessages(row.Errors))
			f.SetCellStyle(sheet, fmt.Sprintf("A%d", n), fmt.Sprintf("F%d", n), errStyle)
		} else if len(row.Warnings) > 0 {
			f.SetCellValue(sheet, fmt.Sprintf("F%d", n), numberedMessages(row.Warnings))
			f.SetCellStyle(sheet, fmt.Sprintf("A%d", n), fmt.Sprintf("F%d", n), warnStyle)
		}
	}
	f.SetColWidth(sheet, "F", "F", 60)
	return f, nil
}

// numberedMessages 逐条编号拼接消息
func numberedMessages(msgs []string) string {
	var b strings.Builder
	for i, m := range msgs {
		fmt.Fprintf(&b, "%d. %s\n", i+1, m)
	}
	return strings.TrimRight(b.String(), "\n")
}

// Delete 删除一张供应商报价单。已被库存流水引用的不允许删除。
func (s *PriceSheetService) Delete(ctx context.Context, quotationID string) error {
	_, err := s.repos.Supplier.FindQuotationByID(ctx, quotationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.Newf(apperr.NotFound, "Supplier price quotation %s does not exist.", quotationID)
		}
		return apperr.Wrap(apperr.Internal, err, "failed to load price sheet")
	}

	refs, err := s.repos.Supplier.CountInventoryRefs(ctx, quotationID)
	if err != nil {
		return apperr.Wrap(apperr.Internal, err, "failed to check price sheet references")
	}
	if refs > 0 {
		return apperr.New(apperr.StateConflict,
			"The price sheet has been referenced by inventory history and cannot be deleted.")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("supplier_price_quotation_id = ?", quotationID).
			Delete(&entity.SupplierPriceDetail{}).Error
		if err != nil {
			return err
		}
		return tx.Delete(&entity.SupplierPriceQuotation{}, "id = ?", quotationID).Error
	})
	if err != nil {
		s.logger.Error("delete price sheet failed", zap.String("quotation_id", quotationID), zap.Error(err))
		return apperr.Wrap(apperr.Internal, err, "failed to delete price sheet")
	}
	return nil
}

// ListByMonth 某月上传的供应商报价单
func (s *PriceSheetService) ListByMonth(ctx context.Context, year int, month time.Month) ([]entity.SupplierPriceQuotation, error) {
	quotations, err := s.repos.Supplier.ListQuotationsByMonth(ctx, year, month, s.clk.Now().Location())
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "failed to list price sheets")
	}
	return quotations, nil
}

// GetByID 取一张供应商报价单
func (s *PriceSheetService) GetByID(ctx context.Context, id string) (*entity.SupplierPriceQuotation, error) {
	q, err := s.repos.Supplier.FindQuotationByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Newf(apperr.NotFound, "Supplier price quotation %s does not exist.", id)
		}
		return nil, apperr.Wrap(apperr.Internal, err, "failed to load price sheet")
	}
	return q, nil
}
