package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/bitfantasy/banyan/internal/apperr"
	"github.com/bitfantasy/banyan/internal/clock"
	"github.com/bitfantasy/banyan/internal/entity"
	"github.com/bitfantasy/banyan/internal/repository"
	"github.com/bitfantasy/banyan/internal/testutil"
)

func newFulfillmentService(db *gorm.DB) *FulfillmentService {
	repos := repository.NewRepositories(db)
	return NewFulfillmentService(db, repos, clock.Default(), zap.NewNop())
}

// seedFulfillmentFixture prepares a material with stock and a fully gated
// quotation detail: approved quotation, project under construction, active
// contract, deposit paid.
func seedFulfillmentFixture(t *testing.T, db *gorm.DB, stock, committed int) (*entity.Material, *entity.QuotationDetail) {
	t.Helper()
	m := testutil.SeedMaterial(t, db, "Brick", entity.UnitBar, entity.MaterialTypeRaw, stock)
	testutil.SeedExportPrice(t, db, m.ID, 2.5, time.Now().Add(-24*time.Hour))
	project := testutil.SeedProject(t, db, "Test House", entity.ProjectStatusUnderConstruction)
	testutil.SeedActiveContract(t, db, project.ID)
	_, detail := testutil.SeedQuotation(t, db, project.ID, m.ID, entity.QuotationStatusApproved, committed)
	return m, detail
}

func materialStock(t *testing.T, db *gorm.DB, id string) int {
	t.Helper()
	var m entity.Material
	if err := db.First(&m, "id = ?", id).Error; err != nil {
		t.Fatalf("reload material: %v", err)
	}
	return m.Quantity
}

func TestCreateFulfillmentDecrementsStock(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newFulfillmentService(db)
	m, detail := seedFulfillmentFixture(t, db, 500, 1000)

	entries, err := svc.Create(context.Background(), []FulfillmentRequest{
		{QuotationDetailID: detail.ID, Quantity: 200},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if entries[0].Total != 200*2.5 {
		t.Errorf("Total = %v, want 500", entries[0].Total)
	}

	if stock := materialStock(t, db, m.ID); stock != 300 {
		t.Errorf("stock = %d, want 300", stock)
	}

	var histories []entity.InventoryHistory
	db.Where("progress_construction_material_id = ?", entries[0].ID).Find(&histories)
	if len(histories) != 1 {
		t.Fatalf("got %d history rows, want 1", len(histories))
	}
	if histories[0].Quantity != 200 {
		t.Errorf("history quantity = %d, want 200", histories[0].Quantity)
	}
}

func TestCreateFulfillmentRejectsOverRemaining(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newFulfillmentService(db)
	m, detail := seedFulfillmentFixture(t, db, 500, 100)
	ctx := context.Background()

	if _, err := svc.Create(ctx, []FulfillmentRequest{{QuotationDetailID: detail.ID, Quantity: 90}}); err != nil {
		t.Fatalf("seed fulfillment: %v", err)
	}

	_, err := svc.Create(ctx, []FulfillmentRequest{{QuotationDetailID: detail.ID, Quantity: 15}})
	if err == nil {
		t.Fatal("expected over-remaining request to be rejected")
	}
	if apperr.KindOf(err) != apperr.ValidationFailed {
		t.Errorf("kind = %v, want ValidationFailed", apperr.KindOf(err))
	}
	msgs := apperr.Messages(err)
	if len(msgs) != 1 || !strings.Contains(msgs[0], "higher than the remaining quantity 10") {
		t.Errorf("messages = %v", msgs)
	}

	// 被拒请求不得留下任何痕迹
	remaining, err := svc.Remaining(ctx, detail.ID)
	if err != nil {
		t.Fatalf("Remaining: %v", err)
	}
	if remaining != 10 {
		t.Errorf("remaining = %d, want 10", remaining)
	}
	if stock := materialStock(t, db, m.ID); stock != 410 {
		t.Errorf("stock = %d, want 410", stock)
	}
}

func TestCreateFulfillmentCountsStagedItemsInBatch(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newFulfillmentService(db)
	m, detail := seedFulfillmentFixture(t, db, 500, 10)
	ctx := context.Background()

	// 同一行项在一批里出现两次，余量要把批内前面的行计入
	_, err := svc.Create(ctx, []FulfillmentRequest{
		{QuotationDetailID: detail.ID, Quantity: 10},
		{QuotationDetailID: detail.ID, Quantity: 10},
	})
	if err == nil {
		t.Fatal("expected duplicate-detail batch to be rejected")
	}
	if apperr.KindOf(err) != apperr.ValidationFailed {
		t.Errorf("kind = %v, want ValidationFailed", apperr.KindOf(err))
	}
	msgs := apperr.Messages(err)
	if len(msgs) != 1 || !strings.Contains(msgs[0], "higher than the remaining quantity 0") {
		t.Errorf("messages = %v", msgs)
	}

	var count int64
	db.Model(&entity.ProgressConstructionMaterial{}).Count(&count)
	if count != 0 {
		t.Errorf("found %d entries after rejection", count)
	}
	if stock := materialStock(t, db, m.ID); stock != 500 {
		t.Errorf("stock = %d, want untouched 500", stock)
	}

	// 批内合计不超承诺量则放行
	entries, err := svc.Create(ctx, []FulfillmentRequest{
		{QuotationDetailID: detail.ID, Quantity: 4},
		{QuotationDetailID: detail.ID, Quantity: 6},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	remaining, err := svc.Remaining(ctx, detail.ID)
	if err != nil {
		t.Fatalf("Remaining: %v", err)
	}
	if remaining != 0 {
		t.Errorf("remaining = %d, want 0", remaining)
	}
	if stock := materialStock(t, db, m.ID); stock != 490 {
		t.Errorf("stock = %d, want 490", stock)
	}
}

func TestCreateFulfillmentGating(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newFulfillmentService(db)
	ctx := context.Background()

	m := testutil.SeedMaterial(t, db, "Sand", entity.UnitM3, entity.MaterialTypeRaw, 100)
	testutil.SeedExportPrice(t, db, m.ID, 10, time.Now().Add(-time.Hour))

	// 报价单未通过
	project := testutil.SeedProject(t, db, "Pending Quote House", entity.ProjectStatusUnderConstruction)
	testutil.SeedActiveContract(t, db, project.ID)
	_, detail := testutil.SeedQuotation(t, db, project.ID, m.ID, entity.QuotationStatusPending, 50)
	_, err := svc.Create(ctx, []FulfillmentRequest{{QuotationDetailID: detail.ID, Quantity: 10}})
	if apperr.KindOf(err) != apperr.StateConflict {
		t.Errorf("unapproved quotation: kind = %v, want StateConflict", apperr.KindOf(err))
	}

	// 项目不在施工中
	project2 := testutil.SeedProject(t, db, "Processing House", entity.ProjectStatusProcessing)
	testutil.SeedActiveContract(t, db, project2.ID)
	_, detail2 := testutil.SeedQuotation(t, db, project2.ID, m.ID, entity.QuotationStatusApproved, 50)
	_, err = svc.Create(ctx, []FulfillmentRequest{{QuotationDetailID: detail2.ID, Quantity: 10}})
	if apperr.KindOf(err) != apperr.StateConflict {
		t.Errorf("project not under construction: kind = %v, want StateConflict", apperr.KindOf(err))
	}

	// 无合同
	project3 := testutil.SeedProject(t, db, "No Contract House", entity.ProjectStatusUnderConstruction)
	_, detail3 := testutil.SeedQuotation(t, db, project3.ID, m.ID, entity.QuotationStatusApproved, 50)
	_, err = svc.Create(ctx, []FulfillmentRequest{{QuotationDetailID: detail3.ID, Quantity: 10}})
	if apperr.KindOf(err) != apperr.StateConflict {
		t.Errorf("missing contract: kind = %v, want StateConflict", apperr.KindOf(err))
	}

	if stock := materialStock(t, db, m.ID); stock != 100 {
		t.Errorf("stock = %d, want untouched 100", stock)
	}
}

func TestCreateFulfillmentInsufficientStock(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newFulfillmentService(db)
	m, detail := seedFulfillmentFixture(t, db, 50, 1000)

	_, err := svc.Create(context.Background(), []FulfillmentRequest{
		{QuotationDetailID: detail.ID, Quantity: 80},
	})
	if err == nil {
		t.Fatal("expected stock check to reject the batch")
	}
	if apperr.KindOf(err) != apperr.IntegrityViolation {
		t.Errorf("kind = %v, want IntegrityViolation", apperr.KindOf(err))
	}

	// 整批回滚：没有台账、没有流水、库存不变
	var count int64
	db.Model(&entity.ProgressConstructionMaterial{}).Count(&count)
	if count != 0 {
		t.Errorf("found %d fulfillment entries after rollback", count)
	}
	db.Model(&entity.InventoryHistory{}).Count(&count)
	if count != 0 {
		t.Errorf("found %d history rows after rollback", count)
	}
	if stock := materialStock(t, db, m.ID); stock != 50 {
		t.Errorf("stock = %d, want 50", stock)
	}
}

func TestDeleteFulfillmentRestoresStock(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newFulfillmentService(db)
	m, detail := seedFulfillmentFixture(t, db, 500, 1000)
	ctx := context.Background()

	entries, err := svc.Create(ctx, []FulfillmentRequest{{QuotationDetailID: detail.ID, Quantity: 120}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if stock := materialStock(t, db, m.ID); stock != 380 {
		t.Fatalf("stock after create = %d, want 380", stock)
	}

	if err := svc.Delete(ctx, entries[0].ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	// 创建后删除必须完整复原
	if stock := materialStock(t, db, m.ID); stock != 500 {
		t.Errorf("stock after delete = %d, want 500", stock)
	}
	var count int64
	db.Model(&entity.InventoryHistory{}).Where("progress_construction_material_id = ?", entries[0].ID).Count(&count)
	if count != 0 {
		t.Errorf("history rows left behind: %d", count)
	}
	remaining, _ := svc.Remaining(ctx, detail.ID)
	if remaining != 1000 {
		t.Errorf("remaining = %d, want 1000", remaining)
	}
}

func TestUpdateFulfillmentRevalidates(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newFulfillmentService(db)
	m, detail := seedFulfillmentFixture(t, db, 500, 100)
	ctx := context.Background()

	entries, err := svc.Create(ctx, []FulfillmentRequest{{QuotationDetailID: detail.ID, Quantity: 60}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// 改大越过承诺量要被拒
	if _, err := svc.Update(ctx, entries[0].ID, 120); apperr.KindOf(err) != apperr.ValidationFailed {
		t.Errorf("over-remaining update: kind = %v, want ValidationFailed", apperr.KindOf(err))
	}

	// 合法改量同步库存与流水
	updated, err := svc.Update(ctx, entries[0].ID, 90)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Quantity != 90 {
		t.Errorf("quantity = %d, want 90", updated.Quantity)
	}
	if updated.Total != 90*2.5 {
		t.Errorf("total = %v, want 225", updated.Total)
	}
	if stock := materialStock(t, db, m.ID); stock != 410 {
		t.Errorf("stock = %d, want 410", stock)
	}
	var history entity.InventoryHistory
	db.First(&history, "progress_construction_material_id = ?", entries[0].ID)
	if history.Quantity != 90 {
		t.Errorf("history quantity = %d, want 90", history.Quantity)
	}
}

func TestConcurrentFulfillmentNeverOvershoots(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newFulfillmentService(db)
	_, detail := seedFulfillmentFixture(t, db, 10000, 100)
	ctx := context.Background()

	// 10 个并发请求各要 30，承诺量 100 最多放行 3 个
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			svc.Create(ctx, []FulfillmentRequest{{QuotationDetailID: detail.ID, Quantity: 30}})
		}()
	}
	wg.Wait()

	fulfilled, err := svc.repos.Fulfillment.SumQuantityByDetail(ctx, detail.ID, "")
	if err != nil {
		t.Fatalf("sum: %v", err)
	}
	if fulfilled > 100 {
		t.Errorf("fulfilled %d exceeds committed 100", fulfilled)
	}
}
