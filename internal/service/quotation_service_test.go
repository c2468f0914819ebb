package service

import (
	"context"
	"strings"
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

func newQuotationService(db *gorm.DB) *QuotationService {
	repos := repository.NewRepositories(db)
	return NewQuotationService(db, repos, clock.Default(), zap.NewNop())
}

func seedBaselineMaterials(t *testing.T, db *gorm.DB) {
	t.Helper()
	yesterday := time.Now().Add(-24 * time.Hour)
	for _, name := range []string{BaselineMaterialBrick, BaselineMaterialSand, BaselineMaterialStone, BaselineMaterialCement} {
		m := testutil.SeedMaterial(t, db, name, entity.UnitKG, entity.MaterialTypeRaw, 0)
		testutil.SeedExportPrice(t, db, m.ID, 10, yesterday)
	}
}

func TestConfigureProject(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newQuotationService(db)
	ctx := context.Background()

	testutil.SeedConstructionConfig(t, db)
	seedBaselineMaterials(t, db)
	project := testutil.SeedProject(t, db, "New House", entity.ProjectStatusPending)
	mason := testutil.SeedWorkerPrice(t, db, "Mason", 200)

	quotation, err := svc.ConfigureProject(ctx, ConfigureProjectRequest{
		ProjectID:  project.ID,
		WallLength: 10,
		WallHeight: 3,
		TiledArea:  300,
		LaborLines: []LaborLine{
			{WorkerPriceID: mason.ID, Quantity: 4, ExportLaborCost: 250},
		},
	})
	if err != nil {
		t.Fatalf("ConfigureProject: %v", err)
	}

	if quotation.Status != entity.QuotationStatusPending {
		t.Errorf("status = %s, want pending", quotation.Status)
	}
	if len(quotation.Details) != 4 {
		t.Errorf("got %d details, want 4 baseline materials", len(quotation.Details))
	}
	if quotation.TotalLaborPrice != 1000 {
		t.Errorf("TotalLaborPrice = %v, want 1000", quotation.TotalLaborPrice)
	}

	var reloaded entity.Project
	db.First(&reloaded, "id = ?", project.ID)
	if reloaded.Status != entity.ProjectStatusProcessing {
		t.Errorf("project status = %s, want processing", reloaded.Status)
	}
	if reloaded.SandMixingRatio != 4 || reloaded.CementMixingRatio != 1 || reloaded.StoneMixingRatio != 2 {
		t.Errorf("mixing ratios not snapshotted: %+v", reloaded)
	}

	workers, err := svc.Workers(ctx, quotation.ID)
	if err != nil {
		t.Fatalf("Workers: %v", err)
	}
	if len(workers) != 1 || workers[0].WorkerPriceID != mason.ID {
		t.Errorf("worker rows = %+v, want 1 row for mason", workers)
	}

	prices, err := svc.ListWorkerPrices(ctx)
	if err != nil {
		t.Fatalf("ListWorkerPrices: %v", err)
	}
	if len(prices) != 1 || prices[0].PositionName != "Mason" {
		t.Errorf("worker prices = %+v", prices)
	}
}

func TestConfigureProjectCollectsAllErrors(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newQuotationService(db)
	ctx := context.Background()

	testutil.SeedConstructionConfig(t, db)
	// 只种 Brick 且不给价，Sand/Stone/Cement 缺物料
	testutil.SeedMaterial(t, db, BaselineMaterialBrick, entity.UnitKG, entity.MaterialTypeRaw, 0)
	project := testutil.SeedProject(t, db, "Half Seeded House", entity.ProjectStatusPending)

	_, err := svc.ConfigureProject(ctx, ConfigureProjectRequest{
		ProjectID:  project.ID,
		WallLength: 10,
		WallHeight: 3,
		TiledArea:  300,
	})
	if err == nil {
		t.Fatal("expected accumulated errors")
	}
	msgs := apperr.Messages(err)
	if len(msgs) != 4 {
		t.Fatalf("got %d messages, want 4 (one per baseline material): %v", len(msgs), msgs)
	}
	joined := strings.Join(msgs, " | ")
	if !strings.Contains(joined, "Brick has no export price") {
		t.Errorf("missing price error absent: %v", msgs)
	}
	if !strings.Contains(joined, "Material Sand does not exist.") {
		t.Errorf("missing material error absent: %v", msgs)
	}

	// 校验失败不得有任何写入
	var reloaded entity.Project
	db.First(&reloaded, "id = ?", project.ID)
	if reloaded.Status != entity.ProjectStatusPending {
		t.Errorf("project status = %s, want pending", reloaded.Status)
	}
	var count int64
	db.Model(&entity.Quotation{}).Count(&count)
	if count != 0 {
		t.Errorf("found %d quotations after failed configure", count)
	}
}

func TestConfigureProjectRejectsLaborMarkdown(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newQuotationService(db)
	ctx := context.Background()

	testutil.SeedConstructionConfig(t, db)
	seedBaselineMaterials(t, db)
	project := testutil.SeedProject(t, db, "Markdown House", entity.ProjectStatusPending)
	mason := testutil.SeedWorkerPrice(t, db, "Mason", 200)

	_, err := svc.ConfigureProject(ctx, ConfigureProjectRequest{
		ProjectID:  project.ID,
		WallLength: 10,
		WallHeight: 3,
		TiledArea:  300,
		LaborLines: []LaborLine{
			{WorkerPriceID: mason.ID, Quantity: 2, ExportLaborCost: 150},
		},
	})
	if apperr.KindOf(err) != apperr.ValidationFailed {
		t.Fatalf("kind = %v, want ValidationFailed", apperr.KindOf(err))
	}
	msgs := apperr.Messages(err)
	if len(msgs) != 1 || !strings.Contains(msgs[0], "must not be lower than the base labor cost") {
		t.Errorf("messages = %v", msgs)
	}
}

func TestConfigureProjectNeedsMatchingConfig(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newQuotationService(db)
	ctx := context.Background()

	seedBaselineMaterials(t, db)
	project := testutil.SeedProject(t, db, "Unconfigured House", entity.ProjectStatusPending)

	_, err := svc.ConfigureProject(ctx, ConfigureProjectRequest{
		ProjectID:  project.ID,
		WallLength: 10,
		WallHeight: 3,
		TiledArea:  300,
	})
	if apperr.KindOf(err) != apperr.ValidationFailed {
		t.Errorf("kind = %v, want ValidationFailed", apperr.KindOf(err))
	}
	msgs := apperr.Messages(err)
	if len(msgs) != 1 || !strings.Contains(msgs[0], "No construction config matches") {
		t.Errorf("messages = %v", msgs)
	}
}

func TestDealQuotationLifecycle(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newQuotationService(db)
	ctx := context.Background()

	m := testutil.SeedMaterial(t, db, "Brick", entity.UnitBar, entity.MaterialTypeRaw, 0)
	project := testutil.SeedProject(t, db, "Deal House", entity.ProjectStatusProcessing)
	q, _ := testutil.SeedQuotation(t, db, project.ID, m.ID, entity.QuotationStatusPending, 100)

	// Pending -> Dealing
	dealt, err := svc.DealQuotation(ctx, q.ID, false)
	if err != nil {
		t.Fatalf("DealQuotation: %v", err)
	}
	if dealt.Status != entity.QuotationStatusDealing {
		t.Errorf("status = %s, want dealing", dealt.Status)
	}

	// 议价中可以设置折扣
	discounted, err := svc.ApplyDiscount(ctx, q.ID, 0.1, 0.05, 0)
	if err != nil {
		t.Fatalf("ApplyDiscount: %v", err)
	}
	if discounted.RawMaterialDiscount != 0.1 {
		t.Errorf("raw material discount = %v, want 0.1", discounted.RawMaterialDiscount)
	}

	// Dealing -> Approved
	approved, err := svc.DealQuotation(ctx, q.ID, true)
	if err != nil {
		t.Fatalf("DealQuotation approve: %v", err)
	}
	if approved.Status != entity.QuotationStatusApproved {
		t.Errorf("status = %s, want approved", approved.Status)
	}

	// 终态不再流转
	if _, err := svc.DealQuotation(ctx, q.ID, true); apperr.KindOf(err) != apperr.StateConflict {
		t.Errorf("kind = %v, want StateConflict", apperr.KindOf(err))
	}
	// 折扣只在议价中允许
	if _, err := svc.ApplyDiscount(ctx, q.ID, 0.2, 0, 0); apperr.KindOf(err) != apperr.StateConflict {
		t.Errorf("kind = %v, want StateConflict", apperr.KindOf(err))
	}
}
