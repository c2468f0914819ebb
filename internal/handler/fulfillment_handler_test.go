package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/bitfantasy/banyan/internal/clock"
	"github.com/bitfantasy/banyan/internal/entity"
	"github.com/bitfantasy/banyan/internal/repository"
	"github.com/bitfantasy/banyan/internal/service"
	"github.com/bitfantasy/banyan/internal/testutil"
)

func setupFulfillmentTest(t *testing.T) (*gorm.DB, *gin.Engine) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	router := testutil.SetupRouter()

	repos := repository.NewRepositories(db)
	svc := service.NewFulfillmentService(db, repos, clock.Default(), zap.NewNop())
	h := NewFulfillmentHandler(svc)

	api := testutil.AuthGroup(router, "/api/v1")
	api.POST("/fulfillments", h.Create)
	api.GET("/fulfillments", h.List)
	api.GET("/fulfillments/:id", h.Get)
	api.PUT("/fulfillments/:id", h.Update)
	api.DELETE("/fulfillments/:id", h.Delete)
	api.GET("/fulfillments/remaining/:detailId", h.Remaining)

	return db, router
}

func seedGatedDetail(t *testing.T, db *gorm.DB, stock, committed int) *entity.QuotationDetail {
	t.Helper()
	m := testutil.SeedMaterial(t, db, "Brick", entity.UnitBar, entity.MaterialTypeRaw, stock)
	testutil.SeedExportPrice(t, db, m.ID, 2.5, time.Now().Add(-time.Hour))
	project := testutil.SeedProject(t, db, "Handler House", entity.ProjectStatusUnderConstruction)
	testutil.SeedActiveContract(t, db, project.ID)
	_, detail := testutil.SeedQuotation(t, db, project.ID, m.ID, entity.QuotationStatusApproved, committed)
	return detail
}

func TestFulfillmentCreateAndRemaining(t *testing.T) {
	db, router := setupFulfillmentTest(t)
	token := testutil.DefaultTestToken()
	detail := seedGatedDetail(t, db, 500, 100)

	w := testutil.DoRequest(router, "POST", "/api/v1/fulfillments", map[string]interface{}{
		"items": []map[string]interface{}{
			{"quotation_detail_id": detail.ID, "quantity": 60},
		},
	}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = testutil.DoRequest(router, "GET", "/api/v1/fulfillments/remaining/"+detail.ID, nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})
	if data["remaining"].(float64) != 40 {
		t.Errorf("remaining = %v, want 40", data["remaining"])
	}
}

func TestFulfillmentOverRemainingConflict(t *testing.T) {
	db, router := setupFulfillmentTest(t)
	token := testutil.DefaultTestToken()
	detail := seedGatedDetail(t, db, 500, 100)

	w := testutil.DoRequest(router, "POST", "/api/v1/fulfillments", map[string]interface{}{
		"items": []map[string]interface{}{
			{"quotation_detail_id": detail.ID, "quantity": 150},
		},
	}, token)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	if resp["code"].(float64) != 10001 {
		t.Errorf("code = %v, want 10001", resp["code"])
	}
}

func TestFulfillmentListEmptyMessage(t *testing.T) {
	_, router := setupFulfillmentTest(t)
	token := testutil.DefaultTestToken()

	w := testutil.DoRequest(router, "GET", "/api/v1/fulfillments", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	if resp["message"] != "No fulfillment records found." {
		t.Errorf("message = %v", resp["message"])
	}
}

func TestFulfillmentRequiresAuth(t *testing.T) {
	_, router := setupFulfillmentTest(t)

	w := testutil.DoRequest(router, "GET", "/api/v1/fulfillments", nil, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401, got %d: %s", w.Code, w.Body.String())
	}
}
