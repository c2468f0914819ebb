package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/bitfantasy/banyan/internal/entity"
	"github.com/bitfantasy/banyan/internal/middleware"
)

const (
	TestSchema = "test_banyan"
	JWTSecret  = "banyan-jwt-secret-key-2024"
)

// projectRoot returns the project root directory by looking for go.mod
func projectRoot() string {
	_, filename, _, _ := runtime.Caller(0)
	dir := filepath.Dir(filename)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// loadEnv loads .env from the project root
func loadEnv() {
	root := projectRoot()
	if root != "" {
		godotenv.Load(filepath.Join(root, ".env"))
	}
}

// SetupTestDB creates a test database connection using a dedicated test schema.
// Each test gets an isolated schema that is dropped after the test. Tests are
// skipped when no postgres instance is reachable.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	loadEnv()

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "banyan")
	password := getEnv("DB_PASSWORD", "banyan123")
	dbname := getEnv("DB_NAME", "banyan")

	baseDSN := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	schemaName := fmt.Sprintf("%s_%d", TestSchema, time.Now().UnixNano()%1000000)

	setupDB, err := gorm.Open(postgres.Open(baseDSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Skipf("postgres unavailable, skipping: %v", err)
	}
	if sqlDB, err := setupDB.DB(); err != nil || sqlDB.Ping() != nil {
		t.Skipf("postgres unreachable, skipping")
	}
	setupDB.Exec(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schemaName))
	sqlSetup, _ := setupDB.DB()
	sqlSetup.Close()

	// search_path in DSN so all pooled connections use the test schema
	testDSN := fmt.Sprintf("%s search_path=%s", baseDSN, schemaName)
	db, err := gorm.Open(postgres.Open(testDSN), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := entity.AutoMigrate(db); err != nil {
		t.Fatalf("Failed to migrate test tables: %v", err)
	}

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		cleanDB, cleanErr := gorm.Open(postgres.Open(baseDSN), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if cleanErr == nil {
			cleanDB.Exec(fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", schemaName))
			sqlClean, _ := cleanDB.DB()
			if sqlClean != nil {
				sqlClean.Close()
			}
		}
	})

	return db
}

// SetupRouter creates a gin test router
func SetupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery())
	return r
}

// AuthGroup creates an API group with JWT auth middleware for testing
func AuthGroup(r *gin.Engine, path string) *gin.RouterGroup {
	return r.Group(path, middleware.JWTAuth(JWTSecret))
}

// GenerateTestToken creates a valid JWT token for testing
func GenerateTestToken(userID, name, email string, roles []string) string {
	if roles == nil {
		roles = []string{}
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   userID,
		"uid":   userID,
		"name":  name,
		"email": email,
		"roles": roles,
		"iss":   "banyan",
		"iat":   now.Unix(),
		"exp":   now.Add(24 * time.Hour).Unix(),
		"jti":   fmt.Sprintf("test-jti-%d", now.UnixNano()),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, _ := token.SignedString([]byte(JWTSecret))
	return tokenString
}

// DefaultTestToken returns a token for a default staff test user
func DefaultTestToken() string {
	return GenerateTestToken("test-user-001", "Test Staff", "staff@test.com", []string{"staff"})
}

// DoRequest executes an HTTP request against the test router
func DoRequest(r *gin.Engine, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ParseResponse parses the JSON response body into a map
func ParseResponse(w *httptest.ResponseRecorder) map[string]interface{} {
	var result map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &result)
	return result
}

// SeedMaterial creates a material with stock
func SeedMaterial(t *testing.T, db *gorm.DB, name string, unit, materialType, quantity int) *entity.Material {
	t.Helper()
	m := &entity.Material{
		ID:           uuid.New().String(),
		Name:         name,
		Unit:         unit,
		MaterialType: materialType,
		Quantity:     quantity,
	}
	if err := db.Create(m).Error; err != nil {
		t.Fatalf("Failed to seed material: %v", err)
	}
	return m
}

// SeedExportPrice appends a price record for a material
func SeedExportPrice(t *testing.T, db *gorm.DB, materialID string, price float64, date time.Time) *entity.ExportPrice {
	t.Helper()
	p := &entity.ExportPrice{
		ID:         uuid.New().String(),
		MaterialID: materialID,
		Price:      price,
		Date:       date,
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("Failed to seed export price: %v", err)
	}
	return p
}

// SeedProject creates a project in the given status
func SeedProject(t *testing.T, db *gorm.DB, name, status string) *entity.Project {
	t.Helper()
	p := &entity.Project{
		ID:               uuid.New().String(),
		Name:             name,
		ConstructionType: entity.ConstructionTypeRoughHouse,
		NumOfFloor:       2,
		Area:             150,
		Status:           status,
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("Failed to seed project: %v", err)
	}
	return p
}

// SeedActiveContract creates an active contract with a successful deposit payment
func SeedActiveContract(t *testing.T, db *gorm.DB, projectID string) *entity.Contract {
	t.Helper()
	contract := &entity.Contract{
		ID:        uuid.New().String(),
		ProjectID: projectID,
		Status:    entity.ContractStatusActive,
	}
	if err := db.Create(contract).Error; err != nil {
		t.Fatalf("Failed to seed contract: %v", err)
	}
	payment := &entity.Payment{
		ID:     uuid.New().String(),
		Amount: 1000,
		Status: entity.PaymentStatusSuccess,
	}
	if err := db.Create(payment).Error; err != nil {
		t.Fatalf("Failed to seed payment: %v", err)
	}
	deposit := &entity.ContractProgressPayment{
		ID:         uuid.New().String(),
		ContractID: contract.ID,
		Name:       entity.DepositPaymentName,
		PaymentID:  payment.ID,
	}
	if err := db.Create(deposit).Error; err != nil {
		t.Fatalf("Failed to seed deposit: %v", err)
	}
	return contract
}

// SeedQuotation creates a quotation in the given status with one detail line
func SeedQuotation(t *testing.T, db *gorm.DB, projectID, materialID, status string, committed int) (*entity.Quotation, *entity.QuotationDetail) {
	t.Helper()
	q := &entity.Quotation{
		ID:         uuid.New().String(),
		ProjectID:  projectID,
		Status:     status,
		CreateDate: time.Now(),
	}
	if err := db.Create(q).Error; err != nil {
		t.Fatalf("Failed to seed quotation: %v", err)
	}
	d := &entity.QuotationDetail{
		ID:          uuid.New().String(),
		QuotationID: q.ID,
		MaterialID:  materialID,
		Quantity:    committed,
	}
	if err := db.Create(d).Error; err != nil {
		t.Fatalf("Failed to seed quotation detail: %v", err)
	}
	return q, d
}

// SeedSupplier creates a supplier of the given type
func SeedSupplier(t *testing.T, db *gorm.DB, name, supplierType string) *entity.Supplier {
	t.Helper()
	s := &entity.Supplier{
		ID:   uuid.New().String(),
		Name: name,
		Type: supplierType,
	}
	if err := db.Create(s).Error; err != nil {
		t.Fatalf("Failed to seed supplier: %v", err)
	}
	return s
}

// SeedConstructionConfig creates a config row covering the SeedProject defaults
func SeedConstructionConfig(t *testing.T, db *gorm.DB) *entity.ConstructionConfig {
	t.Helper()
	c := &entity.ConstructionConfig{
		ID:                uuid.New().String(),
		ConstructionType:  entity.ConstructionTypeRoughHouse,
		NumOfFloor:        "1-3",
		Area:              "100-200",
		TiledArea:         "0-500",
		SandMixingRatio:   4,
		CementMixingRatio: 1,
		StoneMixingRatio:  2,
	}
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("Failed to seed construction config: %v", err)
	}
	return c
}

// SeedWorkerPrice creates a worker price row
func SeedWorkerPrice(t *testing.T, db *gorm.DB, position string, cost float64) *entity.WorkerPrice {
	t.Helper()
	w := &entity.WorkerPrice{
		ID:           uuid.New().String(),
		PositionName: position,
		LaborCost:    cost,
	}
	if err := db.Create(w).Error; err != nil {
		t.Fatalf("Failed to seed worker price: %v", err)
	}
	return w
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
