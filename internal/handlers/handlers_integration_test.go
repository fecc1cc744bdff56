package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"inventaris/internal/handlers"
	"inventaris/internal/middleware"
	"inventaris/internal/models"
	"inventaris/internal/repositories"
	"inventaris/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupApp sets up a Fiber app for testing with in-memory SQLite and all
// handlers/services wired. Notifications run against an in-memory queue so
// tests can assert on what the lifecycle enqueued.
func setupApp() (*fiber.App, *memoryQueue, error) {
	// Configure Viper for testing
	viper.SetDefault("JWT_SECRET", "test_jwt_secret")
	viper.AutomaticEnv()
	jwtSecret := viper.GetString("JWT_SECRET")

	// Initialize in-memory SQLite database
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to in-memory database: %w", err)
	}

	// Auto-migrate models
	err = db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Item{},
		&models.Borrowing{},
		&models.CodeCounter{},
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to auto-migrate database: %w", err)
	}

	// Initialize Repositories
	itemRepo := repositories.NewGORMItemRepository(db)
	borrowRepo := repositories.NewGORMBorrowingRepository(db)
	categoryRepo := repositories.NewGORMCategoryRepository(db)
	userRepo := repositories.NewGORMUserRepository(db)

	// Initialize Services
	queue := &memoryQueue{}
	ledgerService := services.NewLedgerService(itemRepo)
	borrowingService := services.NewBorrowingService(borrowRepo, itemRepo, ledgerService, queue)
	itemService := services.NewItemService(itemRepo, borrowRepo, categoryRepo)
	categoryService := services.NewCategoryService(categoryRepo)
	authService := services.NewAuthService(userRepo, jwtSecret)

	// Initialize Handlers
	itemHandler := handlers.NewItemHandler(itemService)
	categoryHandler := handlers.NewCategoryHandler(categoryService)
	borrowingHandler := handlers.NewBorrowingHandler(borrowingService)
	authHandler := handlers.NewAuthHandler(authService)

	app := fiber.New()

	// API Routes
	apiV1 := app.Group("/api/v1")

	// Authentication routes (public)
	authHandler.RegisterRoutes(apiV1)

	// Protected routes (require JWT authentication)
	protectedRoutes := apiV1.Group("", middleware.AuthRequired(authService))
	itemHandler.RegisterRoutes(protectedRoutes)
	categoryHandler.RegisterRoutes(protectedRoutes)
	borrowingHandler.RegisterRoutes(protectedRoutes)

	return app, queue, nil
}

// memoryQueue records enqueued notification events.
type memoryQueue struct {
	events []models.NotificationEvent
}

func (q *memoryQueue) Enqueue(event models.NotificationEvent) error {
	q.events = append(q.events, event)
	return nil
}

// TestMain runs setup and teardown for all tests
func TestMain(m *testing.M) {
	// Suppress logging during tests for cleaner output
	log.SetOutput(io.Discard)
	code := m.Run()
	os.Exit(code)
}

// registerAndLogin creates an account with the given role and returns its
// bearer token.
func registerAndLogin(t *testing.T, app *fiber.App, username string, role models.Role) string {
	t.Helper()

	user := map[string]string{
		"username": username,
		"name":     "Test " + username,
		"email":    username + "@example.com",
		"password": "password123",
		"role":     string(role),
	}
	jsonBody, _ := json.Marshal(user)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewReader(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1) // -1 for no timeout
	assert.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	login := map[string]string{"username": username, "password": "password123"}
	jsonBody, _ = json.Marshal(login)
	req = httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var loginResp map[string]string
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&loginResp))
	resp.Body.Close()
	assert.NotEmpty(t, loginResp["token"])
	return loginResp["token"]
}

// doJSON issues an authenticated JSON request and decodes the response body
// into out when it is non-nil.
func doJSON(t *testing.T, app *fiber.App, method, path, token string, body interface{}, out interface{}) *http.Response {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		reader = bytes.NewReader(jsonBody)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	if out != nil {
		assert.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	resp.Body.Close()
	return resp
}

func TestBorrowingLifecycleOverHTTP(t *testing.T) {
	app, queue, err := setupApp()
	assert.NoError(t, err)

	adminToken := registerAndLogin(t, app, "lifecycleadmin", models.RoleAdmin)
	userToken := registerAndLogin(t, app, "lifecycleuser", models.RoleUser)

	// Admin creates a category and an item
	var category models.Category
	resp := doJSON(t, app, http.MethodPost, "/api/v1/categories", adminToken,
		map[string]string{"name": "Electronics", "description": "AV equipment"}, &category)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var item models.Item
	resp = doJSON(t, app, http.MethodPost, "/api/v1/items", adminToken, map[string]interface{}{
		"name":        "Projector",
		"category_id": category.ID,
		"stock":       10,
		"condition":   "good",
	}, &item)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, 10, item.AvailableStock)
	assert.Contains(t, item.Code, "ITM-")

	// User files a borrowing request
	borrowDate := time.Now()
	dueDate := borrowDate.AddDate(0, 0, 7)
	var borrowing models.Borrowing
	resp = doJSON(t, app, http.MethodPost, "/api/v1/borrowings", userToken, map[string]interface{}{
		"item_id":     item.ID,
		"quantity":    3,
		"borrow_date": borrowDate.Format(time.RFC3339),
		"due_date":    dueDate.Format(time.RFC3339),
		"notes":       "team offsite",
	}, &borrowing)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, models.StatusPending, borrowing.Status)
	assert.Contains(t, borrowing.Code, "BRW-")

	// Pending requests reserve nothing
	var fetched models.Item
	resp = doJSON(t, app, http.MethodGet, "/api/v1/items/"+item.ID, userToken, nil, &fetched)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 10, fetched.AvailableStock)

	// A regular user may not approve
	resp = doJSON(t, app, http.MethodPost, "/api/v1/borrowings/"+borrowing.ID+"/approve", userToken, nil, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Admin approval reserves stock and enqueues a notification
	var approved models.Borrowing
	resp = doJSON(t, app, http.MethodPost, "/api/v1/borrowings/"+borrowing.ID+"/approve", adminToken, nil, &approved)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, models.StatusActive, approved.Status)
	assert.NotNil(t, approved.ApprovedBy)

	resp = doJSON(t, app, http.MethodGet, "/api/v1/items/"+item.ID, userToken, nil, &fetched)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 7, fetched.AvailableStock)
	assert.Len(t, queue.events, 1)
	assert.Equal(t, models.NotificationApproved, queue.events[0].Kind)

	// Approving twice conflicts
	resp = doJSON(t, app, http.MethodPost, "/api/v1/borrowings/"+borrowing.ID+"/approve", adminToken, nil, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// A second request for more than the remaining stock fails at approval
	var second models.Borrowing
	resp = doJSON(t, app, http.MethodPost, "/api/v1/borrowings", userToken, map[string]interface{}{
		"item_id":     item.ID,
		"quantity":    8,
		"borrow_date": borrowDate.Format(time.RFC3339),
		"due_date":    dueDate.Format(time.RFC3339),
	}, &second)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPost, "/api/v1/borrowings/"+second.ID+"/approve", adminToken, nil, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	// Extend the first borrowing
	var extended models.Borrowing
	resp = doJSON(t, app, http.MethodPatch, "/api/v1/borrowings/"+borrowing.ID+"/extend", userToken,
		map[string]string{"due_date": dueDate.AddDate(0, 0, 7).Format(time.RFC3339)}, &extended)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Return it; stock comes back
	var returned models.Borrowing
	resp = doJSON(t, app, http.MethodPost, "/api/v1/borrowings/"+borrowing.ID+"/return", userToken, nil, &returned)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, models.StatusReturned, returned.Status)
	assert.NotNil(t, returned.ReturnDate)

	resp = doJSON(t, app, http.MethodGet, "/api/v1/items/"+item.ID, userToken, nil, &fetched)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 10, fetched.AvailableStock)

	// Cancel the still-pending second request
	resp = doJSON(t, app, http.MethodDelete, "/api/v1/borrowings/"+second.ID, userToken, nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestBorrowingValidation(t *testing.T) {
	app, _, err := setupApp()
	assert.NoError(t, err)

	adminToken := registerAndLogin(t, app, "validationadmin", models.RoleAdmin)
	userToken := registerAndLogin(t, app, "validationuser", models.RoleUser)

	var category models.Category
	resp := doJSON(t, app, http.MethodPost, "/api/v1/categories", adminToken,
		map[string]string{"name": "Tools"}, &category)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var item models.Item
	resp = doJSON(t, app, http.MethodPost, "/api/v1/items", adminToken, map[string]interface{}{
		"name":        "Ladder",
		"category_id": category.ID,
		"stock":       2,
	}, &item)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	now := time.Now()

	// Due date before borrow date
	resp = doJSON(t, app, http.MethodPost, "/api/v1/borrowings", userToken, map[string]interface{}{
		"item_id":     item.ID,
		"quantity":    1,
		"borrow_date": now.Format(time.RFC3339),
		"due_date":    now.AddDate(0, 0, -1).Format(time.RFC3339),
	}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Zero quantity fails validation
	resp = doJSON(t, app, http.MethodPost, "/api/v1/borrowings", userToken, map[string]interface{}{
		"item_id":     item.ID,
		"quantity":    0,
		"borrow_date": now.Format(time.RFC3339),
		"due_date":    now.AddDate(0, 0, 7).Format(time.RFC3339),
	}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Unknown item
	resp = doJSON(t, app, http.MethodPost, "/api/v1/borrowings", userToken, map[string]interface{}{
		"item_id":     "3f5d1f44-90cf-4a63-9c5a-000000000000",
		"quantity":    1,
		"borrow_date": now.Format(time.RFC3339),
		"due_date":    now.AddDate(0, 0, 7).Format(time.RFC3339),
	}, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStockAdjustmentOverHTTP(t *testing.T) {
	app, _, err := setupApp()
	assert.NoError(t, err)

	adminToken := registerAndLogin(t, app, "stockadmin", models.RoleAdmin)
	userToken := registerAndLogin(t, app, "stockuser", models.RoleUser)

	var category models.Category
	resp := doJSON(t, app, http.MethodPost, "/api/v1/categories", adminToken,
		map[string]string{"name": "Cameras"}, &category)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var item models.Item
	resp = doJSON(t, app, http.MethodPost, "/api/v1/items", adminToken, map[string]interface{}{
		"name":        "DSLR",
		"category_id": category.ID,
		"stock":       5,
	}, &item)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	// Borrow and approve 4 units so only 1 remains free
	now := time.Now()
	var borrowing models.Borrowing
	resp = doJSON(t, app, http.MethodPost, "/api/v1/borrowings", userToken, map[string]interface{}{
		"item_id":     item.ID,
		"quantity":    4,
		"borrow_date": now.Format(time.RFC3339),
		"due_date":    now.AddDate(0, 0, 7).Format(time.RFC3339),
	}, &borrowing)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp = doJSON(t, app, http.MethodPost, "/api/v1/borrowings/"+borrowing.ID+"/approve", adminToken, nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Shrinking total stock below the 4 on loan is refused
	resp = doJSON(t, app, http.MethodPatch, "/api/v1/items/"+item.ID+"/stock", adminToken,
		map[string]int{"stock": 3}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	// Growing it shifts availability by the same delta
	resp = doJSON(t, app, http.MethodPatch, "/api/v1/items/"+item.ID+"/stock", adminToken,
		map[string]int{"stock": 8}, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var fetched models.Item
	resp = doJSON(t, app, http.MethodGet, "/api/v1/items/"+item.ID, userToken, nil, &fetched)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 8, fetched.Stock)
	assert.Equal(t, 4, fetched.AvailableStock)

	// Items with open borrowings cannot be deleted
	resp = doJSON(t, app, http.MethodDelete, "/api/v1/items/"+item.ID, adminToken, nil, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestEndpointsWithoutAuth(t *testing.T) {
	app, _, err := setupApp()
	assert.NoError(t, err)

	// Test GET /items without token
	req := httptest.NewRequest(http.MethodGet, "/api/v1/items", nil)
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	// Test POST /borrowings without token
	jsonBody, _ := json.Marshal(map[string]interface{}{"item_id": "x", "quantity": 1})
	req = httptest.NewRequest(http.MethodPost, "/api/v1/borrowings", bytes.NewReader(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}
