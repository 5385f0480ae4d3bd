package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"lods/internal/database"
	"lods/internal/handlers"
	"lods/internal/middleware"
	"lods/internal/models"
	"lods/internal/realtime"
	"lods/internal/repositories"
	"lods/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const (
	testJWTSecret       = "test_jwt_secret"
	testManagerEmail    = "manager@lods.local"
	testManagerPassword = "managerpass"
)

// setupApp wires the full HTTP surface over an in-memory SQLite database,
// mirroring the wiring in main.go with the broker and cache left out.
func setupApp(t *testing.T) *fiber.App {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, database.Migrate(db))

	userRepo := repositories.NewGORMUserRepository(db)
	orderRepo := repositories.NewGORMOrderRepository(db)
	hub := realtime.NewHub()

	// Seed the manager account the same way a fresh deployment would.
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(testManagerPassword), bcrypt.DefaultCost)
	assert.NoError(t, err)
	assert.NoError(t, userRepo.Create(&models.User{
		ID:       uuid.New().String(),
		Email:    testManagerEmail,
		Password: string(hashedPassword),
		Role:     models.RoleManager,
		FullName: "Test Manager",
	}))

	authService := services.NewAuthService(userRepo, testJWTSecret, 24*time.Hour, 30*time.Minute)
	locationService := services.NewLocationService(49)
	orderService := services.NewOrderService(orderRepo, userRepo, locationService, nil, hub)
	riderService := services.NewRiderService(userRepo)
	reportService := services.NewReportService(orderRepo, nil)

	authHandler := handlers.NewAuthHandler(authService)
	profileHandler := handlers.NewProfileHandler(authService)
	orderHandler := handlers.NewOrderHandler(orderService)
	riderHandler := handlers.NewRiderHandler(riderService)
	reportHandler := handlers.NewReportHandler(reportService)
	locationHandler := handlers.NewLocationHandler(locationService)

	app := fiber.New()
	apiV1 := app.Group("/api/v1")

	authHandler.RegisterRoutes(apiV1)
	locationHandler.RegisterRoutes(apiV1)

	authed := apiV1.Group("", middleware.AuthRequired(authService))
	profileHandler.RegisterRoutes(authed)

	customerOnly := middleware.RoleRequired(userRepo, models.RoleCustomer)
	riderOnly := middleware.RoleRequired(userRepo, models.RoleRider)
	managerOnly := middleware.RoleRequired(userRepo, models.RoleManager)

	orderHandler.RegisterCustomerRoutes(authed, customerOnly)
	orderHandler.RegisterRiderRoutes(authed, riderOnly)
	orderHandler.RegisterManagerRoutes(authed, managerOnly)
	riderHandler.RegisterRoutes(authed, managerOnly)
	reportHandler.RegisterRoutes(authed, managerOnly)

	orderHandler.RegisterCommonRoutes(authed)

	return app
}

// TestMain runs setup and teardown for all tests
func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	code := m.Run()
	os.Exit(code)
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		assert.NoError(t, err)
		reader = bytes.NewReader(jsonBody)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	assert.NoError(t, err)

	var decoded map[string]interface{}
	raw, err := io.ReadAll(resp.Body)
	assert.NoError(t, err)
	resp.Body.Close()
	if len(raw) > 0 && raw[0] == '{' {
		assert.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp, decoded
}

func login(t *testing.T, app *fiber.App, email, password string) string {
	t.Helper()
	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	token, _ := body["token"].(string)
	assert.NotEmpty(t, token)
	return token
}

func registerCustomer(t *testing.T, app *fiber.App, email string) string {
	t.Helper()
	resp, _ := doJSON(t, app, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"full_name":  "Ana Cruz",
		"address":    "Zone 2 Poblacion",
		"contact_no": "09170000001",
		"email":      email,
		"password":   "password123",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	return login(t, app, email, "password123")
}

func provisionRider(t *testing.T, app *fiber.App, managerToken, email, fullName string) string {
	t.Helper()
	resp, _ := doJSON(t, app, http.MethodPost, "/api/v1/riders/", managerToken, map[string]string{
		"full_name":  fullName,
		"contact_no": "09180000001",
		"vehicle":    "Motorcycle",
		"plate_no":   "ABC-123",
		"license_no": "N01-11-111111",
		"email":      email,
		"password":   "riderpass",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	return login(t, app, email, "riderpass")
}

func TestRegisterAndLogin(t *testing.T) {
	app := setupApp(t)

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"full_name":  "Ana Cruz",
		"address":    "Centro",
		"contact_no": "09170000001",
		"email":      "ana@example.com",
		"password":   "password123",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "User registered successfully", body["message"])

	// Duplicate email.
	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"full_name":  "Ana Cruz",
		"address":    "Centro",
		"contact_no": "09170000001",
		"email":      "ana@example.com",
		"password":   "password123",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Missing fields fail validation.
	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email": "incomplete@example.com",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	token := login(t, app, "ana@example.com", "password123")
	assert.NotEmpty(t, token)

	// Wrong password.
	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "ana@example.com",
		"password": "wrongpassword",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLocationSearchIsPublic(t *testing.T) {
	app := setupApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/locations?q=poblacion", nil)
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var matches []map[string]interface{}
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&matches))
	resp.Body.Close()
	assert.Len(t, matches, 5)
	assert.Equal(t, "Zone 1 Poblacion", matches[0]["name"])
}

func TestOrderLifecycleEndToEnd(t *testing.T) {
	app := setupApp(t)

	managerToken := login(t, app, testManagerEmail, testManagerPassword)
	customerToken := registerCustomer(t, app, "ana@example.com")
	riderToken := provisionRider(t, app, managerToken, "ben@example.com", "Ben Reyes")
	otherRiderToken := provisionRider(t, app, managerToken, "carl@example.com", "Carl Diaz")

	// Customer places an order; the fee comes from the rate table.
	resp, order := doJSON(t, app, http.MethodPost, "/api/v1/orders/", customerToken, map[string]interface{}{
		"service_type": "BuyMe",
		"items": []map[string]interface{}{
			{"name": "Rice 5kg", "qty": 2},
		},
		"delivery_location": "Centro",
		"instructions":      "Leave at the gate",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	orderID, _ := order["id"].(string)
	assert.NotEmpty(t, orderID)
	assert.Equal(t, "pending", order["status"])
	assert.Equal(t, 40.0, order["delivery_fee"])

	// The order shows up in the riders' available feed.
	resp, _ = doJSON(t, app, http.MethodGet, "/api/v1/orders/available", riderToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// First rider accepts; the second loses the race with a conflict.
	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/orders/"+orderID+"/accept", riderToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/orders/"+orderID+"/accept", otherRiderToken, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Only the assigned rider can move the order forward.
	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/orders/"+orderID+"/shopping", otherRiderToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, shopping := doJSON(t, app, http.MethodPost, "/api/v1/orders/"+orderID+"/shopping", riderToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "shopping", shopping["status"])

	// Prices confirmed: totals are computed once.
	resp, priced := doJSON(t, app, http.MethodPost, "/api/v1/orders/"+orderID+"/pricing", riderToken, map[string]interface{}{
		"unit_prices": []float64{50},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "delivery", priced["status"])
	assert.Equal(t, 100.0, priced["total_items_bill"])
	assert.Equal(t, 140.0, priced["final_total"])

	// Completion requires the payment confirmation.
	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/orders/"+orderID+"/delivered", riderToken, map[string]interface{}{
		"payment_collected": false,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, done := doJSON(t, app, http.MethodPost, "/api/v1/orders/"+orderID+"/delivered", riderToken, map[string]interface{}{
		"payment_collected": true,
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "completed", done["status"])

	// The rider earned the delivery fee only.
	resp, earnings := doJSON(t, app, http.MethodGet, "/api/v1/orders/earnings", riderToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 40.0, earnings["total_earnings"])

	// Manager reporting counts the delivery fee as the only revenue.
	resp, summary := doJSON(t, app, http.MethodGet, "/api/v1/reports/summary", managerToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1.0, summary["total_orders"])
	assert.Equal(t, 1.0, summary["completed_orders"])
	assert.Equal(t, 40.0, summary["total_revenue"])

	// The customer sees the completed order by ID; a stranger does not.
	resp, fetched := doJSON(t, app, http.MethodGet, "/api/v1/orders/"+orderID, customerToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "completed", fetched["status"])
	resp, _ = doJSON(t, app, http.MethodGet, "/api/v1/orders/"+orderID, otherRiderToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestRoleGates(t *testing.T) {
	app := setupApp(t)

	managerToken := login(t, app, testManagerEmail, testManagerPassword)
	customerToken := registerCustomer(t, app, "ana@example.com")
	riderToken := provisionRider(t, app, managerToken, "ben@example.com", "Ben Reyes")

	// No token at all.
	resp, _ := doJSON(t, app, http.MethodGet, "/api/v1/orders/mine", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// A customer cannot reach rider or manager surfaces.
	resp, _ = doJSON(t, app, http.MethodGet, "/api/v1/orders/available", customerToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp, _ = doJSON(t, app, http.MethodGet, "/api/v1/reports/summary", customerToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// A rider cannot place orders or manage riders.
	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/orders/", riderToken, map[string]interface{}{
		"items":             []map[string]interface{}{{"name": "Eggs", "qty": 1}},
		"delivery_location": "Centro",
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp, _ = doJSON(t, app, http.MethodGet, "/api/v1/riders/", riderToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// The manager lists riders and the master order list.
	resp, _ = doJSON(t, app, http.MethodGet, "/api/v1/riders/", managerToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = doJSON(t, app, http.MethodGet, "/api/v1/orders/", managerToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRiderProvisioning(t *testing.T) {
	app := setupApp(t)
	managerToken := login(t, app, testManagerEmail, testManagerPassword)

	// License number is required.
	resp, _ := doJSON(t, app, http.MethodPost, "/api/v1/riders/", managerToken, map[string]string{
		"full_name": "Ben Reyes",
		"email":     "ben@example.com",
		"password":  "riderpass",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	provisionRider(t, app, managerToken, "ben@example.com", "Ben Reyes")

	// Duplicate rider email.
	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/riders/", managerToken, map[string]string{
		"full_name":  "Ben Reyes",
		"license_no": "N01-11-111111",
		"email":      "ben@example.com",
		"password":   "riderpass",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/riders/", nil)
	req.Header.Set("Authorization", "Bearer "+managerToken)
	riderResp, err := app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, riderResp.StatusCode)

	var roster []models.User
	assert.NoError(t, json.NewDecoder(riderResp.Body).Decode(&roster))
	riderResp.Body.Close()
	assert.Len(t, roster, 1)
	assert.Equal(t, "Ben Reyes", roster[0].FullName)
	assert.Equal(t, models.RiderActive, roster[0].Status)
}

func TestProfileEndpoints(t *testing.T) {
	app := setupApp(t)
	customerToken := registerCustomer(t, app, "ana@example.com")

	resp, profile := doJSON(t, app, http.MethodGet, "/api/v1/profile/", customerToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ana@example.com", profile["email"])
	assert.Equal(t, "customer", profile["role"])

	// Update the editable fields.
	resp, updated := doJSON(t, app, http.MethodPut, "/api/v1/profile/", customerToken, map[string]string{
		"full_name":  "Ana C. Cruz",
		"address":    "Centro",
		"contact_no": "09175555555",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	user, _ := updated["user"].(map[string]interface{})
	assert.Equal(t, "Ana C. Cruz", user["full_name"])

	// Blank name is rejected.
	resp, _ = doJSON(t, app, http.MethodPut, "/api/v1/profile/", customerToken, map[string]string{
		"full_name": " ",
		"address":   "Centro",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Password change works on a fresh session, and the new password logs in.
	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/profile/password", customerToken, map[string]string{
		"new_password": "newpassword123",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	login(t, app, "ana@example.com", "newpassword123")

	// Short passwords are rejected.
	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/profile/password", customerToken, map[string]string{
		"new_password": "short",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestOrderStreamsRequireAuth(t *testing.T) {
	app := setupApp(t)

	customerToken := registerCustomer(t, app, "ana@example.com")

	// The live feeds sit behind the same gates as their list counterparts.
	resp, _ := doJSON(t, app, http.MethodGet, "/api/v1/orders/stream", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp, _ = doJSON(t, app, http.MethodGet, "/api/v1/orders/available/stream", customerToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp, _ = doJSON(t, app, http.MethodGet, "/api/v1/orders/stream", customerToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
