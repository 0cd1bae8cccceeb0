package controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"cliently-backend/config"
	"cliently-backend/controllers"
	"cliently-backend/models"
	"cliently-backend/routes"
	"cliently-backend/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

var apiReady bool

func setupAPI(t *testing.T) *gin.Engine {
	t.Helper()
	_ = godotenv.Load("../.env")
	if os.Getenv("DB_URL") == "" || os.Getenv("JWT_SECRET") == "" {
		t.Skip("DB_URL or JWT_SECRET not set")
	}

	if !apiReady {
		gin.SetMode(gin.TestMode)
		if err := config.Load(); err != nil {
			t.Fatalf("config: %v", err)
		}
		config.ConnectDB()
		if err := config.DB.AutoMigrate(
			&models.Business{},
			&models.User{},
			&models.Customer{},
			&models.Appointment{},
			&models.ReminderLog{},
		); err != nil {
			t.Fatalf("migrate: %v", err)
		}
		sender := services.NewTwilioSender()
		controllers.InitServices(
			services.NewGeocodeService(nil),
			services.NewReminderService(config.DB, sender, nil),
			sender,
		)
		apiReady = true
	}
	return routes.SetupRouter()
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var payload []byte
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		payload = raw
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v (body: %s)", err, rec.Body.String())
	}
	return out
}

func testPhoneDigits() string {
	return fmt.Sprintf("9%09d", rand.Intn(1000000000))
}

func registerBusiness(t *testing.T, r *gin.Engine) (token, email string) {
	t.Helper()
	email = fmt.Sprintf("owner-%s@test.com", uuid.New().String()[:8])
	rec := doJSON(t, r, "POST", "/auth/register", "", gin.H{
		"email":        email,
		"phone":        testPhoneDigits(),
		"name":         "Test Owner",
		"password":     "testpass123",
		"businessName": "Test Contracting",
		"timezone":     "UTC",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: %d %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	token, _ = body["token"].(string)
	if token == "" {
		t.Fatal("empty token")
	}
	return token, email
}

func createCustomer(t *testing.T, r *gin.Engine, token, phone string) map[string]interface{} {
	t.Helper()
	rec := doJSON(t, r, "POST", "/api/customers", token, gin.H{
		"fullName": "Dana Whitfield",
		"phone":    phone,
		"address":  "12 Elm St, Naples FL",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create customer: %d %s", rec.Code, rec.Body.String())
	}
	return decodeBody(t, rec)
}

// ----- auth -----

func TestHealthz(t *testing.T) {
	r := setupAPI(t)
	rec := doJSON(t, r, "GET", "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz: %d", rec.Code)
	}
}

func TestRegisterLoginMe(t *testing.T) {
	r := setupAPI(t)
	token, email := registerBusiness(t, r)

	rec := doJSON(t, r, "POST", "/auth/login", "", gin.H{
		"identifier": email,
		"password":   "testpass123",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: %d %s", rec.Code, rec.Body.String())
	}
	if body := decodeBody(t, rec); body["token"] == "" {
		t.Fatal("login returned no token")
	}

	rec = doJSON(t, r, "POST", "/auth/login", "", gin.H{
		"identifier": email,
		"password":   "wrongpassword",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password: %d, want 401", rec.Code)
	}

	rec = doJSON(t, r, "GET", "/auth/me", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("me: %d %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	user, _ := body["user"].(map[string]interface{})
	if user == nil || user["businessName"] != "Test Contracting" {
		t.Errorf("me response: %v", body)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	r := setupAPI(t)
	_, email := registerBusiness(t, r)

	rec := doJSON(t, r, "POST", "/auth/register", "", gin.H{
		"email":        email,
		"phone":        testPhoneDigits(),
		"name":         "Second Owner",
		"password":     "testpass123",
		"businessName": "Other Contracting",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate register: %d, want 409", rec.Code)
	}
}

func TestAuthRequired(t *testing.T) {
	r := setupAPI(t)
	rec := doJSON(t, r, "GET", "/api/customers", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated: %d, want 401", rec.Code)
	}

	rec = doJSON(t, r, "GET", "/api/customers", "not-a-real-token", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token: %d, want 401", rec.Code)
	}
}

// ----- customers -----

func TestCustomerLifecycle(t *testing.T) {
	r := setupAPI(t)
	token, _ := registerBusiness(t, r)

	digits := testPhoneDigits()
	customer := createCustomer(t, r, token, digits)

	// Phones are stored normalized.
	if customer["Phone"] != "+1"+digits {
		t.Errorf("stored phone = %v, want +1%s", customer["Phone"], digits)
	}
	if customer["PipelineStage"] != models.StageNew {
		t.Errorf("default stage = %v", customer["PipelineStage"])
	}
	customerID, _ := customer["ID"].(string)
	if customerID == "" {
		t.Fatal("customer response missing ID")
	}

	// Same phone again for the same business conflicts.
	rec := doJSON(t, r, "POST", "/api/customers", token, gin.H{
		"fullName": "Duplicate Dana",
		"phone":    digits,
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate phone: %d, want 409", rec.Code)
	}

	rec = doJSON(t, r, "GET", "/api/customers", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: %d", rec.Code)
	}

	// Stage moves validate against the known stages.
	rec = doJSON(t, r, "PUT", "/api/customers/"+customerID+"/stage", token, gin.H{"stage": "Imaginary"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid stage: %d, want 400", rec.Code)
	}
	rec = doJSON(t, r, "PUT", "/api/customers/"+customerID+"/stage", token, gin.H{"stage": models.StageContacted})
	if rec.Code != http.StatusOK {
		t.Fatalf("stage update: %d %s", rec.Code, rec.Body.String())
	}
	if body := decodeBody(t, rec); body["PipelineStage"] != models.StageContacted {
		t.Errorf("stage after update = %v", body["PipelineStage"])
	}

	rec = doJSON(t, r, "GET", "/api/customers/pipeline", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("pipeline: %d", rec.Code)
	}
	body := decodeBody(t, rec)
	stages, _ := body["stages"].([]interface{})
	if len(stages) != len(models.PipelineStages) {
		t.Errorf("pipeline stages = %d, want %d", len(stages), len(models.PipelineStages))
	}

	rec = doJSON(t, r, "DELETE", "/api/customers/"+customerID, token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: %d", rec.Code)
	}
	rec = doJSON(t, r, "GET", "/api/customers/"+customerID, token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete: %d, want 404", rec.Code)
	}
}

func TestCustomerTenantIsolation(t *testing.T) {
	r := setupAPI(t)
	token1, _ := registerBusiness(t, r)
	token2, _ := registerBusiness(t, r)

	customer := createCustomer(t, r, token1, testPhoneDigits())
	customerID, _ := customer["ID"].(string)

	// The second business cannot see the first business's customer.
	rec := doJSON(t, r, "GET", "/api/customers/"+customerID, token2, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("cross-tenant get: %d, want 404", rec.Code)
	}
}

// ----- appointments -----

func TestAppointmentBookingAndConflicts(t *testing.T) {
	r := setupAPI(t)
	token, _ := registerBusiness(t, r)
	customer := createCustomer(t, r, token, testPhoneDigits())
	customerID, _ := customer["ID"].(string)

	start := time.Now().UTC().Add(200 * time.Hour).Truncate(time.Second)

	rec := doJSON(t, r, "POST", "/api/appointments", token, gin.H{
		"customerId": customerID,
		"title":      "Roof estimate",
		"startTime":  start,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create appointment: %d %s", rec.Code, rec.Body.String())
	}
	appt := decodeBody(t, rec)

	// End time is derived, one hour after start.
	endRaw, _ := appt["EndTime"].(string)
	endTime, err := time.Parse(time.RFC3339, endRaw)
	if err != nil {
		t.Fatalf("parse end time %q: %v", endRaw, err)
	}
	if !endTime.Equal(start.Add(time.Hour)) {
		t.Errorf("end time = %s, want %s", endTime, start.Add(time.Hour))
	}

	// Exact same slot conflicts.
	rec = doJSON(t, r, "POST", "/api/appointments", token, gin.H{
		"customerId": customerID,
		"startTime":  start,
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("same slot: %d, want 409", rec.Code)
	}
	if body := decodeBody(t, rec); body["conflicts"] == nil {
		t.Error("conflict response missing conflicts list")
	}

	// Partial overlap conflicts.
	rec = doJSON(t, r, "POST", "/api/appointments", token, gin.H{
		"customerId": customerID,
		"startTime":  start.Add(30 * time.Minute),
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("partial overlap: %d, want 409", rec.Code)
	}

	// Back-to-back is fine, the end boundary is exclusive.
	rec = doJSON(t, r, "POST", "/api/appointments", token, gin.H{
		"customerId": customerID,
		"startTime":  start.Add(time.Hour),
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("adjacent slot: %d %s", rec.Code, rec.Body.String())
	}
	second := decodeBody(t, rec)
	secondID, _ := second["ID"].(string)

	// Availability endpoint agrees.
	rec = doJSON(t, r, "GET", "/api/appointments/availability?startTime="+start.Format(time.RFC3339), token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("availability: %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["available"] != false {
		t.Errorf("booked slot reported available: %v", body)
	}

	free := start.Add(6 * time.Hour)
	rec = doJSON(t, r, "GET", "/api/appointments/availability?startTime="+free.Format(time.RFC3339), token, nil)
	if body := decodeBody(t, rec); body["available"] != true {
		t.Errorf("free slot reported unavailable: %v", body)
	}

	// Rescheduling onto an occupied slot conflicts, excluding itself works.
	rec = doJSON(t, r, "PUT", "/api/appointments/"+secondID, token, gin.H{
		"startTime": start.Add(30 * time.Minute),
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("reschedule into occupied slot: %d, want 409", rec.Code)
	}
	rec = doJSON(t, r, "PUT", "/api/appointments/"+secondID, token, gin.H{
		"startTime": start.Add(3 * time.Hour),
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("reschedule to free slot: %d %s", rec.Code, rec.Body.String())
	}

	// A slot only blocked by the appointment itself is available with excludeId.
	rec = doJSON(t, r, "GET", "/api/appointments/availability?startTime="+start.Add(3*time.Hour).Format(time.RFC3339)+"&excludeId="+secondID, token, nil)
	if body := decodeBody(t, rec); body["available"] != true {
		t.Errorf("self-excluded slot reported unavailable: %v", body)
	}

	// Deleting frees the slot immediately.
	apptID, _ := appt["ID"].(string)
	rec = doJSON(t, r, "DELETE", "/api/appointments/"+apptID, token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: %d", rec.Code)
	}
	rec = doJSON(t, r, "GET", "/api/appointments/availability?startTime="+start.Format(time.RFC3339), token, nil)
	if body := decodeBody(t, rec); body["available"] != true {
		t.Errorf("slot still blocked after delete: %v", body)
	}
}

func TestAppointmentRejectsPastStart(t *testing.T) {
	r := setupAPI(t)
	token, _ := registerBusiness(t, r)
	customer := createCustomer(t, r, token, testPhoneDigits())
	customerID, _ := customer["ID"].(string)

	rec := doJSON(t, r, "POST", "/api/appointments", token, gin.H{
		"customerId": customerID,
		"startTime":  time.Now().UTC().Add(-2 * time.Hour),
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("past booking: %d, want 400", rec.Code)
	}
}

func TestAppointmentUnknownCustomer(t *testing.T) {
	r := setupAPI(t)
	token, _ := registerBusiness(t, r)

	rec := doJSON(t, r, "POST", "/api/appointments", token, gin.H{
		"customerId": uuid.New(),
		"startTime":  time.Now().UTC().Add(100 * time.Hour),
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown customer: %d, want 404", rec.Code)
	}
}

// ----- reminders and SMS -----

func TestReminderLogEndpoint(t *testing.T) {
	r := setupAPI(t)
	token, _ := registerBusiness(t, r)

	rec := doJSON(t, r, "GET", "/api/reminders/logs", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("logs: %d %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if _, ok := body["logs"]; !ok {
		t.Error("response missing logs")
	}

	rec = doJSON(t, r, "GET", "/api/reminders/logs?status=bogus", token, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bogus status filter: %d, want 400", rec.Code)
	}
}

func TestReminderRunEndpoint(t *testing.T) {
	r := setupAPI(t)
	token, _ := registerBusiness(t, r)

	rec := doJSON(t, r, "POST", "/api/reminders/run", token, nil)
	if rec.Code != http.StatusAccepted && rec.Code != http.StatusConflict {
		t.Fatalf("run sweep: %d, want 202 or 409", rec.Code)
	}
}

func TestSendSMSValidation(t *testing.T) {
	r := setupAPI(t)
	token, _ := registerBusiness(t, r)

	rec := doJSON(t, r, "POST", "/api/send-sms", token, gin.H{"to": "abc", "message": "hi"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad phone: %d, want 400", rec.Code)
	}

	rec = doJSON(t, r, "POST", "/api/send-sms", token, gin.H{"to": "2392005772"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing message: %d, want 400", rec.Code)
	}

	if os.Getenv("TWILIO_ACCOUNT_SID") != "" {
		t.Skip("Twilio configured, skipping unconfigured-provider check")
	}
	rec = doJSON(t, r, "POST", "/api/send-sms", token, gin.H{"to": "2392005772", "message": "hi"})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("unconfigured provider: %d, want 500", rec.Code)
	}
}

// ----- profile, dashboard, reports -----

func TestProfileAndNotificationSettings(t *testing.T) {
	r := setupAPI(t)
	token, _ := registerBusiness(t, r)

	rec := doJSON(t, r, "GET", "/api/profile", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("profile: %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["businessName"] != "Test Contracting" {
		t.Errorf("businessName = %v", body["businessName"])
	}
	if body["smsRemindersEnabled"] != true {
		t.Errorf("smsRemindersEnabled = %v, want true by default", body["smsRemindersEnabled"])
	}

	rec = doJSON(t, r, "PUT", "/api/profile/notifications", token, gin.H{"timezone": "Not/AZone"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad timezone: %d, want 400", rec.Code)
	}

	rec = doJSON(t, r, "PUT", "/api/profile/notifications", token, gin.H{"smsRemindersEnabled": false})
	if rec.Code != http.StatusOK {
		t.Fatalf("settings update: %d %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, r, "GET", "/api/profile", token, nil)
	if body := decodeBody(t, rec); body["smsRemindersEnabled"] != false {
		t.Errorf("smsRemindersEnabled after update = %v", body["smsRemindersEnabled"])
	}
}

func TestDashboardAndReports(t *testing.T) {
	r := setupAPI(t)
	token, _ := registerBusiness(t, r)
	createCustomer(t, r, token, testPhoneDigits())

	rec := doJSON(t, r, "GET", "/api/dashboard", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("dashboard: %d %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["totalCustomers"] == nil {
		t.Error("dashboard missing totalCustomers")
	}
	pipeline, _ := body["pipeline"].([]interface{})
	if len(pipeline) != len(models.PipelineStages) {
		t.Errorf("dashboard pipeline stages = %d, want %d", len(pipeline), len(models.PipelineStages))
	}

	rec = doJSON(t, r, "GET", "/api/reports", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("reports: %d %s", rec.Code, rec.Body.String())
	}
	report := decodeBody(t, rec)
	if report["quickStats"] == nil {
		t.Error("report missing quickStats")
	}
}
