package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	httpapi "happy-hearts-pos/pos-svc/internal/api/http"
	"happy-hearts-pos/pos-svc/internal/domain"
	"happy-hearts-pos/pos-svc/internal/mocks"
	"happy-hearts-pos/pos-svc/internal/service"
	"happy-hearts-pos/pos-svc/internal/storage"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func servicesFor(s *stack) httpapi.Services {
	return httpapi.Services{
		Catalog:    s.catalog,
		Orders:     s.ledger,
		Checkout:   s.checkout,
		Queue:      service.NewQueueView(s.ledger, nil, time.UTC, quietLogger()),
		Identity:   s.identity,
		Attendance: s.attendance,
		Reports:    service.NewReports(s.ledger, s.attendance, time.UTC),
		Messaging:  service.NewMessaging(s.ledger, service.DefaultQRGenerator{}, "123", testBaseURL),
		Kiosk:      service.NewKiosk(s.catalog, s.checkout, time.Minute, quietLogger()),
	}
}

func newTestRouter(s *stack) *mux.Router {
	handler := httpapi.NewHandler(servicesFor(s), quietLogger())
	r := mux.NewRouter()
	handler.RegisterRoutes(r)
	return r
}

func serve(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func loginAdmin(t *testing.T, s *stack) {
	t.Helper()
	_, err := s.identity.AdminLogin(context.Background(), "admin", "password")
	require.NoError(t, err)
}

func TestHealthCheckHandler(t *testing.T) {
	r := newTestRouter(newStack(storage.NewMemoryBackend(), "tab-a", nil))

	w := serve(r, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "pos-svc", body["service"])
}

func TestGetMenuHandler(t *testing.T) {
	r := newTestRouter(newStack(storage.NewMemoryBackend(), "tab-a", nil))

	w := serve(r, http.MethodGet, "/api/menu", "")

	assert.Equal(t, http.StatusOK, w.Code)
	var menu domain.MenuData
	require.NoError(t, json.NewDecoder(w.Body).Decode(&menu))
	assert.Equal(t, service.DefaultMenu().Len(), menu.Len())
	assert.Equal(t, "Milk Tea", menu.Categories[0].Name)
}

func TestGetMenuHandler_StoreError(t *testing.T) {
	s := newStack(storage.NewMemoryBackend(), "tab-a", nil)
	catalog := mocks.NewCatalogServiceInterface(t)
	catalog.On("Get", mock.Anything).Return(domain.MenuData{}, assert.AnError).Once()

	svc := servicesFor(s)
	svc.Catalog = catalog
	handler := httpapi.NewHandler(svc, quietLogger())
	r := mux.NewRouter()
	handler.RegisterRoutes(r)

	w := serve(r, http.MethodGet, "/api/menu", "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestSaveMenuHandler(t *testing.T) {
	tests := []struct {
		name     string
		admin    bool
		body     string
		wantCode int
	}{
		{
			name:     "admin saves menu",
			admin:    true,
			body:     `{"Specials":[{"id":100,"name":"Item A","category":"Specials","price":100,"description":""}]}`,
			wantCode: http.StatusOK,
		},
		{
			name:     "not logged in",
			body:     `{"Specials":[]}`,
			wantCode: http.StatusForbidden,
		},
		{
			name:     "invalid JSON",
			admin:    true,
			body:     `{invalid}`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "negative price",
			admin:    true,
			body:     `{"Specials":[{"id":1,"name":"Bad","price":-5}]}`,
			wantCode: http.StatusBadRequest,
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			s := newStack(storage.NewMemoryBackend(), "tab-a", nil)
			if testCase.admin {
				loginAdmin(t, s)
			}
			r := newTestRouter(s)

			w := serve(r, http.MethodPut, "/api/menu", testCase.body)

			assert.Equal(t, testCase.wantCode, w.Code)
		})
	}
}

func TestResetMenuHandler(t *testing.T) {
	ctx := context.Background()
	s := newStack(storage.NewMemoryBackend(), "tab-a", nil)
	loginAdmin(t, s)
	require.NoError(t, s.catalog.Save(ctx, domain.MenuData{Categories: []domain.Category{
		{Name: "Specials", Items: []domain.MenuItem{plainItem}},
	}}))
	r := newTestRouter(s)

	w := serve(r, http.MethodDelete, "/api/menu", "")

	assert.Equal(t, http.StatusNoContent, w.Code)
	menu, err := s.catalog.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, service.DefaultMenu().Len(), menu.Len())
}

func TestDeliveryFeeHandler(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantKnown bool
		wantFee   float64
	}{
		{name: "at the store", query: "?lat=16.1194375&lng=120.4034375", wantKnown: true, wantFee: 40},
		{name: "no pin", query: "", wantKnown: false},
		{name: "garbage", query: "?lat=abc&lng=120", wantKnown: false},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			r := newTestRouter(newStack(storage.NewMemoryBackend(), "tab-a", nil))

			w := serve(r, http.MethodGet, "/api/delivery-fee"+testCase.query, "")

			assert.Equal(t, http.StatusOK, w.Code)
			var quote service.FeeQuote
			require.NoError(t, json.NewDecoder(w.Body).Decode(&quote))
			assert.Equal(t, testCase.wantKnown, quote.Known)
			assert.Equal(t, testCase.wantFee, quote.Fee)
		})
	}
}

func TestCreateOrderHandler(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantCode  int
		wantTotal float64
	}{
		{
			name:      "staff order",
			body:      `{"channel":"staff","lines":[{"itemId":20,"quantity":2},{"itemId":1,"quantity":1,"size":"Large"}],"staffName":"Ana"}`,
			wantCode:  http.StatusCreated,
			wantTotal: 259,
		},
		{
			name:      "kiosk order",
			body:      `{"channel":"kiosk","lines":[{"itemId":30,"quantity":1}],"customerName":"Bea"}`,
			wantCode:  http.StatusCreated,
			wantTotal: 150,
		},
		{
			name:      "customer order with pin",
			body:      `{"channel":"customer","lines":[{"itemId":30,"quantity":1}],"location":{"latitude":16.1194375,"longitude":120.4034375}}`,
			wantCode:  http.StatusCreated,
			wantTotal: 190,
		},
		{
			name:     "unknown item",
			body:     `{"channel":"staff","lines":[{"itemId":999,"quantity":1}],"staffName":"Ana"}`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "size missing",
			body:     `{"channel":"staff","lines":[{"itemId":1,"quantity":1}],"staffName":"Ana"}`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "empty cart",
			body:     `{"channel":"staff","lines":[],"staffName":"Ana"}`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "staff missing",
			body:     `{"channel":"staff","lines":[{"itemId":20,"quantity":1}]}`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "invalid JSON",
			body:     `{invalid}`,
			wantCode: http.StatusBadRequest,
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			s := newStack(storage.NewMemoryBackend(), "tab-a", nil)
			r := newTestRouter(s)

			w := serve(r, http.MethodPost, "/api/orders", testCase.body)

			assert.Equal(t, testCase.wantCode, w.Code)
			if testCase.wantCode != http.StatusCreated {
				return
			}
			var order domain.Order
			require.NoError(t, json.NewDecoder(w.Body).Decode(&order))
			assert.Equal(t, "1", order.ID)
			assert.Equal(t, domain.StatusNew, order.Status)
			assert.Equal(t, testCase.wantTotal, order.Total)
		})
	}
}

func TestGetOrdersHandler(t *testing.T) {
	ctx := context.Background()
	s := newStack(storage.NewMemoryBackend(), "tab-a", nil)
	require.NoError(t, s.ledger.Append(ctx, orderWithStatus("1", domain.StatusNew, time.Now())))
	require.NoError(t, s.ledger.Append(ctx, orderWithStatus("2", domain.StatusNew, time.Now())))
	r := newTestRouter(s)

	tests := []struct {
		name    string
		target  string
		wantIDs []string
	}{
		{name: "storage order", target: "/api/orders", wantIDs: []string{"1", "2"}},
		{name: "newest first", target: "/api/orders?order=newest", wantIDs: []string{"2", "1"}},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			w := serve(r, http.MethodGet, testCase.target, "")

			assert.Equal(t, http.StatusOK, w.Code)
			var orders []domain.Order
			require.NoError(t, json.NewDecoder(w.Body).Decode(&orders))
			assert.Equal(t, testCase.wantIDs, ids(orders))
		})
	}
}

func TestGetOrderHandler(t *testing.T) {
	s := newStack(storage.NewMemoryBackend(), "tab-a", nil)
	require.NoError(t, s.ledger.Append(context.Background(), orderWithStatus("1", domain.StatusNew, time.Now())))
	r := newTestRouter(s)

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/api/orders/1", "").Code)
	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodGet, "/api/orders/2", "").Code)
}

func TestUpdateOrderStatusHandler(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		body     string
		wantCode int
	}{
		{name: "accept order", id: "1", body: `{"status":"in-progress"}`, wantCode: http.StatusOK},
		{name: "skip a step", id: "1", body: `{"status":"completed"}`, wantCode: http.StatusConflict},
		{name: "unknown status", id: "1", body: `{"status":"lost"}`, wantCode: http.StatusBadRequest},
		{name: "unknown order", id: "9", body: `{"status":"in-progress"}`, wantCode: http.StatusNotFound},
		{name: "invalid JSON", id: "1", body: `{`, wantCode: http.StatusBadRequest},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			s := newStack(storage.NewMemoryBackend(), "tab-a", nil)
			require.NoError(t, s.ledger.Append(context.Background(), orderWithStatus("1", domain.StatusNew, time.Now())))
			r := newTestRouter(s)

			w := serve(r, http.MethodPatch, "/api/orders/"+testCase.id+"/status", testCase.body)

			assert.Equal(t, testCase.wantCode, w.Code)
		})
	}
}

func TestCancelOrderHandler(t *testing.T) {
	s := newStack(storage.NewMemoryBackend(), "tab-a", nil)
	require.NoError(t, s.ledger.Append(context.Background(), orderWithStatus("1", domain.StatusNew, time.Now())))
	r := newTestRouter(s)

	w := serve(r, http.MethodPost, "/api/orders/1/cancel", "")
	assert.Equal(t, http.StatusOK, w.Code)
	var order domain.Order
	require.NoError(t, json.NewDecoder(w.Body).Decode(&order))
	assert.Equal(t, domain.StatusCancelled, order.Status)

	assert.Equal(t, http.StatusConflict, serve(r, http.MethodPost, "/api/orders/1/cancel", "").Code)
}

func TestQueueHandler(t *testing.T) {
	ctx := context.Background()
	s := newStack(storage.NewMemoryBackend(), "tab-a", nil)
	require.NoError(t, s.ledger.Append(ctx, orderWithStatus("1", domain.StatusNew, time.Now())))
	require.NoError(t, s.ledger.Append(ctx, orderWithStatus("2", domain.StatusInProgress, time.Now())))
	r := newTestRouter(s)

	w := serve(r, http.MethodGet, "/api/queue", "")

	assert.Equal(t, http.StatusOK, w.Code)
	var buckets service.QueueBuckets
	require.NoError(t, json.NewDecoder(w.Body).Decode(&buckets))
	assert.Equal(t, []string{"1"}, ids(buckets.New))
	assert.Equal(t, []string{"2"}, ids(buckets.InProgress))
	assert.Empty(t, buckets.CompletedToday)
}

func TestOrderSlipHandlers(t *testing.T) {
	s := newStack(storage.NewMemoryBackend(), "tab-a", nil)
	require.NoError(t, s.ledger.Append(context.Background(), orderWithStatus("1", domain.StatusNew, time.Now())))
	r := newTestRouter(s)

	w := serve(r, http.MethodGet, "/api/orders/1/qrcode", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")))

	w = serve(r, http.MethodGet, "/api/orders/1/message", "")
	assert.Equal(t, http.StatusOK, w.Code)
	var msg service.OrderMessage
	require.NoError(t, json.NewDecoder(w.Body).Decode(&msg))
	assert.True(t, strings.HasPrefix(msg.MessengerLink, "https://m.me/123?text="))

	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodGet, "/api/orders/2/qrcode", "").Code)
	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodGet, "/api/orders/2/message", "").Code)
}

func TestAdminHandlers(t *testing.T) {
	s := newStack(storage.NewMemoryBackend(), "tab-a", nil)
	r := newTestRouter(s)

	w := serve(r, http.MethodPost, "/api/admin/login", `{"username":"admin","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(r, http.MethodPost, "/api/admin/password", `{"currentPassword":"password","newPassword":"secret","confirmPassword":"secret"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = serve(r, http.MethodPost, "/api/admin/login", `{"username":"admin","password":"password"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	var session domain.Session
	require.NoError(t, json.NewDecoder(w.Body).Decode(&session))
	assert.Equal(t, domain.RoleAdmin, session.Role)

	w = serve(r, http.MethodPost, "/api/admin/password", `{"currentPassword":"password","newPassword":"abc","confirmPassword":"abc"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(r, http.MethodPost, "/api/admin/password", `{"currentPassword":"password","newPassword":"secret","confirmPassword":"secret"}`)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = serve(r, http.MethodPost, "/api/admin/logout", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	authed, err := s.identity.IsAdminAuthenticated(context.Background())
	require.NoError(t, err)
	assert.False(t, authed)
}

func TestStaffHandlers(t *testing.T) {
	s := newStack(storage.NewMemoryBackend(), "tab-a", nil)
	r := newTestRouter(s)

	tests := []struct {
		name     string
		method   string
		target   string
		body     string
		admin    bool
		wantCode int
	}{
		{name: "signup", method: http.MethodPost, target: "/api/staff/signup", body: `{"username":"ana","password":"1234"}`, wantCode: http.StatusCreated},
		{name: "duplicate signup", method: http.MethodPost, target: "/api/staff/signup", body: `{"username":"ana","password":"1234"}`, wantCode: http.StatusConflict},
		{name: "short signup", method: http.MethodPost, target: "/api/staff/signup", body: `{"username":"al","password":"1"}`, wantCode: http.StatusBadRequest},
		{name: "wrong password", method: http.MethodPost, target: "/api/staff/login", body: `{"username":"ana","password":"9"}`, wantCode: http.StatusUnauthorized},
		{name: "login", method: http.MethodPost, target: "/api/staff/login", body: `{"username":"ana","password":"1234"}`, wantCode: http.StatusOK},
		{name: "list", method: http.MethodGet, target: "/api/staff", wantCode: http.StatusOK},
		{name: "logout", method: http.MethodPost, target: "/api/staff/logout", wantCode: http.StatusNoContent},
		{name: "delete without admin", method: http.MethodDelete, target: "/api/staff/ana", wantCode: http.StatusForbidden},
		{name: "delete unknown", method: http.MethodDelete, target: "/api/staff/carl", admin: true, wantCode: http.StatusNotFound},
		{name: "delete", method: http.MethodDelete, target: "/api/staff/ana", admin: true, wantCode: http.StatusNoContent},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			if testCase.admin {
				loginAdmin(t, s)
			}

			w := serve(r, testCase.method, testCase.target, testCase.body)

			assert.Equal(t, testCase.wantCode, w.Code)
		})
	}
}

func TestAttendanceHandlers(t *testing.T) {
	s := newStack(storage.NewMemoryBackend(), "tab-a", nil)
	r := newTestRouter(s)

	tests := []struct {
		name     string
		method   string
		target   string
		body     string
		admin    bool
		wantCode int
	}{
		{name: "clock out first", method: http.MethodPost, target: "/api/attendance/Ana/out", wantCode: http.StatusConflict},
		{name: "clock in", method: http.MethodPost, target: "/api/attendance/Ana/in", wantCode: http.StatusCreated},
		{name: "clock in twice", method: http.MethodPost, target: "/api/attendance/Ana/in", wantCode: http.StatusConflict},
		{name: "clock out", method: http.MethodPost, target: "/api/attendance/Ana/out", wantCode: http.StatusCreated},
		{name: "rate without admin", method: http.MethodPut, target: "/api/attendance/rate", body: `{"rate":120}`, wantCode: http.StatusForbidden},
		{name: "negative rate", method: http.MethodPut, target: "/api/attendance/rate", body: `{"rate":-1}`, admin: true, wantCode: http.StatusBadRequest},
		{name: "set rate", method: http.MethodPut, target: "/api/attendance/rate", body: `{"rate":120}`, admin: true, wantCode: http.StatusOK},
		{name: "report", method: http.MethodGet, target: "/api/attendance/report", wantCode: http.StatusOK},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			if testCase.admin {
				loginAdmin(t, s)
			}

			w := serve(r, testCase.method, testCase.target, testCase.body)

			assert.Equal(t, testCase.wantCode, w.Code)
		})
	}

	rate, err := s.attendance.HourlyRate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 120.0, rate)
}

func TestReportHandlers(t *testing.T) {
	ctx := context.Background()
	s := newStack(storage.NewMemoryBackend(), "tab-a", nil)
	require.NoError(t, s.ledger.Append(ctx, orderWithStatus("1", domain.StatusCompleted, time.Now())))
	r := newTestRouter(s)

	w := serve(r, http.MethodGet, "/api/reports/sales", "")
	assert.Equal(t, http.StatusOK, w.Code)
	var summary service.SalesSummary
	require.NoError(t, json.NewDecoder(w.Body).Decode(&summary))
	assert.Equal(t, 100.0, summary.Daily)

	tests := []struct {
		target   string
		wantFile string
		wantRows int
	}{
		{target: "/api/reports/sales.csv", wantFile: "happy-hearts-sales-report-", wantRows: 2},
		{target: "/api/reports/timelogs.csv", wantFile: "happy-hearts-timelog-report-", wantRows: 1},
	}

	for _, testCase := range tests {
		t.Run(testCase.target, func(t *testing.T) {
			w := serve(r, http.MethodGet, testCase.target, "")

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
			assert.Contains(t, w.Header().Get("Content-Disposition"), testCase.wantFile)
			assert.Len(t, readCSV(t, w.Body.Bytes()), testCase.wantRows)
		})
	}
}

func TestPersistenceFailureIs500(t *testing.T) {
	backend := storage.NewMemoryBackend()
	s := newStack(backend, "tab-a", nil)
	r := newTestRouter(s)
	backend.SetFailing(true)

	w := serve(r, http.MethodGet, "/api/orders", "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Save failed")
}

func TestNewRouter_CORS(t *testing.T) {
	handler := httpapi.NewHandler(servicesFor(newStack(storage.NewMemoryBackend(), "tab-a", nil)), quietLogger())
	router := httpapi.NewRouter(handler)

	req := httptest.NewRequest(http.MethodOptions, "/api/orders/1/status", nil)
	req.Header.Set("Origin", "http://kiosk.local")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://kiosk.local")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
