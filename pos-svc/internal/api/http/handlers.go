package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"happy-hearts-pos/pos-svc/internal/domain"
	"happy-hearts-pos/pos-svc/internal/service"

	"github.com/gorilla/mux"
)

type Services struct {
	Catalog    service.CatalogServiceInterface
	Orders     service.LedgerInterface
	Checkout   service.CheckoutServiceInterface
	Queue      service.QueueServiceInterface
	Identity   service.IdentityServiceInterface
	Attendance service.AttendanceServiceInterface
	Reports    service.ReportServiceInterface
	Messaging  service.MessagingServiceInterface
	Kiosk      service.KioskServiceInterface
}

type Handler struct {
	Services
	log *slog.Logger
}

func NewHandler(svc Services, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{Services: svc, log: log}
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", h.healthCheck).Methods("GET")

	r.HandleFunc("/api/menu", h.getMenu).Methods("GET")
	r.HandleFunc("/api/menu", h.saveMenu).Methods("PUT")
	r.HandleFunc("/api/menu", h.resetMenu).Methods("DELETE")
	r.HandleFunc("/api/delivery-fee", h.getDeliveryFee).Methods("GET")

	r.HandleFunc("/api/orders", h.createOrder).Methods("POST")
	r.HandleFunc("/api/orders", h.getOrders).Methods("GET")
	r.HandleFunc("/api/orders/{id}", h.getOrder).Methods("GET")
	r.HandleFunc("/api/orders/{id}/status", h.updateOrderStatus).Methods("PATCH")
	r.HandleFunc("/api/orders/{id}/cancel", h.cancelOrder).Methods("POST")
	r.HandleFunc("/api/orders/{id}/qrcode", h.getOrderQRCode).Methods("GET")
	r.HandleFunc("/api/orders/{id}/message", h.getOrderMessage).Methods("GET")
	r.HandleFunc("/api/queue", h.getQueue).Methods("GET")

	r.HandleFunc("/api/kiosk/cart", h.getKioskCart).Methods("GET")
	r.HandleFunc("/api/kiosk/cart", h.resetKioskCart).Methods("DELETE")
	r.HandleFunc("/api/kiosk/cart/items", h.addKioskItem).Methods("POST")
	r.HandleFunc("/api/kiosk/cart/items/{cartId}", h.setKioskQuantity).Methods("PATCH")
	r.HandleFunc("/api/kiosk/checkout", h.kioskCheckout).Methods("POST")

	r.HandleFunc("/api/admin/login", h.adminLogin).Methods("POST")
	r.HandleFunc("/api/admin/logout", h.adminLogout).Methods("POST")
	r.HandleFunc("/api/admin/password", h.changeAdminPassword).Methods("POST")

	r.HandleFunc("/api/staff", h.listStaff).Methods("GET")
	r.HandleFunc("/api/staff/signup", h.staffSignup).Methods("POST")
	r.HandleFunc("/api/staff/login", h.staffLogin).Methods("POST")
	r.HandleFunc("/api/staff/logout", h.staffLogout).Methods("POST")
	r.HandleFunc("/api/staff/{username}", h.deleteStaff).Methods("DELETE")

	r.HandleFunc("/api/attendance/report", h.getAttendanceReport).Methods("GET")
	r.HandleFunc("/api/attendance/rate", h.setHourlyRate).Methods("PUT")
	r.HandleFunc("/api/attendance/{staff}/in", h.clockIn).Methods("POST")
	r.HandleFunc("/api/attendance/{staff}/out", h.clockOut).Methods("POST")

	r.HandleFunc("/api/reports/sales", h.getSalesSummary).Methods("GET")
	r.HandleFunc("/api/reports/sales.csv", h.exportSales).Methods("GET")
	r.HandleFunc("/api/reports/timelogs.csv", h.exportTimeLogs).Methods("GET")
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"service":   "pos-svc",
		"timestamp": time.Now().Format(time.RFC3339),
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *Handler) getMenu(w http.ResponseWriter, r *http.Request) {
	menu, err := h.Catalog.Get(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, menu)
}

func (h *Handler) saveMenu(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	var menu domain.MenuData
	if err := json.NewDecoder(r.Body).Decode(&menu); err != nil {
		http.Error(w, "Invalid JSON format: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.Catalog.Save(r.Context(), menu); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, menu)
}

func (h *Handler) resetMenu(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	if err := h.Catalog.Reset(r.Context()); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// getDeliveryFee never fails: a missing or unparsable pin yields an
// unknown quote.
func (h *Handler) getDeliveryFee(w http.ResponseWriter, r *http.Request) {
	var dest *domain.Coordinate
	lat, latErr := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lng, lngErr := strconv.ParseFloat(r.URL.Query().Get("lng"), 64)
	if latErr == nil && lngErr == nil {
		dest = &domain.Coordinate{Latitude: lat, Longitude: lng}
	}
	writeJSON(w, http.StatusOK, h.Checkout.Quote(dest))
}

type orderLine struct {
	ItemID   int    `json:"itemId"`
	Quantity int    `json:"quantity"`
	Size     string `json:"size,omitempty"`
}

type createOrderRequest struct {
	Channel domain.Channel `json:"channel"`
	Lines   []orderLine    `json:"lines"`
	service.CheckoutRequest
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON format: "+err.Error(), http.StatusBadRequest)
		return
	}

	cart := service.NewCart(req.Channel)
	for _, line := range req.Lines {
		item, err := h.Catalog.Find(r.Context(), line.ItemID)
		if err != nil {
			if errors.Is(err, service.ErrItemNotFound) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			h.writeError(w, err)
			return
		}
		var size *domain.Size
		if line.Size != "" {
			size = &domain.Size{Name: line.Size}
		}
		if err := cart.Add(item, line.Quantity, size); err != nil {
			h.writeError(w, err)
			return
		}
	}

	order, err := h.Checkout.PlaceOrder(r.Context(), cart, req.CheckoutRequest)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if order.DegradedID {
		w.Header().Set("X-Order-Id-Degraded", "true")
	}
	writeJSON(w, http.StatusCreated, order)
}

func (h *Handler) getOrders(w http.ResponseWriter, r *http.Request) {
	var (
		orders []domain.Order
		err    error
	)
	if r.URL.Query().Get("order") == "newest" {
		orders, err = h.Orders.Newest(r.Context())
	} else {
		orders, err = h.Orders.All(r.Context())
	}
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.Orders.Find(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status domain.OrderStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid JSON format: "+err.Error(), http.StatusBadRequest)
		return
	}
	if !body.Status.Valid() {
		http.Error(w, "Unknown status: "+string(body.Status), http.StatusBadRequest)
		return
	}
	order, err := h.Orders.UpdateStatus(r.Context(), mux.Vars(r)["id"], body.Status)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.Orders.Cancel(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *Handler) getOrderQRCode(w http.ResponseWriter, r *http.Request) {
	qrCode, err := h.Messaging.SlipQRCode(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	if len(qrCode) == 0 {
		http.Error(w, "QR code not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	w.Write(qrCode)
}

func (h *Handler) getOrderMessage(w http.ResponseWriter, r *http.Request) {
	msg, err := h.Messaging.OrderMessage(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

func (h *Handler) getQueue(w http.ResponseWriter, r *http.Request) {
	buckets, err := h.Queue.Refresh(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, buckets)
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func decodeCredentials(w http.ResponseWriter, r *http.Request) (credentials, bool) {
	var c credentials
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		http.Error(w, "Invalid JSON format: "+err.Error(), http.StatusBadRequest)
		return c, false
	}
	return c, true
}

func (h *Handler) adminLogin(w http.ResponseWriter, r *http.Request) {
	c, ok := decodeCredentials(w, r)
	if !ok {
		return
	}
	session, err := h.Identity.AdminLogin(r.Context(), c.Username, c.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *Handler) adminLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.Identity.AdminLogout(r.Context()); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) changeAdminPassword(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	var body struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
		ConfirmPassword string `json:"confirmPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid JSON format: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.Identity.ChangeAdminPassword(r.Context(), body.CurrentPassword, body.NewPassword, body.ConfirmPassword); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listStaff(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.Identity.ListStaff(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, accounts)
}

func (h *Handler) staffSignup(w http.ResponseWriter, r *http.Request) {
	c, ok := decodeCredentials(w, r)
	if !ok {
		return
	}
	session, err := h.Identity.Signup(r.Context(), c.Username, c.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (h *Handler) staffLogin(w http.ResponseWriter, r *http.Request) {
	c, ok := decodeCredentials(w, r)
	if !ok {
		return
	}
	session, err := h.Identity.StaffLogin(r.Context(), c.Username, c.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *Handler) staffLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.Identity.StaffLogout(r.Context()); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteStaff(w http.ResponseWriter, r *http.Request) {
	if err := h.Identity.DeleteStaff(r.Context(), mux.Vars(r)["username"]); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) clockIn(w http.ResponseWriter, r *http.Request) {
	entry, err := h.Attendance.ClockIn(r.Context(), mux.Vars(r)["staff"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (h *Handler) clockOut(w http.ResponseWriter, r *http.Request) {
	entry, err := h.Attendance.ClockOut(r.Context(), mux.Vars(r)["staff"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (h *Handler) getAttendanceReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.Attendance.Report(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) setHourlyRate(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	var body struct {
		Rate float64 `json:"rate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid JSON format: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.Attendance.SetHourlyRate(r.Context(), body.Rate); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

func (h *Handler) getSalesSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Reports.Sales(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) exportSales(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.Reports.ExportSales(r.Context(), &buf); err != nil {
		h.writeError(w, err)
		return
	}
	writeCSV(w, "happy-hearts-sales-report", buf.Bytes())
}

func (h *Handler) exportTimeLogs(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.Reports.ExportTimeLogs(r.Context(), &buf); err != nil {
		h.writeError(w, err)
		return
	}
	writeCSV(w, "happy-hearts-timelog-report", buf.Bytes())
}

func (h *Handler) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	ok, err := h.Identity.IsAdminAuthenticated(r.Context())
	if err != nil {
		h.writeError(w, err)
		return false
	}
	if !ok {
		h.writeError(w, service.ErrNotAuthorized)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeCSV(w http.ResponseWriter, name string, data []byte) {
	filename := name + "-" + time.Now().Format("2006-01-02") + ".csv"
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
