package httpapi

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"happy-hearts-pos/agg-svc/internal/domain"

	"github.com/gorilla/mux"
)

type SalesReader interface {
	Daily(ctx context.Context, day string, top int64) (domain.DailySales, error)
}

type Handler struct {
	Sales SalesReader
}

func NewHandler(sales SalesReader) *Handler {
	return &Handler{Sales: sales}
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", h.healthCheck).Methods("GET")
	r.HandleFunc("/api/sales/daily/{day}", h.getDailySales).Methods("GET")
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"service":   "agg-svc",
		"timestamp": time.Now().Format(time.RFC3339),
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *Handler) getDailySales(w http.ResponseWriter, r *http.Request) {
	day := mux.Vars(r)["day"]
	if _, err := time.Parse("2006-01-02", day); err != nil {
		http.Error(w, "Invalid day, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	top := int64(10)
	if raw := r.URL.Query().Get("top"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 0 {
			http.Error(w, "Invalid top", http.StatusBadRequest)
			return
		}
		top = n
	}

	sales, err := h.Sales.Daily(r.Context(), day, top)
	if err != nil {
		log.Printf("Error reading daily sales: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, sales)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
