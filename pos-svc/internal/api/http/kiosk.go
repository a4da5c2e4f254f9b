package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"happy-hearts-pos/pos-svc/internal/service"

	"github.com/gorilla/mux"
)

func (h *Handler) getKioskCart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Kiosk.Cart())
}

func (h *Handler) resetKioskCart(w http.ResponseWriter, r *http.Request) {
	h.Kiosk.Reset()
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) addKioskItem(w http.ResponseWriter, r *http.Request) {
	var line orderLine
	if err := json.NewDecoder(r.Body).Decode(&line); err != nil {
		http.Error(w, "Invalid JSON format: "+err.Error(), http.StatusBadRequest)
		return
	}
	cart, err := h.Kiosk.Add(r.Context(), line.ItemID, line.Quantity, line.Size)
	if err != nil {
		if errors.Is(err, service.ErrItemNotFound) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

func (h *Handler) setKioskQuantity(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid JSON format: "+err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, h.Kiosk.SetQuantity(mux.Vars(r)["cartId"], body.Quantity))
}

func (h *Handler) kioskCheckout(w http.ResponseWriter, r *http.Request) {
	var body struct {
		CustomerName string `json:"customerName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid JSON format: "+err.Error(), http.StatusBadRequest)
		return
	}
	order, err := h.Kiosk.Checkout(r.Context(), body.CustomerName)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}
