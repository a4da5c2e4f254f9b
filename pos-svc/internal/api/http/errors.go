package httpapi

import (
	"errors"
	"net/http"

	"happy-hearts-pos/pos-svc/internal/service"
)

var errorStatus = []struct {
	err    error
	status int
}{
	{service.ErrOrderNotFound, http.StatusNotFound},
	{service.ErrStaffNotFound, http.StatusNotFound},
	{service.ErrItemNotFound, http.StatusNotFound},

	{service.ErrInvalidTransition, http.StatusConflict},
	{service.ErrUsernameTaken, http.StatusConflict},
	{service.ErrAlreadyClockedIn, http.StatusConflict},
	{service.ErrNotClockedIn, http.StatusConflict},

	{service.ErrInvalidCredentials, http.StatusUnauthorized},
	{service.ErrPasswordMismatch, http.StatusUnauthorized},
	{service.ErrNotAuthorized, http.StatusForbidden},

	{service.ErrInvalidQuantity, http.StatusBadRequest},
	{service.ErrSizeRequired, http.StatusBadRequest},
	{service.ErrUnknownSize, http.StatusBadRequest},
	{service.ErrInvalidMenu, http.StatusBadRequest},
	{service.ErrPasswordTooShort, http.StatusBadRequest},
	{service.ErrPasswordConfirmation, http.StatusBadRequest},
	{service.ErrCredentialsTooShort, http.StatusBadRequest},
	{service.ErrInvalidRate, http.StatusBadRequest},
	{service.ErrEmptyCart, http.StatusBadRequest},
	{service.ErrCustomerNameRequired, http.StatusBadRequest},
	{service.ErrStaffRequired, http.StatusBadRequest},
	{service.ErrDeliveryTimeRequired, http.StatusBadRequest},
	{service.ErrMessengerDetailsRequired, http.StatusBadRequest},
	{service.ErrInvalidDeliveryFee, http.StatusBadRequest},
	{service.ErrLocationRequired, http.StatusBadRequest},
	{service.ErrUnknownChannel, http.StatusBadRequest},
}

// writeError maps service errors to status codes. Persistence failures and
// anything unrecognised are 500s with a generic body.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			http.Error(w, err.Error(), e.status)
			return
		}
	}
	if errors.Is(err, service.ErrPersistence) {
		h.log.Error("request failed", "err", err)
		http.Error(w, "Save failed, please try again", http.StatusInternalServerError)
		return
	}
	h.log.Error("request failed", "err", err)
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}
