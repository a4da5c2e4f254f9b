package service

import "errors"

var (
	ErrPersistence = errors.New("save failed")

	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrSizeRequired    = errors.New("a size must be selected for this item")
	ErrUnknownSize     = errors.New("size not offered for this item")
	ErrItemNotFound    = errors.New("menu item not found")
	ErrInvalidMenu     = errors.New("invalid menu data")

	ErrOrderNotFound     = errors.New("order not found")
	ErrInvalidTransition = errors.New("invalid status transition")

	ErrInvalidCredentials   = errors.New("invalid username or password")
	ErrPasswordMismatch     = errors.New("current password is incorrect")
	ErrPasswordTooShort     = errors.New("new password must be at least 4 characters")
	ErrPasswordConfirmation = errors.New("new passwords do not match")
	ErrCredentialsTooShort  = errors.New("username must be at least 3 characters and password at least 4")
	ErrUsernameTaken        = errors.New("username already exists")
	ErrNotAuthorized        = errors.New("administrator login required")
	ErrStaffNotFound        = errors.New("staff account not found")

	ErrAlreadyClockedIn = errors.New("already clocked in")
	ErrNotClockedIn     = errors.New("not clocked in")
	ErrInvalidRate      = errors.New("hourly rate must not be negative")

	ErrEmptyCart                = errors.New("cart is empty")
	ErrCustomerNameRequired     = errors.New("customer name is required")
	ErrStaffRequired            = errors.New("staff name is required")
	ErrDeliveryTimeRequired     = errors.New("scheduled delivery time is required")
	ErrMessengerDetailsRequired = errors.New("messenger name and contact are required")
	ErrInvalidDeliveryFee       = errors.New("delivery fee must not be negative")
	ErrLocationRequired         = errors.New("a valid delivery location is required")
	ErrUnknownChannel           = errors.New("unknown order channel")
)
