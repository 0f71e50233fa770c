package services

import "errors"

// Sentinel errors shared across services. Handlers map these onto the API
// error envelope; services wrap them with fmt.Errorf("%w: ...") for detail.
var (
	ErrNotAuthenticated     = errors.New("not authenticated")
	ErrValidation           = errors.New("validation error")
	ErrProductNotFound      = errors.New("product not found")
	ErrProductNameExists    = errors.New("product name already exists")
	ErrSaleNotFound         = errors.New("sale not found")
	ErrInsufficientStock    = errors.New("insufficient stock")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrSettingNotFound      = errors.New("setting not found")
	ErrUserAlreadyExists    = errors.New("username already exists")
	ErrInvalidCredentials   = errors.New("invalid username or password")
	ErrUserInactive         = errors.New("user account is inactive")
	ErrInvalidToken         = errors.New("invalid or expired token")
)
