package types

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("requested item not found")

	ErrDriverNotFound     = errors.New("driver not found")
	ErrDriverInactive     = errors.New("driver is blocked")
	ErrDriverRegistered   = errors.New("driver with this phone already registered")
	ErrCarNumberExists    = errors.New("car number already registered")
	ErrNoDriverAvailable  = errors.New("no available driver within search radius")
	ErrDriverNoLocation   = errors.New("driver has no reported location")

	ErrClientNotFound   = errors.New("client not found")
	ErrClientRegistered = errors.New("client with this phone already registered")

	ErrOrderNotFound       = errors.New("order not found")
	ErrOrderDriverMismatch = errors.New("order is not assigned to this driver")
	ErrOrderStatusConflict = errors.New("order status no longer permits this transition")
	ErrInvalidOrderStatus  = errors.New("invalid order status")

	ErrTaxiparkNotFound = errors.New("taxipark not found")
	ErrTaxiparkExists   = errors.New("taxipark with this name already exists")
	ErrTaxiparkInactive = errors.New("taxipark is deactivated")

	ErrDispatcherNotFound    = errors.New("dispatcher not found")
	ErrDispatcherLoginExists = errors.New("dispatcher with this login already exists")
	ErrInvalidCredentials    = errors.New("invalid login or password")

	ErrInvalidPhoneNumber = errors.New("phone number cannot be normalized")
	ErrInvalidSMSCode     = errors.New("invalid or expired SMS code")

	ErrVerificationNotFound  = errors.New("photo verification not found")
	ErrVerificationProcessed = errors.New("photo verification already processed")
	ErrVerificationPending   = errors.New("photo verification already awaiting review")
	ErrNoPhotosProvided      = errors.New("no photo files provided")
	ErrRejectionReasonEmpty  = errors.New("rejection reason must be provided")

	ErrCommissionAlreadyCharged = errors.New("commission already charged for this order")
	ErrInvalidAmount            = errors.New("amount must be positive")
)

// InsufficientBalanceError carries the amounts the mobile app needs to
// prompt the driver for a top-up instead of showing a generic failure.
type InsufficientBalanceError struct {
	Required          float64
	Available         float64
	CommissionPercent float64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf(
		"insufficient balance: required %.2f, available %.2f (commission %.1f%%)",
		e.Required, e.Available, e.CommissionPercent,
	)
}

// Shortfall returns how much the driver is missing to accept the order.
func (e *InsufficientBalanceError) Shortfall() float64 {
	return e.Required - e.Available
}

// IsInsufficientBalance extracts an InsufficientBalanceError from the chain.
func IsInsufficientBalance(err error) (*InsufficientBalanceError, bool) {
	var e *InsufficientBalanceError
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
