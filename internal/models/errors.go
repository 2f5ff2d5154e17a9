package models

import "errors"

// Ошибки предметной области. Проверяются через errors.Is.
var (
	ErrAlreadyRegistered = errors.New("user already registered")
	ErrUserNotFound      = errors.New("user not found")
	ErrInvalidStatus     = errors.New("invalid status")
	ErrInvalidAmount     = errors.New("payment amount must be positive")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrDuplicatePayment  = errors.New("payment reference already processed")
)
