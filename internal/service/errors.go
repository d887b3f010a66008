package service

import (
	"errors"
	"fmt"

	"cafe-stock/internal/billing"
	"cafe-stock/internal/ledger"
	"cafe-stock/internal/repository"
	"cafe-stock/pkg/validator"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrNotFound           = repository.ErrNotFound
	ErrDuplicateKey       = repository.ErrDuplicateKey
	ErrInsufficientStock  = ledger.ErrInsufficientStock
	ErrNoChange           = ledger.ErrNoChange
	ErrInvalidTransition  = billing.ErrInvalidTransition
	ErrMissingProof       = errors.New("a payment reference or slip is required")
	ErrProductInUse       = errors.New("product has stock movements and cannot be deleted")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrForbidden          = errors.New("you are not allowed to do this")
	ErrProfileRequired    = errors.New("fill in the invoice profile before printing an invoice")
	ErrSessionExpired     = errors.New("session expired (logged in on another device)")
)

func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func validate(req interface{}) error {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrValidation, validator.Summary(errs))
	}
	return nil
}
