package service

import (
	"errors"

	"github.com/devenkumar1/Quick-Ship-sub000/internal/payment"
)

var (
	ErrDataMissing        = errors.New("data missing")
	ErrUserNotFound       = errors.New("user not found")
	ErrSignatureMismatch  = errors.New("payment verification failed")
	ErrPriceMismatch      = errors.New("price mismatch")
	ErrAmountMismatch     = errors.New("amount mismatch")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrGateway            = payment.ErrGateway
)
