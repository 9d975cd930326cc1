package qr

import "errors"

var (
	ErrNotFound          = errors.New("qr token not found")
	ErrInvalidToken      = errors.New("Invalid or expired token")
	ErrAnonymousDisabled = errors.New("anonymous submissions are disabled")
	ErrInvalidCategory   = errors.New("invalid category")
	ErrInvalidMessage    = errors.New("message must be between 10 and 4000 characters")
	ErrInvalidExpiry     = errors.New("expiresInDays must be between 1 and 365")
)
