package employees

import "errors"

var (
	ErrNotFound      = errors.New("employee not found")
	ErrExists        = errors.New("employee code already exists")
	ErrInvalidStatus = errors.New("invalid employee status")
)
