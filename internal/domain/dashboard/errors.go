package dashboard

import "errors"

var (
	ErrInvalidFormat = errors.New("format must be excel or pdf")
	ErrInvalidRange  = errors.New("from must not be after to")
	ErrInvalidDate   = errors.New("date must be YYYY-MM-DD")
)
