package cases

import "errors"

var (
	ErrNotFound           = errors.New("case not found")
	ErrAttachmentNotFound = errors.New("attachment not found")
	ErrEmployeeNotFound   = errors.New("employee not found")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrOutcomeRequired    = errors.New("outcome is required to close a case")
	ErrCaseClosed         = errors.New("case is closed")
	ErrInvalidOutcome     = errors.New("invalid outcome")
	ErrInvalidRemark      = errors.New("remark must be between 5 and 1000 characters")
)
