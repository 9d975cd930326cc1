package leave

import "errors"

var (
	ErrNotFound           = errors.New("leave request not found")
	ErrInvalidState       = errors.New("invalid state")
	ErrFinalized          = errors.New("leave request is finalized")
	ErrAttachmentRequired = errors.New("attachment required for this leave type")
	ErrInvalidDates       = errors.New("start date must be on or before end date")
	ErrRemarkRequired     = errors.New("remark is required to reject")
	ErrInvalidDecision    = errors.New("invalid review decision")
	ErrInvalidType        = errors.New("invalid leave type")
)
