package letters

import "errors"

var (
	ErrNotFound       = errors.New("warning letter not found")
	ErrCaseNotFound   = errors.New("case not found")
	ErrCaseNotClosed  = errors.New("warning letters can only be issued for closed cases")
	ErrInvalidOutcome = errors.New("outcome must be a verbal or written warning")
	ErrCaseClosed     = errors.New("case is closed and cannot be modified")
	ErrHTMLRequired   = errors.New("html content is required for the manual template")
)
