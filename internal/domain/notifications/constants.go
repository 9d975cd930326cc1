package notifications

const (
	TypeQRSubmission      = "qr_submission"
	TypeLeaveReviewed     = "leave_reviewed"
	TypeCaseStatusChanged = "case_status_changed"
)
