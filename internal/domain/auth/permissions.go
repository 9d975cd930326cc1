package auth

const (
	RoleAdmin      = "Admin"
	RoleER         = "ER"
	RoleHR         = "HR"
	RoleBusiness   = "Business"
	RoleManagement = "Management"
	RoleManager    = "Manager"
	RoleITAdmin    = "ITAdmin"
)

// Roles lists every seeded role in display order.
var Roles = []string{RoleAdmin, RoleER, RoleHR, RoleBusiness, RoleManagement, RoleManager, RoleITAdmin}

const (
	PermEmployeesRead   = "employees.read"
	PermEmployeesWrite  = "employees.write"
	PermEmployeesDelete = "employees.delete"
	PermCasesRead       = "cases.read"
	PermCasesWrite      = "cases.write"
	PermCasesStatus     = "cases.status"
	PermCasesDelete     = "cases.delete"
	PermLettersRead     = "letters.read"
	PermLettersIssue    = "letters.issue"
	PermLeavesRead      = "leaves.read"
	PermLeavesWrite     = "leaves.write"
	PermLeavesReview    = "leaves.review"
	PermQRManage        = "qr.manage"
	PermAuditRead       = "audit.read"
	PermAuditCleanup    = "audit.cleanup"
	PermDashboardRead   = "dashboard.read"
	PermDashboardExport = "dashboard.export"
	PermUsersManage     = "users.manage"
)

var DefaultPermissions = []string{
	PermEmployeesRead,
	PermEmployeesWrite,
	PermEmployeesDelete,
	PermCasesRead,
	PermCasesWrite,
	PermCasesStatus,
	PermCasesDelete,
	PermLettersRead,
	PermLettersIssue,
	PermLeavesRead,
	PermLeavesWrite,
	PermLeavesReview,
	PermQRManage,
	PermAuditRead,
	PermAuditCleanup,
	PermDashboardRead,
	PermDashboardExport,
	PermUsersManage,
}

var RolePermissions = map[string][]string{
	RoleAdmin: {
		PermEmployeesRead,
		PermEmployeesWrite,
		PermEmployeesDelete,
		PermCasesRead,
		PermCasesWrite,
		PermCasesStatus,
		PermCasesDelete,
		PermLettersRead,
		PermLettersIssue,
		PermLeavesRead,
		PermLeavesWrite,
		PermQRManage,
		PermAuditRead,
		PermAuditCleanup,
		PermDashboardRead,
		PermDashboardExport,
		PermUsersManage,
	},
	RoleER: {
		PermEmployeesRead,
		PermEmployeesWrite,
		PermCasesRead,
		PermCasesWrite,
		PermCasesStatus,
		PermLettersRead,
		PermLettersIssue,
		PermLeavesRead,
		PermLeavesReview,
		PermQRManage,
		PermDashboardRead,
		PermDashboardExport,
	},
	RoleHR: {
		PermEmployeesRead,
		PermEmployeesWrite,
		PermEmployeesDelete,
		PermCasesRead,
		PermCasesWrite,
		PermCasesStatus,
		PermLettersRead,
		PermQRManage,
		PermDashboardRead,
		PermDashboardExport,
	},
	RoleBusiness: {
		PermEmployeesRead,
		PermCasesRead,
		PermLettersRead,
		PermLettersIssue,
		PermDashboardRead,
		PermDashboardExport,
	},
	RoleManagement: {
		PermEmployeesRead,
		PermCasesRead,
		PermLettersRead,
		PermLettersIssue,
		PermLeavesRead,
		PermDashboardRead,
		PermDashboardExport,
	},
	RoleManager: {
		PermEmployeesRead,
		PermCasesRead,
		PermLettersRead,
		PermLettersIssue,
		PermDashboardRead,
		PermDashboardExport,
	},
	RoleITAdmin: {
		PermEmployeesRead,
		PermAuditRead,
		PermDashboardRead,
	},
}

// ValidRole reports whether name is one of the seeded roles.
func ValidRole(name string) bool {
	_, ok := RolePermissions[name]
	return ok
}
