package auth

import (
	"slices"
	"testing"
)

func TestRolePermissionsSubset(t *testing.T) {
	allowed := map[string]struct{}{}
	for _, perm := range DefaultPermissions {
		allowed[perm] = struct{}{}
	}

	for role, perms := range RolePermissions {
		if len(perms) == 0 {
			t.Fatalf("role %s has no permissions", role)
		}
		for _, perm := range perms {
			if _, ok := allowed[perm]; !ok {
				t.Fatalf("role %s has unknown permission %s", role, perm)
			}
		}
	}
}

func TestDefaultPermissionsUnique(t *testing.T) {
	seen := map[string]struct{}{}
	for _, perm := range DefaultPermissions {
		if _, ok := seen[perm]; ok {
			t.Fatalf("duplicate permission %s", perm)
		}
		seen[perm] = struct{}{}
	}
}

func TestEveryRoleSeeded(t *testing.T) {
	if len(Roles) != len(RolePermissions) {
		t.Fatalf("roles list and permission map disagree: %d vs %d", len(Roles), len(RolePermissions))
	}
	for _, role := range Roles {
		if !ValidRole(role) {
			t.Fatalf("role %s missing from permission map", role)
		}
	}
	if ValidRole("Root") {
		t.Fatal("unexpected role accepted")
	}
}

func TestRoleGating(t *testing.T) {
	cases := []struct {
		perm  string
		roles []string
	}{
		{PermCasesStatus, []string{RoleAdmin, RoleER, RoleHR}},
		{PermCasesWrite, []string{RoleAdmin, RoleER, RoleHR}},
		{PermEmployeesDelete, []string{RoleAdmin, RoleHR}},
		{PermLettersIssue, []string{RoleAdmin, RoleBusiness, RoleER, RoleManagement, RoleManager}},
		{PermLeavesWrite, []string{RoleAdmin}},
		{PermLeavesReview, []string{RoleER}},
		{PermLeavesRead, []string{RoleAdmin, RoleER, RoleManagement}},
		{PermQRManage, []string{RoleAdmin, RoleER, RoleHR}},
		{PermAuditRead, []string{RoleAdmin, RoleITAdmin}},
		{PermAuditCleanup, []string{RoleAdmin}},
		{PermUsersManage, []string{RoleAdmin}},
	}
	for _, tc := range cases {
		var got []string
		for _, role := range Roles {
			if slices.Contains(RolePermissions[role], tc.perm) {
				got = append(got, role)
			}
		}
		slices.Sort(got)
		want := slices.Clone(tc.roles)
		slices.Sort(want)
		if !slices.Equal(got, want) {
			t.Fatalf("%s: expected roles %v, got %v", tc.perm, want, got)
		}
	}
}
