package rbac

import "testing"

func TestHasPermission(t *testing.T) {
	tests := []struct {
		role string
		perm string
		want bool
	}{
		{RoleUser, PermUseAI, true},
		{RoleUser, PermManageApps, true},
		{RoleUser, PermModerate, false},
		{RoleUser, PermManageSettings, false},
		{RoleAdmin, PermModerate, true},
		{RoleAdmin, PermManageSettings, true},
		{"unknown", PermUseAI, false},
	}

	for _, tt := range tests {
		t.Run(tt.role+"/"+tt.perm, func(t *testing.T) {
			if got := HasPermission(tt.role, tt.perm); got != tt.want {
				t.Errorf("HasPermission(%s, %s) = %v, want %v", tt.role, tt.perm, got, tt.want)
			}
		})
	}
}

func TestRoleFor(t *testing.T) {
	if RoleFor(true) != RoleAdmin || RoleFor(false) != RoleUser {
		t.Fatal("unexpected role mapping")
	}
}
