package core

import "testing"

func TestIsAllowedAdmin(t *testing.T) {
	// An admin with no explicit permissions set is still allowed everything.
	admin := User{Role: RoleAdmin}
	for _, a := range []Action{ActionEditBudget, ActionEditCategory, ActionManageTransactions, ActionManageUsers} {
		if !IsAllowed(admin, a) {
			t.Fatalf("admin denied %q", a)
		}
	}
}

func TestIsAllowedMember(t *testing.T) {
	member := User{
		Role: RoleMember,
		Permissions: Permissions{
			EditBudget:         false,
			EditCategory:       true,
			ManageTransactions: true,
			ManageUsers:        false,
		},
	}
	cases := []struct {
		action Action
		want   bool
	}{
		{ActionEditBudget, false},
		{ActionEditCategory, true},
		{ActionManageTransactions, true},
		{ActionManageUsers, false},
		{Action("unknown"), false},
	}
	for i, tc := range cases {
		if got := IsAllowed(member, tc.action); got != tc.want {
			t.Fatalf("case %d (%q): expected %v, got %v", i, tc.action, tc.want, got)
		}
	}
}

func TestRequiredAction(t *testing.T) {
	if RequiredAction(KindPlanned) != ActionEditBudget {
		t.Fatalf("planned records require budget permission")
	}
	if RequiredAction(KindActual) != ActionManageTransactions {
		t.Fatalf("actual records require transaction management permission")
	}
}
