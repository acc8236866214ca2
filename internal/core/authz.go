package core

// Action names a guarded operation. Store mutations and their HTTP handlers
// check the acting user against one of these before doing anything.
type Action string

const (
	ActionEditBudget         Action = "editBudget"
	ActionEditCategory       Action = "editCategory"
	ActionManageTransactions Action = "manageTransactions"
	ActionManageUsers        Action = "manageUsers"
)

// IsAllowed decides whether the user may perform the action. Admins are always
// allowed; members are checked against their permission set.
func IsAllowed(u User, a Action) bool {
	if u.Role == RoleAdmin {
		return true
	}
	switch a {
	case ActionEditBudget:
		return u.Permissions.EditBudget
	case ActionEditCategory:
		return u.Permissions.EditCategory
	case ActionManageTransactions:
		return u.Permissions.ManageTransactions
	case ActionManageUsers:
		return u.Permissions.ManageUsers
	}
	return false
}

// RequiredAction maps a transaction kind to the permission needed to edit or
// delete records of that kind: planned records are budget edits, actual
// records are transaction management.
func RequiredAction(k Kind) Action {
	if k == KindPlanned {
		return ActionEditBudget
	}
	return ActionManageTransactions
}
