package model

// Role codes. The user who registers an account is the admin of a new
// tenant; admins may add further admin or staff users to that tenant.
const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

// RolePrivileges maps each role to the privilege codes it grants.
var RolePrivileges = map[string][]string{
	RoleAdmin: {
		PrivProductView, PrivProductCreate, PrivProductUpdate, PrivProductDelete,
		PrivMovementView, PrivMovementCreate,
		PrivDashboardView,
		PrivImport, PrivExport,
		PrivUserView, PrivUserCreate,
		PrivPaymentReview,
	},
	RoleStaff: {
		PrivProductView,
		PrivMovementView, PrivMovementCreate,
		PrivDashboardView,
		PrivExport,
	},
}

// PrivilegesFor returns a copy of the privilege codes granted to role.
func PrivilegesFor(role string) []string {
	codes := RolePrivileges[role]
	out := make([]string, len(codes))
	copy(out, codes)
	return out
}
