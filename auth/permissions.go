// Package auth holds session tokens, password hashing and the role to
// permission table used for every authorization decision.
package auth

import "quickbite-api/models"

var rolePermissions = map[models.UserRole][]models.Permission{
	models.RoleCustomer: {models.PermReadFood},
	models.RoleModerator: {
		models.PermReadFood, models.PermUpdateFood, models.PermViewOrders,
	},
	models.RoleAdmin: {
		models.PermReadFood, models.PermCreateFood, models.PermUpdateFood, models.PermDeleteFood,
		models.PermManageUsers, models.PermViewOrders, models.PermManageOrders,
	},
}

// PermissionsFor returns a copy of the permission set granted to role.
// Unknown roles get the customer set.
func PermissionsFor(role models.UserRole) []models.Permission {
	perms, ok := rolePermissions[role]
	if !ok {
		perms = rolePermissions[models.RoleCustomer]
	}
	out := make([]models.Permission, len(perms))
	copy(out, perms)
	return out
}

// RoleHas reports whether role currently grants perm
func RoleHas(role models.UserRole, perm models.Permission) bool {
	for _, p := range rolePermissions[role] {
		if p == perm {
			return true
		}
	}
	return false
}
