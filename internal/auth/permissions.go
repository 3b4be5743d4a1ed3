package auth

import "eva_harper_backend/internal/models"

// Разрешения по ролям
const (
	PermWaitlistRead    = "waitlist:read"
	PermWaitlistApprove = "waitlist:approve"
	PermWaitlistImport  = "waitlist:import"
	PermFashionUse      = "fashion:use"
	PermCreditsBuy      = "credits:buy"
)

var Permissions = map[models.UserRole][]string{
	models.UserRoleAdmin: {
		PermWaitlistRead,
		PermWaitlistApprove,
		PermWaitlistImport,
		PermFashionUse,
		PermCreditsBuy,
	},
	models.UserRoleUser: {
		PermFashionUse,
		PermCreditsBuy,
	},
}

// HasPermission проверяет есть ли у роли указанное разрешение
func HasPermission(role models.UserRole, permission string) bool {
	for _, p := range Permissions[role] {
		if p == permission {
			return true
		}
	}
	return false
}

// Can проверяет может ли пользователь выполнить действие
func Can(user *models.User, permission string) bool {
	return user != nil && HasPermission(user.Role, permission)
}

// IsAdmin - единственная проверка прав администратора
func IsAdmin(user *models.User) bool {
	return user.IsAdmin()
}
