// Package permissions статическая таблица прав ролей.
package permissions

import "github.com/magabrotheeeer/saas-starter/internal/models"

// Ресурсы.
const (
	ResourceUser          = "user"
	ResourceSession       = "session"
	ResourcePendingSignup = "pending-signup"
)

// Действия.
const (
	ActionCreate      = "create"
	ActionList        = "list"
	ActionSetRole     = "set-role"
	ActionBan         = "ban"
	ActionImpersonate = "impersonate"
	ActionDelete      = "delete"
	ActionRevoke      = "revoke"
	ActionCleanup     = "cleanup"
)

// Statements права роли: ресурс -> разрешённые действия.
type Statements map[string][]string

var roles = map[string]Statements{
	models.RoleAdmin: {
		ResourceUser:          {ActionCreate, ActionList, ActionSetRole, ActionBan, ActionImpersonate, ActionDelete},
		ResourceSession:       {ActionList, ActionRevoke, ActionDelete},
		ResourcePendingSignup: {ActionList, ActionDelete, ActionCleanup},
	},
	models.RoleModerator: {
		ResourceUser:    {ActionList, ActionBan},
		ResourceSession: {ActionList},
	},
	models.RoleUser: {},
}

// Can сообщает, разрешено ли роли действие над ресурсом.
func Can(role, resource, action string) bool {
	for _, a := range roles[role][resource] {
		if a == action {
			return true
		}
	}
	return false
}

// For возвращает права роли. Для неизвестной роли возвращает nil.
func For(role string) Statements {
	return roles[role]
}
