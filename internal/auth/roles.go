// Package auth resolves credentials to roles and gates mutating actions.
//
// Role checks here are a convenience for the UI and API. They do not replace
// access control enforced by the database or a fronting proxy.
package auth

import "cafeledger/internal/core"

type Role string

const (
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
	RoleUser      Role = "user"
)

type Action string

const (
	ActionCreateTransaction Action = "create_transaction"
	ActionAddNote           Action = "add_note"
	ActionAddRecurring      Action = "add_recurring"
	ActionDelete            Action = "delete"
	ActionClearAll          Action = "clear_all"
)

var permissions = map[Role]map[Action]bool{
	RoleAdmin: {
		ActionCreateTransaction: true,
		ActionAddNote:           true,
		ActionAddRecurring:      true,
		ActionDelete:            true,
		ActionClearAll:          true,
	},
	RoleModerator: {
		ActionCreateTransaction: true,
		ActionAddNote:           true,
		ActionAddRecurring:      true,
	},
	RoleUser: {
		ActionCreateTransaction: true,
	},
}

// ParseRole returns the role named s, or false for unknown names.
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	_, ok := permissions[r]
	return r, ok
}

// Can reports whether role may perform action.
func Can(role Role, action Action) bool {
	return permissions[role][action]
}

// Permissions lists what role may do, for the session endpoint.
func Permissions(role Role) map[Action]bool {
	out := map[Action]bool{}
	for _, a := range []Action{ActionCreateTransaction, ActionAddNote, ActionAddRecurring, ActionDelete, ActionClearAll} {
		out[a] = Can(role, a)
	}
	return out
}

// Authorize returns core.ErrUnauthenticated without an identity and
// core.ErrForbidden when the identity's role lacks action.
func Authorize(id *Identity, action Action) error {
	if id == nil || id.Role == "" {
		return core.ErrUnauthenticated
	}
	if !Can(id.Role, action) {
		return core.ErrForbidden
	}
	return nil
}
