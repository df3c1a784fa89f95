package game

import "github.com/mcoot/clickpot/internal/model"

// HasUnlimitedActions is the single check for whether clicks are free of
// budget: an admin or superuser role, or a purchased unlimited grant.
// It says nothing about whether the session may act at all.
func HasUnlimitedActions(role model.Role, grant bool) bool {
	return role.UnlimitedRole() || grant
}
