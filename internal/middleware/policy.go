package middleware

import "github.com/dmgorelik/estore/internal/models"

// Requirement is the static authorization annotation of an endpoint:
// either public (no token parsing at all) or protected, optionally with a
// minimal role set. The router is the single place Requirements are bound
// to routes.
type Requirement struct {
	Public bool
	Roles  []string
}

var (
	Public        = Requirement{Public: true}
	Authenticated = Requirement{}
	AdminOnly     = Requirement{Roles: []string{models.RoleAdmin}}
	StaffOnly     = Requirement{Roles: []string{models.RoleAdmin, models.RoleEmployees}}
)

func (r Requirement) allows(role string) bool {
	if len(r.Roles) == 0 {
		return true
	}
	for _, allowed := range r.Roles {
		if role == allowed {
			return true
		}
	}
	return false
}
