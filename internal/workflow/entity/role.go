package entity

import "strings"

// Role is the closed set of workflow roles. Authorization decisions are made
// exclusively against these values, never against free-form strings.
type Role string

const (
	RoleVertrieb    Role = "vertrieb"
	RoleSupplyChain Role = "supply_chain"
	RolePlanung     Role = "planung"
	RoleAdmin       Role = "admin"

	RolePlanungStorkow    Role = "planung_storkow"
	RolePlanungBrenz      Role = "planung_brenz"
	RolePlanungGudensberg Role = "planung_gudensberg"
	RolePlanungVisbek     Role = "planung_visbek"
	RolePlanungDoebeln    Role = "planung_doebeln"
)

var allRoles = map[Role]bool{
	RoleVertrieb:          true,
	RoleSupplyChain:       true,
	RolePlanung:           true,
	RoleAdmin:             true,
	RolePlanungStorkow:    true,
	RolePlanungBrenz:      true,
	RolePlanungGudensberg: true,
	RolePlanungVisbek:     true,
	RolePlanungDoebeln:    true,
}

// ParseRole validates a role string from the identity provider.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	return r, allRoles[r]
}

// IsPlanung reports whether the role belongs to the planning family,
// including the location-scoped variants.
func (r Role) IsPlanung() bool {
	return r == RolePlanung || strings.HasPrefix(string(r), "planung_")
}

// LocationCode returns the location code for a location-scoped planning role
// ("planung_storkow" → "storkow"). ok is false for unscoped roles.
func (r Role) LocationCode() (string, bool) {
	if r == RolePlanung || !strings.HasPrefix(string(r), "planung_") {
		return "", false
	}
	return strings.TrimPrefix(string(r), "planung_"), true
}
