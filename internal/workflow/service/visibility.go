package service

import (
	"github.com/Lennart897/ProPlan-sub001/internal/workflow/entity"
)

// Visible reports whether an actor with the given role may see a project in
// their working list. Archived projects live in a separate partition and are
// never part of a working list.
func Visible(role entity.Role, p *entity.Project) bool {
	if p.Archived {
		return false
	}

	switch role {
	case entity.RoleAdmin, entity.RoleVertrieb:
		// Vertrieb is the global monitor role.
		return true
	case entity.RoleSupplyChain:
		return p.Status == entity.StatusPruefungSupplyChain
	case entity.RolePlanung:
		return p.Status == entity.StatusPruefungPlanung
	}

	if code, ok := role.LocationCode(); ok {
		// The location scope only applies during the planning review stage.
		if p.Status != entity.StatusPruefungPlanung {
			return true
		}
		loc, ok := entity.LocationByCode(code)
		if !ok {
			return false
		}
		return loc.Quantity(p.Distribution) > 0
	}

	return false
}

// workingStatuses returns the status partition a role works in, or nil when
// the role sees every status. Used to narrow the SQL query before the
// per-project predicate runs.
func workingStatuses(role entity.Role) []int {
	switch role {
	case entity.RoleAdmin, entity.RoleVertrieb:
		return nil
	case entity.RoleSupplyChain:
		return []int{entity.StatusPruefungSupplyChain}
	case entity.RolePlanung:
		return []int{entity.StatusPruefungPlanung}
	}
	if _, ok := role.LocationCode(); ok {
		// Location scoping restricts only the planning stage; every other
		// status passes through, so no SQL narrowing is possible here.
		return nil
	}
	return []int{}
}
