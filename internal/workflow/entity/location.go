package entity

import "strings"

// Location is one of the five manufacturing sites (Standorte). Distribution
// maps are keyed by human-entered spellings, so every site carries the
// spellings observed in production data and matching always checks all of
// them before concluding "no match".
type Location struct {
	Code    string   `json:"code"`
	Name    string   `json:"name"`
	Aliases []string `json:"aliases"`
}

var Locations = []Location{
	{Code: "storkow", Name: "Storkow", Aliases: []string{"Storkow", "storkow", "Storkow (Mark)", "Werk Storkow"}},
	{Code: "brenz", Name: "Brenz", Aliases: []string{"Brenz", "brenz", "Werk Brenz"}},
	{Code: "gudensberg", Name: "Gudensberg", Aliases: []string{"Gudensberg", "gudensberg", "Werk Gudensberg"}},
	{Code: "visbek", Name: "Visbek", Aliases: []string{"Visbek", "visbek", "Werk Visbek"}},
	{Code: "doebeln", Name: "Döbeln", Aliases: []string{"Döbeln", "Doebeln", "doebeln", "döbeln", "Werk Döbeln"}},
}

// LocationByCode looks up a site by its canonical code.
func LocationByCode(code string) (Location, bool) {
	code = strings.ToLower(strings.TrimSpace(code))
	for _, loc := range Locations {
		if loc.Code == code {
			return loc, true
		}
	}
	return Location{}, false
}

// ResolveLocation maps a human-entered spelling to a site.
func ResolveLocation(name string) (Location, bool) {
	for _, loc := range Locations {
		if loc.Matches(name) {
			return loc, true
		}
	}
	return Location{}, false
}

// Matches reports whether the given spelling refers to this site.
// Comparison is case-insensitive across all known aliases.
func (l Location) Matches(name string) bool {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == l.Code {
		return true
	}
	for _, alias := range l.Aliases {
		if strings.ToLower(alias) == name {
			return true
		}
	}
	return false
}

// Quantity sums the distribution shares that resolve to this site.
func (l Location) Quantity(dist Verteilung) float64 {
	var total float64
	for name, qty := range dist {
		if l.Matches(name) {
			total += qty
		}
	}
	return total
}
