package models

// Actor is the authenticated identity every domain operation runs as.
type Actor struct {
	Login string   `json:"login"`
	Name  string   `json:"nome"`
	Role  UserRole `json:"tipo"`
	Unit  *string  `json:"unidade"`
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// UnitName returns the actor's unit, or "" for unit-less admins.
func (a Actor) UnitName() string {
	if a.Unit == nil {
		return ""
	}
	return *a.Unit
}

// CanAccessUnit reports whether the actor may see and change records of unit.
func (a Actor) CanAccessUnit(unit string) bool {
	if a.IsAdmin() {
		return true
	}
	return a.Unit != nil && *a.Unit != "" && *a.Unit == unit
}
