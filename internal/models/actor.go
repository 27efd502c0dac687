package models

// Actor is the authenticated caller of an operation. Identity and roles come
// from the verified token; services enforce role checks against it.
type Actor struct {
	ID    string `json:"id"`
	Roles []Role `json:"roles"`
}

func (a Actor) HasRole(role Role) bool {
	for _, r := range a.Roles {
		if r == role || r == RoleAdmin {
			return true
		}
	}
	return false
}

func (a Actor) IsAdmin() bool {
	for _, r := range a.Roles {
		if r == RoleAdmin {
			return true
		}
	}
	return false
}
