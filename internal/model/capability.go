package model

// Roleable is anything that can answer "does it hold this role".
type Roleable interface {
	HasRole(name string) bool
}

// Securable exposes the authentication state the access gate inspects.
type Securable interface {
	IsAuthenticated() bool
	IsActive() bool
}

// RoleSet is the set of roles assigned to a user.
type RoleSet []Role

func (rs RoleSet) HasRole(name string) bool {
	for _, r := range rs {
		if r.Name == name {
			return true
		}
	}
	return false
}

func (rs RoleSet) Names() []string {
	names := make([]string, len(rs))
	for i, r := range rs {
		names[i] = r.Name
	}
	return names
}

func (rs RoleSet) IDs() []int64 {
	ids := make([]int64, len(rs))
	for i, r := range rs {
		ids[i] = r.ID
	}
	return ids
}
