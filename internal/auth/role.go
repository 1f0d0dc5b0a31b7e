package auth

import "strings"

// Role is the closed set of account roles.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// rank orders roles by capability. Unknown roles rank zero and satisfy no
// policy.
func (r Role) rank() int {
	switch r {
	case RoleUser:
		return 1
	case RoleAdmin:
		return 2
	}
	return 0
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool { return r.rank() > 0 }

func (r Role) String() string { return string(r) }

// ParseRole maps s to a Role. The empty string yields RoleUser.
func ParseRole(s string) (Role, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return RoleUser, true
	}
	r := Role(s)
	return r, r.Valid()
}

// Policy is an access level required by a route.
type Policy int

const (
	// PolicyAuthenticated admits any verified identity.
	PolicyAuthenticated Policy = iota + 1
	// PolicyUserOrAdmin admits the user and admin roles. With only two
	// roles it admits the same callers as PolicyAuthenticated.
	PolicyUserOrAdmin
	// PolicyAdminOnly admits admins.
	PolicyAdminOnly
)

// minRank is the lowest role rank each policy accepts.
var minRank = map[Policy]int{
	PolicyAuthenticated: RoleUser.rank(),
	PolicyUserOrAdmin:   RoleUser.rank(),
	PolicyAdminOnly:     RoleAdmin.rank(),
}

// Satisfies reports whether r is allowed under p.
func (r Role) Satisfies(p Policy) bool {
	need, ok := minRank[p]
	return ok && r.rank() >= need
}

func (p Policy) String() string {
	switch p {
	case PolicyAuthenticated:
		return "authenticated"
	case PolicyUserOrAdmin:
		return "user-or-admin"
	case PolicyAdminOnly:
		return "admin-only"
	}
	return "unknown"
}
