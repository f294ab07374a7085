package enums

// Role is the permission level of an authenticated user.
type Role string

const (
	RoleOwner Role = "OWNER"
	RoleStaff Role = "STAFF"
)

var validRoles = []Role{RoleOwner, RoleStaff}

func (r Role) String() string {
	return string(r)
}

func (r Role) IsValid() bool {
	return contains(validRoles, r)
}

func ParseRole(value string) (Role, error) {
	return parse(validRoles, value, "role")
}
