package enums

import "fmt"

// OperatorRole scopes what an operator token may do on the management surface.
type OperatorRole string

const (
	OperatorRoleViewer OperatorRole = "viewer"
	OperatorRoleAdmin  OperatorRole = "admin"
)

var validOperatorRoles = []OperatorRole{
	OperatorRoleViewer,
	OperatorRoleAdmin,
}

// String implements fmt.Stringer.
func (r OperatorRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known OperatorRole.
func (r OperatorRole) IsValid() bool {
	for _, candidate := range validOperatorRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// CanWrite reports whether the role may change state: start scheduler cycles
// by hand or review refunds.
func (r OperatorRole) CanWrite() bool {
	return r == OperatorRoleAdmin
}

// ParseOperatorRole converts raw input into an OperatorRole.
func ParseOperatorRole(value string) (OperatorRole, error) {
	for _, candidate := range validOperatorRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid operator role %q", value)
}
