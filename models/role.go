package models

import "fmt"

type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
)

// ParseRole maps the wire value onto the closed set of roles. An empty string
// yields the default role.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case "":
		return RoleStudent, nil
	case RoleStudent:
		return RoleStudent, nil
	case RoleTeacher:
		return RoleTeacher, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleTeacher:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }
