// Package policy is the pure authorization mapping: (operation, role) ->
// allow/deny over the closed role set. It never touches storage or tokens.
package policy

import (
	"fmt"

	"github.com/festiva/festiva/internal/apperr"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleOrganizer Role = "organizer"
	RoleAdmin     Role = "admin"
)

// ParseRole validates an inbound role string against the closed set. The
// empty string maps to RoleUser, matching the registration default.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case "":
		return RoleUser, nil
	case RoleUser, RoleOrganizer, RoleAdmin:
		return Role(s), nil
	default:
		return "", fmt.Errorf("%w: unknown role %q", apperr.ErrValidation, s)
	}
}

type Operation string

const (
	OpEventRead   Operation = "event.read"
	OpEventCreate Operation = "event.create"
	OpEventUpdate Operation = "event.update"
	OpEventDelete Operation = "event.delete"
	OpOrderPlace  Operation = "order.place"
)

// Allows reports whether role may execute op. Reads are open to everyone,
// catalog mutation is restricted to organizer and admin, placing an order
// needs any authenticated role.
func Allows(op Operation, role Role) bool {
	switch op {
	case OpEventRead:
		return true
	case OpEventCreate, OpEventUpdate, OpEventDelete:
		return role == RoleOrganizer || role == RoleAdmin
	case OpOrderPlace:
		return role == RoleUser || role == RoleOrganizer || role == RoleAdmin
	default:
		return false
	}
}
