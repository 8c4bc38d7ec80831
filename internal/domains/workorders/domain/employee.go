package domain

import (
	"errors"
	"slices"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrEmptyUserName = errors.New("employee user name is required")
)

// Role grants capabilities within the work order lifecycle.
type Role string

const (
	RoleCreator   Role = "creator"
	RoleFulfiller Role = "fulfiller"
)

// Employee is the acting user for state commands.
type Employee struct {
	ID           uuid.UUID `json:"id"`
	UserName     string    `json:"userName"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	EmailAddress string    `json:"emailAddress"`
	Roles        []Role    `json:"roles,omitempty"`
}

// NewEmployee validates the user name and assigns a fresh id.
func NewEmployee(userName, firstName, lastName, email string, roles ...Role) (*Employee, error) {
	userName = strings.TrimSpace(userName)
	if userName == "" {
		return nil, ErrEmptyUserName
	}
	return &Employee{
		ID:           uuid.New(),
		UserName:     userName,
		FirstName:    strings.TrimSpace(firstName),
		LastName:     strings.TrimSpace(lastName),
		EmailAddress: strings.TrimSpace(email),
		Roles:        append([]Role(nil), roles...),
	}, nil
}

// FullName joins first and last name, falling back to the user name.
func (e *Employee) FullName() string {
	if e == nil {
		return ""
	}
	name := strings.TrimSpace(e.FirstName + " " + e.LastName)
	if name == "" {
		return e.UserName
	}
	return name
}

// Is reports whether both values refer to the same employee.
func (e *Employee) Is(other *Employee) bool {
	if e == nil || other == nil {
		return false
	}
	if e.ID != uuid.Nil && other.ID != uuid.Nil {
		return e.ID == other.ID
	}
	return e.UserName != "" && strings.EqualFold(e.UserName, other.UserName)
}

func (e *Employee) HasRole(role Role) bool {
	return e != nil && slices.Contains(e.Roles, role)
}

func (e *Employee) CanCreateWorkOrders() bool { return e.HasRole(RoleCreator) }

func (e *Employee) CanFulfillWorkOrders() bool { return e.HasRole(RoleFulfiller) }

func (e *Employee) clone() *Employee {
	if e == nil {
		return nil
	}
	c := *e
	c.Roles = append([]Role(nil), e.Roles...)
	return &c
}
