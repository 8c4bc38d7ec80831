package api

import (
	"context"
	"errors"

	"github.com/Apurer/workorder-dispatch/internal/domains/workorders/domain"
	"github.com/Apurer/workorder-dispatch/internal/domains/workorders/ports"
)

type seedEmployee struct {
	userName, firstName, lastName, email string
	roles                                []domain.Role
}

var demoEmployees = []seedEmployee{
	{"jpalermo", "Jeffrey", "Palermo", "jeffrey@example.com", []domain.Role{domain.RoleCreator, domain.RoleFulfiller}},
	{"hsimpson", "Homer", "Simpson", "homer@example.com", []domain.Role{domain.RoleFulfiller}},
	{"tlovejoy", "Timothy", "Lovejoy", "timothy@example.com", []domain.Role{domain.RoleCreator}},
}

// SeedEmployees adds the demo employees that are not in the directory yet.
func SeedEmployees(ctx context.Context, dir ports.EmployeeDirectory) error {
	for _, s := range demoEmployees {
		_, err := dir.GetByUserName(ctx, s.userName)
		if err == nil {
			continue
		}
		if !errors.Is(err, ports.ErrEmployeeNotFound) {
			return err
		}
		employee, err := domain.NewEmployee(s.userName, s.firstName, s.lastName, s.email, s.roles...)
		if err != nil {
			return err
		}
		if err := dir.Save(ctx, employee); err != nil {
			return err
		}
	}
	return nil
}
