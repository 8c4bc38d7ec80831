package memory

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"

	"github.com/Apurer/workorder-dispatch/internal/domains/workorders/domain"
	"github.com/Apurer/workorder-dispatch/internal/domains/workorders/ports"
)

var _ ports.EmployeeDirectory = (*EmployeeDirectory)(nil)

// EmployeeDirectory keeps employees keyed by case-insensitive user name.
type EmployeeDirectory struct {
	mu        sync.RWMutex
	employees map[string]domain.Employee
}

func NewEmployeeDirectory(seed ...*domain.Employee) *EmployeeDirectory {
	d := &EmployeeDirectory{employees: map[string]domain.Employee{}}
	for _, e := range seed {
		_ = d.Save(context.Background(), e)
	}
	return d
}

func (d *EmployeeDirectory) GetByUserName(_ context.Context, userName string) (*domain.Employee, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	e, ok := d.employees[strings.ToLower(userName)]
	if !ok {
		return nil, ports.ErrEmployeeNotFound
	}
	return copyEmployee(e), nil
}

// List returns employees ordered by user name.
func (d *EmployeeDirectory) List(_ context.Context) ([]*domain.Employee, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]*domain.Employee, 0, len(d.employees))
	for _, e := range d.employees {
		out = append(out, copyEmployee(e))
	}
	slices.SortFunc(out, func(a, b *domain.Employee) int { return strings.Compare(a.UserName, b.UserName) })
	return out, nil
}

func (d *EmployeeDirectory) Save(_ context.Context, employee *domain.Employee) error {
	if employee == nil {
		return errors.New("employee is nil")
	}
	if strings.TrimSpace(employee.UserName) == "" {
		return domain.ErrEmptyUserName
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.employees[strings.ToLower(employee.UserName)] = *copyEmployee(*employee)
	return nil
}

func copyEmployee(e domain.Employee) *domain.Employee {
	e.Roles = append([]domain.Role(nil), e.Roles...)
	return &e
}
