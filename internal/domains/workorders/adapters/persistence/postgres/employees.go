package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/workorder-dispatch/internal/domains/workorders/domain"
	"github.com/Apurer/workorder-dispatch/internal/domains/workorders/ports"
)

var _ ports.EmployeeDirectory = (*EmployeeDirectory)(nil)

// EmployeeDirectory reads and upserts employees in PostgreSQL.
type EmployeeDirectory struct {
	db *gorm.DB
}

func NewEmployeeDirectory(db *gorm.DB) *EmployeeDirectory {
	return &EmployeeDirectory{db: db}
}

func (d *EmployeeDirectory) GetByUserName(ctx context.Context, userName string) (*domain.Employee, error) {
	if err := d.ensureDB(); err != nil {
		return nil, err
	}
	var record employeeRecord
	if err := d.db.WithContext(ctx).First(&record, "LOWER(user_name) = LOWER(?)", userName).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrEmployeeNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

func (d *EmployeeDirectory) List(ctx context.Context) ([]*domain.Employee, error) {
	if err := d.ensureDB(); err != nil {
		return nil, err
	}
	var records []employeeRecord
	if err := d.db.WithContext(ctx).Order("user_name").Find(&records).Error; err != nil {
		return nil, err
	}
	out := make([]*domain.Employee, 0, len(records))
	for _, r := range records {
		out = append(out, r.toDomain())
	}
	return out, nil
}

// Save inserts or updates the employee keyed by user name.
func (d *EmployeeDirectory) Save(ctx context.Context, employee *domain.Employee) error {
	if err := d.ensureDB(); err != nil {
		return err
	}
	if employee == nil {
		return errors.New("employee is nil")
	}
	if employee.UserName == "" {
		return domain.ErrEmptyUserName
	}
	record := toEmployeeRecord(employee)
	return d.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_name"}},
		DoUpdates: clause.Assignments(map[string]any{
			"first_name":    record.FirstName,
			"last_name":     record.LastName,
			"email_address": record.EmailAddress,
			"roles":         record.Roles,
			"updated_at":    gorm.Expr("NOW()"),
		}),
	}).Create(&record).Error
}

func (d *EmployeeDirectory) ensureDB() error {
	if d == nil || d.db == nil {
		return errors.New("postgres employee directory not configured")
	}
	return nil
}
