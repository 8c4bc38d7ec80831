package migrations

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// WorkOrderNumberSequence issues the numeric part of work order numbers.
const WorkOrderNumberSequence = "work_order_number_seq"

// Run applies the schema for the work order context. Intended to replace adapter-level automigrate.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	if err := db.AutoMigrate(
		&employeeRecord{},
		&workOrderRecord{},
		&auditEntryRecord{},
	); err != nil {
		return err
	}
	return db.Exec("CREATE SEQUENCE IF NOT EXISTS " + WorkOrderNumberSequence + " START WITH 1").Error
}

// Employee schema mirrors the workorders Postgres employee directory.
type employeeRecord struct {
	ID           uuid.UUID      `gorm:"primaryKey;column:id;type:uuid"`
	UserName     string         `gorm:"column:user_name;size:128;uniqueIndex"`
	FirstName    string         `gorm:"column:first_name;size:128"`
	LastName     string         `gorm:"column:last_name;size:128"`
	EmailAddress string         `gorm:"column:email_address;size:256"`
	Roles        pq.StringArray `gorm:"column:roles;type:text[]"`
	CreatedAt    time.Time      `gorm:"column:created_at"`
	UpdatedAt    time.Time      `gorm:"column:updated_at"`
}

func (employeeRecord) TableName() string { return "employees" }

// Work order schema mirrors the workorders Postgres repository.
type workOrderRecord struct {
	ID            uuid.UUID  `gorm:"primaryKey;column:id;type:uuid"`
	Number        string     `gorm:"column:number;size:32;uniqueIndex"`
	Title         string     `gorm:"column:title;size:256"`
	Description   string     `gorm:"column:description;type:text"`
	RoomNumber    string     `gorm:"column:room_number;size:64"`
	Status        string     `gorm:"column:status;type:varchar(3);index"`
	CreatorID     uuid.UUID  `gorm:"column:creator_id;type:uuid;index"`
	AssigneeID    *uuid.UUID `gorm:"column:assignee_id;type:uuid;index"`
	CreatedDate   time.Time  `gorm:"column:created_date"`
	AssignedDate  *time.Time `gorm:"column:assigned_date"`
	CompletedDate *time.Time `gorm:"column:completed_date"`
	CreatedAt     time.Time  `gorm:"column:created_at"`
	UpdatedAt     time.Time  `gorm:"column:updated_at"`
}

func (workOrderRecord) TableName() string { return "work_orders" }

// Audit entries are insert-only. One row per (work order, sequence).
type auditEntryRecord struct {
	ID                   uuid.UUID `gorm:"primaryKey;column:id;type:uuid"`
	WorkOrderID          uuid.UUID `gorm:"column:work_order_id;type:uuid;uniqueIndex:idx_audit_entries_order_sequence"`
	Sequence             int       `gorm:"column:sequence;uniqueIndex:idx_audit_entries_order_sequence"`
	EmployeeID           uuid.UUID `gorm:"column:employee_id;type:uuid"`
	ArchivedEmployeeName string    `gorm:"column:archived_employee_name;size:256"`
	Date                 time.Time `gorm:"column:date"`
	BeginStatus          string    `gorm:"column:begin_status;type:varchar(3)"`
	EndStatus            string    `gorm:"column:end_status;type:varchar(3)"`
	Action               string    `gorm:"column:action;size:64"`
}

func (auditEntryRecord) TableName() string { return "audit_entries" }
