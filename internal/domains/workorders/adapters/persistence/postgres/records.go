package postgres

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/Apurer/workorder-dispatch/internal/domains/workorders/domain"
)

// workOrderRecord maps the aggregate row. Audit entries live in their own table.
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

// auditEntryRecord rows are insert-only; the unique index rejects a second
// entry with the same sequence for a work order.
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

func toWorkOrderRecord(order *domain.WorkOrder) workOrderRecord {
	rec := workOrderRecord{
		ID:            order.ID,
		Number:        order.Number,
		Title:         order.Title,
		Description:   order.Description,
		RoomNumber:    order.RoomNumber,
		Status:        order.Status.Code(),
		CreatedDate:   order.CreatedDate,
		AssignedDate:  order.AssignedDate,
		CompletedDate: order.CompletedDate,
	}
	if order.Creator != nil {
		rec.CreatorID = order.Creator.ID
	}
	if order.Assignee != nil {
		id := order.Assignee.ID
		rec.AssigneeID = &id
	}
	return rec
}

// toDomain resolves employees from people, keyed by id.
func (r workOrderRecord) toDomain(people map[uuid.UUID]*domain.Employee, entries []auditEntryRecord) (*domain.WorkOrder, error) {
	status, err := domain.StatusFromCode(r.Status)
	if err != nil {
		return nil, err
	}
	order := &domain.WorkOrder{
		ID:            r.ID,
		Number:        r.Number,
		Title:         r.Title,
		Description:   r.Description,
		RoomNumber:    r.RoomNumber,
		Status:        status,
		Creator:       people[r.CreatorID],
		CreatedDate:   r.CreatedDate.UTC(),
		AssignedDate:  utcPtr(r.AssignedDate),
		CompletedDate: utcPtr(r.CompletedDate),
	}
	if r.AssigneeID != nil {
		order.Assignee = people[*r.AssigneeID]
	}
	for _, e := range entries {
		entry, err := e.toDomain()
		if err != nil {
			return nil, err
		}
		order.AuditEntries = append(order.AuditEntries, entry)
	}
	return order, nil
}

func toAuditEntryRecord(entry domain.AuditEntry) auditEntryRecord {
	return auditEntryRecord{
		ID:                   entry.ID,
		WorkOrderID:          entry.WorkOrderID,
		Sequence:             entry.Sequence,
		EmployeeID:           entry.EmployeeID,
		ArchivedEmployeeName: entry.ArchivedEmployeeName,
		Date:                 entry.Date,
		BeginStatus:          entry.BeginStatus.Code(),
		EndStatus:            entry.EndStatus.Code(),
		Action:               entry.Action,
	}
}

func (r auditEntryRecord) toDomain() (domain.AuditEntry, error) {
	begin, err := domain.StatusFromCode(r.BeginStatus)
	if err != nil {
		return domain.AuditEntry{}, err
	}
	end, err := domain.StatusFromCode(r.EndStatus)
	if err != nil {
		return domain.AuditEntry{}, err
	}
	return domain.AuditEntry{
		ID:                   r.ID,
		WorkOrderID:          r.WorkOrderID,
		Sequence:             r.Sequence,
		EmployeeID:           r.EmployeeID,
		ArchivedEmployeeName: r.ArchivedEmployeeName,
		Date:                 r.Date.UTC(),
		BeginStatus:          begin,
		EndStatus:            end,
		Action:               r.Action,
	}, nil
}

func toEmployeeRecord(e *domain.Employee) employeeRecord {
	roles := make(pq.StringArray, 0, len(e.Roles))
	for _, role := range e.Roles {
		roles = append(roles, string(role))
	}
	return employeeRecord{
		ID:           e.ID,
		UserName:     e.UserName,
		FirstName:    e.FirstName,
		LastName:     e.LastName,
		EmailAddress: e.EmailAddress,
		Roles:        roles,
	}
}

func (r employeeRecord) toDomain() *domain.Employee {
	var roles []domain.Role
	for _, role := range r.Roles {
		roles = append(roles, domain.Role(role))
	}
	return &domain.Employee{
		ID:           r.ID,
		UserName:     r.UserName,
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		EmailAddress: r.EmailAddress,
		Roles:        roles,
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
