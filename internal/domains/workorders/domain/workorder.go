package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxDescriptionLength bounds the description; longer input is truncated on write.
const MaxDescriptionLength = 4000

var (
	ErrEmptyNumber = errors.New("work order number is required")
	ErrEmptyTitle  = errors.New("work order title is required")
	ErrNilCreator  = errors.New("work order creator is required")
)

// WorkOrder is the aggregate root mutated exclusively by state commands.
type WorkOrder struct {
	ID            uuid.UUID       `json:"id"`
	Number        string          `json:"number"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	RoomNumber    string          `json:"roomNumber,omitempty"`
	Status        WorkOrderStatus `json:"status"`
	Creator       *Employee       `json:"creator"`
	Assignee      *Employee       `json:"assignee,omitempty"`
	CreatedDate   time.Time       `json:"createdDate"`
	AssignedDate  *time.Time      `json:"assignedDate,omitempty"`
	CompletedDate *time.Time      `json:"completedDate,omitempty"`
	AuditEntries  []AuditEntry    `json:"auditEntries,omitempty"`
}

// SetDescription stores the description, truncating it to MaxDescriptionLength runes.
func (w *WorkOrder) SetDescription(description string) {
	runes := []rune(description)
	if len(runes) > MaxDescriptionLength {
		runes = runes[:MaxDescriptionLength]
	}
	w.Description = string(runes)
}

// ChangeStatus moves the aggregate to status. Only state commands call it.
func (w *WorkOrder) ChangeStatus(status WorkOrderStatus) {
	w.Status = status
}

// Assign sets the assignee; a nil employee clears it.
func (w *WorkOrder) Assign(employee *Employee) {
	w.Assignee = employee.clone()
}

// MarkAssigned stamps the assignment date.
func (w *WorkOrder) MarkAssigned(at time.Time) {
	t := at
	w.AssignedDate = &t
}

// MarkCompleted stamps the completion date.
func (w *WorkOrder) MarkCompleted(at time.Time) {
	t := at
	w.CompletedDate = &t
}

// AppendAuditEntry records an executed transition on the aggregate.
func (w *WorkOrder) AppendAuditEntry(entry AuditEntry) {
	w.AuditEntries = append(w.AuditEntries, entry)
}

// IsNew reports whether the aggregate has never been assigned an identity.
func (w *WorkOrder) IsNew() bool {
	return w.ID == uuid.Nil
}

// Clone returns a deep copy suitable for snapshots and repository isolation.
func (w *WorkOrder) Clone() *WorkOrder {
	if w == nil {
		return nil
	}
	c := *w
	c.Creator = w.Creator.clone()
	c.Assignee = w.Assignee.clone()
	if w.AssignedDate != nil {
		t := *w.AssignedDate
		c.AssignedDate = &t
	}
	if w.CompletedDate != nil {
		t := *w.CompletedDate
		c.CompletedDate = &t
	}
	c.AuditEntries = append([]AuditEntry(nil), w.AuditEntries...)
	return &c
}

// Validate re-applies the aggregate invariants before persistence.
func (w *WorkOrder) Validate() error {
	if strings.TrimSpace(w.Number) == "" {
		return ErrEmptyNumber
	}
	if strings.TrimSpace(w.Title) == "" {
		return ErrEmptyTitle
	}
	if w.Creator == nil {
		return ErrNilCreator
	}
	if w.Status.IsNone() {
		return ErrUnknownStatus
	}
	return nil
}

// WorkOrderBuilder creates work orders in Draft.
type WorkOrderBuilder struct {
	number      string
	title       string
	description string
	roomNumber  string
	creator     *Employee
	createdAt   time.Time
}

// NewWorkOrderBuilder starts a draft owned by creator.
func NewWorkOrderBuilder(number string, creator *Employee) *WorkOrderBuilder {
	return &WorkOrderBuilder{number: strings.TrimSpace(number), creator: creator}
}

func (b *WorkOrderBuilder) WithTitle(title string) *WorkOrderBuilder {
	b.title = strings.TrimSpace(title)
	return b
}

func (b *WorkOrderBuilder) WithDescription(description string) *WorkOrderBuilder {
	b.description = description
	return b
}

func (b *WorkOrderBuilder) WithRoomNumber(room string) *WorkOrderBuilder {
	b.roomNumber = strings.TrimSpace(room)
	return b
}

func (b *WorkOrderBuilder) CreatedAt(at time.Time) *WorkOrderBuilder {
	b.createdAt = at
	return b
}

// Build returns a new Draft work order. The id stays nil until first persisted.
func (b *WorkOrderBuilder) Build() (*WorkOrder, error) {
	if b.number == "" {
		return nil, ErrEmptyNumber
	}
	if b.creator == nil {
		return nil, ErrNilCreator
	}
	order := &WorkOrder{
		Number:      b.number,
		Title:       b.title,
		RoomNumber:  b.roomNumber,
		Status:      StatusDraft,
		Creator:     b.creator.clone(),
		CreatedDate: b.createdAt,
	}
	order.SetDescription(b.description)
	return order, nil
}
