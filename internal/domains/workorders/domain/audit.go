package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditEntry is the immutable record of one executed state command.
type AuditEntry struct {
	ID                   uuid.UUID       `json:"id"`
	WorkOrderID          uuid.UUID       `json:"workOrderId"`
	Sequence             int             `json:"sequence"`
	EmployeeID           uuid.UUID       `json:"employeeId"`
	ArchivedEmployeeName string          `json:"archivedEmployeeName"`
	Date                 time.Time       `json:"date"`
	BeginStatus          WorkOrderStatus `json:"beginStatus"`
	EndStatus            WorkOrderStatus `json:"endStatus"`
	Action               string          `json:"action,omitempty"`
}

// NewAuditEntry snapshots the acting employee's display name so the entry survives renames.
func NewAuditEntry(workOrderID uuid.UUID, sequence int, employee *Employee, at time.Time, begin, end WorkOrderStatus, action string) AuditEntry {
	entry := AuditEntry{
		ID:          uuid.New(),
		WorkOrderID: workOrderID,
		Sequence:    sequence,
		Date:        at,
		BeginStatus: begin,
		EndStatus:   end,
		Action:      action,
	}
	if employee != nil {
		entry.EmployeeID = employee.ID
		entry.ArchivedEmployeeName = employee.FullName()
	}
	return entry
}

// NextSequence returns max(sequence)+1, or 1 when entries is empty.
func NextSequence(entries []AuditEntry) int {
	max := 0
	for _, e := range entries {
		if e.Sequence > max {
			max = e.Sequence
		}
	}
	return max + 1
}
