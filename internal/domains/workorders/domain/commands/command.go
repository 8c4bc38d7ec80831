// Package commands defines the fixed family of work order transitions.
//
// Every command is a bus request that can cross the remote boundary. A command
// declares the status it starts from, the status it ends in, who may run it, and
// the mutation it applies. Commands never read the clock; the caller passes the
// current instant through ExecutionContext.
package commands

import (
	"time"

	"github.com/Apurer/workorder-dispatch/internal/domains/workorders/domain"
	"github.com/Apurer/workorder-dispatch/internal/platform/bus"
)

// StateCommand is one legal transition of a work order.
type StateCommand interface {
	bus.Request
	Name() string
	WorkOrder() *domain.WorkOrder
	CurrentUser() *domain.Employee
	BeginStatus() domain.WorkOrderStatus
	EndStatus() domain.WorkOrderStatus
	TransitionVerbPresentTense() string
	TransitionVerbPastTense() string
	// IsValid reports whether the work order is in BeginStatus and the
	// current user is allowed to run the command.
	IsValid() bool
	// Validate returns field-level problems regardless of status.
	Validate() []ValidationError
	// Execute mutates the work order. Callers check IsValid first.
	Execute(ctx ExecutionContext)
}

// ExecutionContext carries caller-supplied values into Execute.
type ExecutionContext struct {
	CurrentDateTime time.Time
}

// stateCommandBase holds the payload shared by every command. Its fields are
// promoted into each command's JSON body.
type stateCommandBase struct {
	Order *domain.WorkOrder `json:"workOrder"`
	User  *domain.Employee  `json:"currentUser"`
}

func (b *stateCommandBase) WorkOrder() *domain.WorkOrder { return b.Order }

func (b *stateCommandBase) CurrentUser() *domain.Employee { return b.User }

func (b *stateCommandBase) inStatus(status domain.WorkOrderStatus) bool {
	return b.Order != nil && b.Order.Status.Equals(status)
}

func (b *stateCommandBase) userIsCreator() bool {
	return b.Order != nil && b.User.Is(b.Order.Creator)
}

func (b *stateCommandBase) userIsAssignee() bool {
	return b.Order != nil && b.User.Is(b.Order.Assignee)
}

func (b *stateCommandBase) moveTo(status domain.WorkOrderStatus) {
	b.Order.ChangeStatus(status)
}

func requestType(name string) string {
	return TypePrefix + name
}
