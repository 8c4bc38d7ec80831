// Package types holds the bus messages and results of the work order context.
package types

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Apurer/workorder-dispatch/internal/domains/workorders/domain"
	"github.com/Apurer/workorder-dispatch/internal/domains/workorders/domain/commands"
	"github.com/Apurer/workorder-dispatch/internal/platform/bus"
	"github.com/Apurer/workorder-dispatch/internal/platform/envelope"
)

const prefix = commands.TypePrefix

// Outcome classifies how a state command request ended.
type Outcome string

const (
	OutcomeExecuted         Outcome = "Executed"
	OutcomeValidationFailed Outcome = "ValidationFailed"
	OutcomeInvalidCommand   Outcome = "InvalidCommand"
)

// StateCommandResult is returned for every state command request. Declined
// commands are reported here rather than as errors.
type StateCommandResult struct {
	Outcome                    Outcome                    `json:"outcome"`
	CommandName                string                     `json:"commandName"`
	WorkOrder                  *domain.WorkOrder          `json:"workOrder,omitempty"`
	TransitionVerbPresentTense string                     `json:"transitionVerbPresentTense,omitempty"`
	Message                    string                     `json:"message,omitempty"`
	ValidationErrors           []commands.ValidationError `json:"validationErrors,omitempty"`
}

func (r *StateCommandResult) Succeeded() bool {
	return r != nil && r.Outcome == OutcomeExecuted
}

// ExecuteCommandByNameRequest runs a command identified only by its name.
type ExecuteCommandByNameRequest struct {
	bus.RemotableMessage
	CommandName     string `json:"commandName"`
	WorkOrderNumber string `json:"workOrderNumber"`
	UserName        string `json:"userName"`
	// Assignee is applied before the command runs when non-empty.
	AssigneeUserName string `json:"assigneeUserName,omitempty"`
}

func (*ExecuteCommandByNameRequest) RequestType() string { return prefix + "ExecuteCommandByName" }

// CreateWorkOrderRequest drafts a new work order and saves it.
type CreateWorkOrderRequest struct {
	bus.RemotableMessage
	CreatorUserName string `json:"creatorUserName"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	RoomNumber      string `json:"roomNumber,omitempty"`
}

func (*CreateWorkOrderRequest) RequestType() string { return prefix + "CreateWorkOrder" }

type WorkOrderByNumberQuery struct {
	bus.RemotableMessage
	Number string `json:"number"`
}

func (*WorkOrderByNumberQuery) RequestType() string { return prefix + "WorkOrderByNumber" }

// WorkOrderLookup reports a missing work order with Found=false instead of a nil result.
type WorkOrderLookup struct {
	Found     bool              `json:"found"`
	WorkOrder *domain.WorkOrder `json:"workOrder,omitempty"`
}

type WorkOrderSearchQuery struct {
	bus.RemotableMessage
	Statuses         []domain.WorkOrderStatus `json:"statuses,omitempty"`
	CreatorUserName  string                   `json:"creatorUserName,omitempty"`
	AssigneeUserName string                   `json:"assigneeUserName,omitempty"`
	Limit            int                      `json:"limit,omitempty"`
}

func (*WorkOrderSearchQuery) RequestType() string { return prefix + "WorkOrderSearch" }

type WorkOrderList struct {
	Items []*domain.WorkOrder `json:"items"`
}

// ValidCommandsQuery asks which commands the user may run on a work order.
type ValidCommandsQuery struct {
	bus.RemotableMessage
	WorkOrderNumber string `json:"workOrderNumber"`
	UserName        string `json:"userName"`
}

func (*ValidCommandsQuery) RequestType() string { return prefix + "ValidCommands" }

type CommandMenuItem struct {
	Name                       string                 `json:"name"`
	TransitionVerbPresentTense string                 `json:"transitionVerbPresentTense"`
	EndStatus                  domain.WorkOrderStatus `json:"endStatus"`
}

// CommandMenu lists valid commands in registry order.
type CommandMenu struct {
	WorkOrderNumber string            `json:"workOrderNumber"`
	Commands        []CommandMenuItem `json:"commands"`
}

type EmployeeByUserNameQuery struct {
	bus.RemotableMessage
	UserName string `json:"userName"`
}

func (*EmployeeByUserNameQuery) RequestType() string { return prefix + "EmployeeByUserName" }

type EmployeeLookup struct {
	Found    bool             `json:"found"`
	Employee *domain.Employee `json:"employee,omitempty"`
}

type EmployeeListQuery struct {
	bus.RemotableMessage
}

func (*EmployeeListQuery) RequestType() string { return prefix + "EmployeeList" }

type EmployeeList struct {
	Items []*domain.Employee `json:"items"`
}

// WorkOrderTransitioned is published after a transition commits.
type WorkOrderTransitioned struct {
	bus.RemotableMessage
	WorkOrderID uuid.UUID              `json:"workOrderId"`
	Number      string                 `json:"number"`
	CommandName string                 `json:"commandName"`
	BeginStatus domain.WorkOrderStatus `json:"beginStatus"`
	EndStatus   domain.WorkOrderStatus `json:"endStatus"`
	Sequence    int                    `json:"sequence"`
	UserName    string                 `json:"userName"`
	At          time.Time              `json:"at"`
}

func (*WorkOrderTransitioned) NotificationType() string { return prefix + "WorkOrderTransitioned" }

// WorkOrderNumberIssued stays in the issuing process.
type WorkOrderNumberIssued struct {
	Number string `json:"number"`
}

func (*WorkOrderNumberIssued) NotificationType() string { return prefix + "WorkOrderNumberIssued" }

// Register adds the state commands and every remotable message and result to the catalog.
func Register(c *envelope.Catalog) error {
	return errors.Join(
		commands.Register(c),
		envelope.Register[*StateCommandResult](c, prefix+"StateCommandResult"),
		envelope.Register[*ExecuteCommandByNameRequest](c, prefix+"ExecuteCommandByName"),
		envelope.Register[*CreateWorkOrderRequest](c, prefix+"CreateWorkOrder"),
		envelope.Register[*WorkOrderByNumberQuery](c, prefix+"WorkOrderByNumber"),
		envelope.Register[*WorkOrderLookup](c, prefix+"WorkOrderLookup"),
		envelope.Register[*WorkOrderSearchQuery](c, prefix+"WorkOrderSearch"),
		envelope.Register[*WorkOrderList](c, prefix+"WorkOrderList"),
		envelope.Register[*ValidCommandsQuery](c, prefix+"ValidCommands"),
		envelope.Register[*CommandMenu](c, prefix+"CommandMenu"),
		envelope.Register[*EmployeeByUserNameQuery](c, prefix+"EmployeeByUserName"),
		envelope.Register[*EmployeeLookup](c, prefix+"EmployeeLookup"),
		envelope.Register[*EmployeeListQuery](c, prefix+"EmployeeList"),
		envelope.Register[*EmployeeList](c, prefix+"EmployeeListResult"),
		envelope.Register[*WorkOrderTransitioned](c, prefix+"WorkOrderTransitioned"),
	)
}
