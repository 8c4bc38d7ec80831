package commands

import (
	"github.com/Apurer/workorder-dispatch/internal/domains/workorders/domain"
	"github.com/Apurer/workorder-dispatch/internal/platform/bus"
)

// TypePrefix namespaces command tags in the envelope catalog.
const TypePrefix = "workorders."

const (
	NameSaveDraft             = "SaveDraft"
	NameDraftToAssigned       = "DraftToAssigned"
	NameAssignedToInProgress  = "AssignedToInProgress"
	NameAssignedToCancelled   = "AssignedToCancelled"
	NameInProgressToComplete  = "InProgressToComplete"
	NameInProgressToAssigned  = "InProgressToAssigned"
	NameInProgressToCancelled = "InProgressToCancelled"
)

// SaveDraft keeps a Draft work order in Draft and stamps its creation date.
type SaveDraft struct {
	bus.RemotableMessage
	stateCommandBase
}

func NewSaveDraft(order *domain.WorkOrder, user *domain.Employee) *SaveDraft {
	return &SaveDraft{stateCommandBase: stateCommandBase{Order: order, User: user}}
}

func (*SaveDraft) RequestType() string                 { return requestType(NameSaveDraft) }
func (*SaveDraft) Name() string                        { return NameSaveDraft }
func (*SaveDraft) BeginStatus() domain.WorkOrderStatus { return domain.StatusDraft }
func (*SaveDraft) EndStatus() domain.WorkOrderStatus   { return domain.StatusDraft }
func (*SaveDraft) TransitionVerbPresentTense() string  { return "Save" }
func (*SaveDraft) TransitionVerbPastTense() string     { return "Saved" }
func (c *SaveDraft) Validate() []ValidationError       { return validateDraft(c.Order) }
func (c *SaveDraft) IsValid() bool                     { return c.inStatus(domain.StatusDraft) && c.userIsCreator() }

func (c *SaveDraft) Execute(ctx ExecutionContext) {
	if c.Order.CreatedDate.IsZero() {
		c.Order.CreatedDate = ctx.CurrentDateTime
	}
	c.moveTo(domain.StatusDraft)
}

// DraftToAssigned hands a Draft work order to its assignee.
type DraftToAssigned struct {
	bus.RemotableMessage
	stateCommandBase
}

func NewDraftToAssigned(order *domain.WorkOrder, user *domain.Employee) *DraftToAssigned {
	return &DraftToAssigned{stateCommandBase: stateCommandBase{Order: order, User: user}}
}

func (*DraftToAssigned) RequestType() string                 { return requestType(NameDraftToAssigned) }
func (*DraftToAssigned) Name() string                        { return NameDraftToAssigned }
func (*DraftToAssigned) BeginStatus() domain.WorkOrderStatus { return domain.StatusDraft }
func (*DraftToAssigned) EndStatus() domain.WorkOrderStatus   { return domain.StatusAssigned }
func (*DraftToAssigned) TransitionVerbPresentTense() string  { return "Assign" }
func (*DraftToAssigned) TransitionVerbPastTense() string     { return "Assigned" }
func (c *DraftToAssigned) Validate() []ValidationError       { return validateAssignment(c.Order) }
func (c *DraftToAssigned) IsValid() bool                     { return c.inStatus(domain.StatusDraft) && c.userIsCreator() }

func (c *DraftToAssigned) Execute(ctx ExecutionContext) {
	if c.Order.CreatedDate.IsZero() {
		c.Order.CreatedDate = ctx.CurrentDateTime
	}
	c.Order.MarkAssigned(ctx.CurrentDateTime)
	c.moveTo(domain.StatusAssigned)
}

// AssignedToInProgress lets the assignee start work.
type AssignedToInProgress struct {
	bus.RemotableMessage
	stateCommandBase
}

func NewAssignedToInProgress(order *domain.WorkOrder, user *domain.Employee) *AssignedToInProgress {
	return &AssignedToInProgress{stateCommandBase: stateCommandBase{Order: order, User: user}}
}

func (*AssignedToInProgress) RequestType() string                 { return requestType(NameAssignedToInProgress) }
func (*AssignedToInProgress) Name() string                        { return NameAssignedToInProgress }
func (*AssignedToInProgress) BeginStatus() domain.WorkOrderStatus { return domain.StatusAssigned }
func (*AssignedToInProgress) EndStatus() domain.WorkOrderStatus   { return domain.StatusInProgress }
func (*AssignedToInProgress) TransitionVerbPresentTense() string  { return "Begin" }
func (*AssignedToInProgress) TransitionVerbPastTense() string     { return "Begun" }
func (c *AssignedToInProgress) Validate() []ValidationError       { return validateDraft(c.Order) }

func (c *AssignedToInProgress) IsValid() bool {
	return c.inStatus(domain.StatusAssigned) && c.userIsAssignee()
}

func (c *AssignedToInProgress) Execute(ExecutionContext) {
	c.moveTo(domain.StatusInProgress)
}

// AssignedToCancelled lets the creator withdraw an assigned work order.
type AssignedToCancelled struct {
	bus.RemotableMessage
	stateCommandBase
}

func NewAssignedToCancelled(order *domain.WorkOrder, user *domain.Employee) *AssignedToCancelled {
	return &AssignedToCancelled{stateCommandBase: stateCommandBase{Order: order, User: user}}
}

func (*AssignedToCancelled) RequestType() string                 { return requestType(NameAssignedToCancelled) }
func (*AssignedToCancelled) Name() string                        { return NameAssignedToCancelled }
func (*AssignedToCancelled) BeginStatus() domain.WorkOrderStatus { return domain.StatusAssigned }
func (*AssignedToCancelled) EndStatus() domain.WorkOrderStatus   { return domain.StatusCancelled }
func (*AssignedToCancelled) TransitionVerbPresentTense() string  { return "Cancel" }
func (*AssignedToCancelled) TransitionVerbPastTense() string     { return "Cancelled" }
func (c *AssignedToCancelled) Validate() []ValidationError       { return validateDraft(c.Order) }

func (c *AssignedToCancelled) IsValid() bool {
	return c.inStatus(domain.StatusAssigned) && c.userIsCreator()
}

func (c *AssignedToCancelled) Execute(ExecutionContext) {
	c.moveTo(domain.StatusCancelled)
}

// InProgressToComplete closes the work order and stamps the completion date.
type InProgressToComplete struct {
	bus.RemotableMessage
	stateCommandBase
}

func NewInProgressToComplete(order *domain.WorkOrder, user *domain.Employee) *InProgressToComplete {
	return &InProgressToComplete{stateCommandBase: stateCommandBase{Order: order, User: user}}
}

func (*InProgressToComplete) RequestType() string                 { return requestType(NameInProgressToComplete) }
func (*InProgressToComplete) Name() string                        { return NameInProgressToComplete }
func (*InProgressToComplete) BeginStatus() domain.WorkOrderStatus { return domain.StatusInProgress }
func (*InProgressToComplete) EndStatus() domain.WorkOrderStatus   { return domain.StatusComplete }
func (*InProgressToComplete) TransitionVerbPresentTense() string  { return "Complete" }
func (*InProgressToComplete) TransitionVerbPastTense() string     { return "Completed" }
func (c *InProgressToComplete) Validate() []ValidationError       { return validateDraft(c.Order) }

func (c *InProgressToComplete) IsValid() bool {
	return c.inStatus(domain.StatusInProgress) && c.userIsAssignee()
}

func (c *InProgressToComplete) Execute(ctx ExecutionContext) {
	c.Order.MarkCompleted(ctx.CurrentDateTime)
	c.moveTo(domain.StatusComplete)
}

// InProgressToAssigned shelves started work back to Assigned.
type InProgressToAssigned struct {
	bus.RemotableMessage
	stateCommandBase
}

func NewInProgressToAssigned(order *domain.WorkOrder, user *domain.Employee) *InProgressToAssigned {
	return &InProgressToAssigned{stateCommandBase: stateCommandBase{Order: order, User: user}}
}

func (*InProgressToAssigned) RequestType() string                 { return requestType(NameInProgressToAssigned) }
func (*InProgressToAssigned) Name() string                        { return NameInProgressToAssigned }
func (*InProgressToAssigned) BeginStatus() domain.WorkOrderStatus { return domain.StatusInProgress }
func (*InProgressToAssigned) EndStatus() domain.WorkOrderStatus   { return domain.StatusAssigned }
func (*InProgressToAssigned) TransitionVerbPresentTense() string  { return "Shelve" }
func (*InProgressToAssigned) TransitionVerbPastTense() string     { return "Shelved" }
func (c *InProgressToAssigned) Validate() []ValidationError       { return validateDraft(c.Order) }

func (c *InProgressToAssigned) IsValid() bool {
	return c.inStatus(domain.StatusInProgress) && c.userIsAssignee()
}

func (c *InProgressToAssigned) Execute(ExecutionContext) {
	c.moveTo(domain.StatusAssigned)
}

// InProgressToCancelled lets the creator abandon started work.
type InProgressToCancelled struct {
	bus.RemotableMessage
	stateCommandBase
}

func NewInProgressToCancelled(order *domain.WorkOrder, user *domain.Employee) *InProgressToCancelled {
	return &InProgressToCancelled{stateCommandBase: stateCommandBase{Order: order, User: user}}
}

func (*InProgressToCancelled) RequestType() string                 { return requestType(NameInProgressToCancelled) }
func (*InProgressToCancelled) Name() string                        { return NameInProgressToCancelled }
func (*InProgressToCancelled) BeginStatus() domain.WorkOrderStatus { return domain.StatusInProgress }
func (*InProgressToCancelled) EndStatus() domain.WorkOrderStatus   { return domain.StatusCancelled }
func (*InProgressToCancelled) TransitionVerbPresentTense() string  { return "Cancel" }
func (*InProgressToCancelled) TransitionVerbPastTense() string     { return "Cancelled" }
func (c *InProgressToCancelled) Validate() []ValidationError       { return validateDraft(c.Order) }

func (c *InProgressToCancelled) IsValid() bool {
	return c.inStatus(domain.StatusInProgress) && c.userIsCreator()
}

func (c *InProgressToCancelled) Execute(ExecutionContext) {
	c.moveTo(domain.StatusCancelled)
}

var (
	_ StateCommand  = (*SaveDraft)(nil)
	_ StateCommand  = (*DraftToAssigned)(nil)
	_ StateCommand  = (*AssignedToInProgress)(nil)
	_ StateCommand  = (*AssignedToCancelled)(nil)
	_ StateCommand  = (*InProgressToComplete)(nil)
	_ StateCommand  = (*InProgressToAssigned)(nil)
	_ StateCommand  = (*InProgressToCancelled)(nil)
	_ bus.Remotable = (*SaveDraft)(nil)
)
