package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Apurer/workorder-dispatch/internal/domains/workorders/domain"
	"github.com/Apurer/workorder-dispatch/internal/platform/envelope"
)

// ErrUnknownCommand is returned when a name does not match any command.
var ErrUnknownCommand = errors.New("unknown state command")

type factory struct {
	name  string
	build func(*domain.WorkOrder, *domain.Employee) StateCommand
}

// Registry enumerates commands in a fixed order that menus and automation
// rely on.
type Registry struct {
	factories []factory
}

func NewRegistry() *Registry {
	return &Registry{factories: []factory{
		{NameSaveDraft, func(o *domain.WorkOrder, u *domain.Employee) StateCommand { return NewSaveDraft(o, u) }},
		{NameDraftToAssigned, func(o *domain.WorkOrder, u *domain.Employee) StateCommand { return NewDraftToAssigned(o, u) }},
		{NameAssignedToCancelled, func(o *domain.WorkOrder, u *domain.Employee) StateCommand { return NewAssignedToCancelled(o, u) }},
		{NameAssignedToInProgress, func(o *domain.WorkOrder, u *domain.Employee) StateCommand { return NewAssignedToInProgress(o, u) }},
		{NameInProgressToComplete, func(o *domain.WorkOrder, u *domain.Employee) StateCommand { return NewInProgressToComplete(o, u) }},
		{NameInProgressToAssigned, func(o *domain.WorkOrder, u *domain.Employee) StateCommand { return NewInProgressToAssigned(o, u) }},
		{NameInProgressToCancelled, func(o *domain.WorkOrder, u *domain.Employee) StateCommand { return NewInProgressToCancelled(o, u) }},
	}}
}

// GetAllStateCommands builds every command for the pair, in registry order.
func (r *Registry) GetAllStateCommands(order *domain.WorkOrder, user *domain.Employee) []StateCommand {
	out := make([]StateCommand, 0, len(r.factories))
	for _, f := range r.factories {
		out = append(out, f.build(order, user))
	}
	return out
}

// GetValidStateCommands keeps the commands whose IsValid holds.
func (r *Registry) GetValidStateCommands(order *domain.WorkOrder, user *domain.Employee) []StateCommand {
	var out []StateCommand
	for _, cmd := range r.GetAllStateCommands(order, user) {
		if cmd.IsValid() {
			out = append(out, cmd)
		}
	}
	return out
}

// GetMatchingCommand resolves a command by name, ignoring case. The returned
// command is not checked for validity.
func (r *Registry) GetMatchingCommand(name string, order *domain.WorkOrder, user *domain.Employee) (StateCommand, error) {
	name = strings.TrimSpace(name)
	for _, f := range r.factories {
		if strings.EqualFold(f.name, name) {
			return f.build(order, user), nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, name)
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for _, f := range r.factories {
		names = append(names, f.name)
	}
	return names
}

// Register adds every command type to the catalog under its request type.
func Register(c *envelope.Catalog) error {
	return errors.Join(
		envelope.Register[*SaveDraft](c, requestType(NameSaveDraft)),
		envelope.Register[*DraftToAssigned](c, requestType(NameDraftToAssigned)),
		envelope.Register[*AssignedToInProgress](c, requestType(NameAssignedToInProgress)),
		envelope.Register[*AssignedToCancelled](c, requestType(NameAssignedToCancelled)),
		envelope.Register[*InProgressToComplete](c, requestType(NameInProgressToComplete)),
		envelope.Register[*InProgressToAssigned](c, requestType(NameInProgressToAssigned)),
		envelope.Register[*InProgressToCancelled](c, requestType(NameInProgressToCancelled)),
	)
}
