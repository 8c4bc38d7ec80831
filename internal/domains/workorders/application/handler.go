package application

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/Apurer/workorder-dispatch/internal/domains/workorders/application/types"
	"github.com/Apurer/workorder-dispatch/internal/domains/workorders/domain"
	"github.com/Apurer/workorder-dispatch/internal/domains/workorders/domain/commands"
	"github.com/Apurer/workorder-dispatch/internal/domains/workorders/ports"
	"github.com/Apurer/workorder-dispatch/internal/platform/bus"
)

// CommandHandler guards the orchestrator: declined commands come back as a
// result with a non-executed outcome and leave the work order untouched.
type CommandHandler struct {
	transitions ports.Transitioner
	publisher   bus.Bus
	logger      *slog.Logger
}

type HandlerOption func(*CommandHandler)

func WithHandlerLogger(logger *slog.Logger) HandlerOption {
	return func(h *CommandHandler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// NewCommandHandler wires the guard. publisher may be nil when no one listens
// for WorkOrderTransitioned.
func NewCommandHandler(transitions ports.Transitioner, publisher bus.Bus, opts ...HandlerOption) *CommandHandler {
	h := &CommandHandler{
		transitions: transitions,
		publisher:   publisher,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Handle checks legality, validates fields, then executes. An illegal
// transition is reported as such even when fields are also missing.
func (h *CommandHandler) Handle(ctx context.Context, cmd commands.StateCommand) (*types.StateCommandResult, error) {
	if !cmd.IsValid() {
		return InvalidCommandResult(cmd.Name(), cmd.WorkOrder(), invalidCommandMessage(cmd)), nil
	}
	if errs := cmd.Validate(); len(errs) > 0 {
		return ValidationFailedResult(cmd.Name(), cmd.WorkOrder(), errs), nil
	}

	result, err := h.transitions.Execute(ctx, cmd)
	if err != nil {
		return nil, err
	}
	h.announce(ctx, cmd, result)
	return result, nil
}

func (h *CommandHandler) announce(ctx context.Context, cmd commands.StateCommand, result *types.StateCommandResult) {
	if h.publisher == nil || result == nil || result.WorkOrder == nil {
		return
	}
	order := result.WorkOrder
	entry, err := LastAuditEntry(order)
	if err != nil {
		return
	}
	note := &types.WorkOrderTransitioned{
		WorkOrderID: order.ID,
		Number:      order.Number,
		CommandName: cmd.Name(),
		BeginStatus: entry.BeginStatus,
		EndStatus:   entry.EndStatus,
		Sequence:    entry.Sequence,
		At:          entry.Date,
	}
	if user := cmd.CurrentUser(); user != nil {
		note.UserName = user.UserName
	}
	if err := h.publisher.Publish(ctx, note); err != nil {
		h.logger.LogAttrs(ctx, slog.LevelWarn, "transition notification failed",
			slog.String("work_order", order.Number),
			slog.String("command", cmd.Name()),
			slog.String("error", err.Error()))
	}
}

func ValidationFailedResult(name string, order *domain.WorkOrder, errs []commands.ValidationError) *types.StateCommandResult {
	return &types.StateCommandResult{
		Outcome:          types.OutcomeValidationFailed,
		CommandName:      name,
		WorkOrder:        order,
		Message:          fmt.Sprintf("%s was declined: %d field(s) failed validation", name, len(errs)),
		ValidationErrors: errs,
	}
}

// InvalidCommandResult declines a command without touching order.
func InvalidCommandResult(name string, order *domain.WorkOrder, message string) *types.StateCommandResult {
	return &types.StateCommandResult{
		Outcome:     types.OutcomeInvalidCommand,
		CommandName: name,
		WorkOrder:   order,
		Message:     message,
	}
}

func invalidCommandMessage(cmd commands.StateCommand) string {
	order := cmd.WorkOrder()
	if order == nil {
		return fmt.Sprintf("%s requires a work order", cmd.Name())
	}
	if !order.Status.Equals(cmd.BeginStatus()) {
		return fmt.Sprintf("%s requires the work order to be in status %s, but it is %s",
			cmd.Name(), cmd.BeginStatus().FriendlyName(), order.Status.FriendlyName())
	}
	return fmt.Sprintf("%s is not allowed to %s work order %s",
		cmd.CurrentUser().FullName(), cmd.TransitionVerbPresentTense(), order.Number)
}

// handleCommand registers the guard for one command type.
func handleCommand[C commands.StateCommand](m *bus.Mediator, h *CommandHandler) {
	bus.Handle(m, func(ctx context.Context, cmd C) (*types.StateCommandResult, error) {
		return h.Handle(ctx, cmd)
	})
}
