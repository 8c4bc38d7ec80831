package application

import (
	"context"
	"log/slog"

	"github.com/Apurer/workorder-dispatch/internal/domains/workorders/application/types"
	"github.com/Apurer/workorder-dispatch/internal/domains/workorders/domain/commands"
	"github.com/Apurer/workorder-dispatch/internal/platform/bus"
)

// RegisterHandlers routes every work order request type to its handler.
func RegisterHandlers(m *bus.Mediator, svc *Service, h *CommandHandler) {
	handleCommand[*commands.SaveDraft](m, h)
	handleCommand[*commands.DraftToAssigned](m, h)
	handleCommand[*commands.AssignedToInProgress](m, h)
	handleCommand[*commands.AssignedToCancelled](m, h)
	handleCommand[*commands.InProgressToComplete](m, h)
	handleCommand[*commands.InProgressToAssigned](m, h)
	handleCommand[*commands.InProgressToCancelled](m, h)

	bus.Handle(m, svc.ExecuteByName)
	bus.Handle(m, svc.CreateWorkOrder)
	bus.Handle(m, svc.WorkOrderByNumber)
	bus.Handle(m, svc.Search)
	bus.Handle(m, svc.ValidCommands)
	bus.Handle(m, svc.EmployeeByUserName)
	bus.Handle(m, svc.Employees)
}

// LogTransitions subscribes an audit log line for every committed transition.
func LogTransitions(m *bus.Mediator, logger *slog.Logger) {
	if logger == nil {
		return
	}
	bus.Subscribe(m, func(ctx context.Context, n *types.WorkOrderTransitioned) error {
		logger.LogAttrs(ctx, slog.LevelInfo, "work order transitioned",
			slog.String("work_order", n.Number),
			slog.String("command", n.CommandName),
			slog.String("begin_status", n.BeginStatus.Code()),
			slog.String("end_status", n.EndStatus.Code()),
			slog.Int("sequence", n.Sequence),
			slog.String("user", n.UserName))
		return nil
	})
	bus.Subscribe(m, func(ctx context.Context, n *types.WorkOrderNumberIssued) error {
		logger.LogAttrs(ctx, slog.LevelInfo, "work order number issued", slog.String("work_order", n.Number))
		return nil
	})
}
