package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Apurer/workorder-dispatch/internal/domains/workorders/application/types"
	"github.com/Apurer/workorder-dispatch/internal/domains/workorders/domain"
	"github.com/Apurer/workorder-dispatch/internal/domains/workorders/domain/commands"
	"github.com/Apurer/workorder-dispatch/internal/domains/workorders/ports"
	"github.com/Apurer/workorder-dispatch/internal/platform/bus"
)

// NumberFormat renders issued work order numbers.
const NumberFormat = "WO-%03d"

// Service answers the work order queries and the by-name command requests.
type Service struct {
	repo      ports.Repository
	employees ports.EmployeeDirectory
	numbers   ports.NumberSequence
	registry  *commands.Registry
	commands  *CommandHandler
	publisher bus.Bus
	now       func() time.Time
}

type ServiceOption func(*Service)

// WithServiceClock overrides the creation timestamp source.
func WithServiceClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(repo ports.Repository, employees ports.EmployeeDirectory, numbers ports.NumberSequence, handler *CommandHandler, publisher bus.Bus, opts ...ServiceOption) *Service {
	s := &Service{
		repo:      repo,
		employees: employees,
		numbers:   numbers,
		registry:  commands.NewRegistry(),
		commands:  handler,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// WorkOrderByNumber never returns a nil lookup; a miss sets Found=false.
func (s *Service) WorkOrderByNumber(ctx context.Context, q *types.WorkOrderByNumberQuery) (*types.WorkOrderLookup, error) {
	order, err := s.repo.GetByNumber(ctx, strings.TrimSpace(q.Number))
	if errors.Is(err, ports.ErrNotFound) {
		return &types.WorkOrderLookup{Found: false}, nil
	}
	if err != nil {
		return nil, mapError(err)
	}
	return &types.WorkOrderLookup{Found: true, WorkOrder: order}, nil
}

func (s *Service) Search(ctx context.Context, q *types.WorkOrderSearchQuery) (*types.WorkOrderList, error) {
	items, err := s.repo.Search(ctx, ports.SearchSpecification{
		Statuses:         q.Statuses,
		CreatorUserName:  strings.TrimSpace(q.CreatorUserName),
		AssigneeUserName: strings.TrimSpace(q.AssigneeUserName),
		Limit:            q.Limit,
	})
	if err != nil {
		return nil, mapError(err)
	}
	if items == nil {
		items = []*domain.WorkOrder{}
	}
	return &types.WorkOrderList{Items: items}, nil
}

// ValidCommands lists the commands the user may run, in registry order.
func (s *Service) ValidCommands(ctx context.Context, q *types.ValidCommandsQuery) (*types.CommandMenu, error) {
	order, user, err := s.load(ctx, q.WorkOrderNumber, q.UserName)
	if err != nil {
		return nil, err
	}
	menu := &types.CommandMenu{WorkOrderNumber: order.Number, Commands: []types.CommandMenuItem{}}
	for _, cmd := range s.registry.GetValidStateCommands(order, user) {
		menu.Commands = append(menu.Commands, types.CommandMenuItem{
			Name:                       cmd.Name(),
			TransitionVerbPresentTense: cmd.TransitionVerbPresentTense(),
			EndStatus:                  cmd.EndStatus(),
		})
	}
	return menu, nil
}

// ExecuteByName resolves the command from its name and runs it through the guard.
// An assignee may only be named for commands that start from Draft.
func (s *Service) ExecuteByName(ctx context.Context, req *types.ExecuteCommandByNameRequest) (*types.StateCommandResult, error) {
	order, user, err := s.load(ctx, req.WorkOrderNumber, req.UserName)
	if err != nil {
		return nil, err
	}
	cmd, err := s.registry.GetMatchingCommand(req.CommandName, order, user)
	if errors.Is(err, commands.ErrUnknownCommand) {
		return InvalidCommandResult(strings.TrimSpace(req.CommandName), order,
			fmt.Sprintf("%q is not a known state command; expected one of %s",
				strings.TrimSpace(req.CommandName), strings.Join(s.registry.Names(), ", "))), nil
	}
	if err != nil {
		return nil, mapError(err)
	}
	if name := strings.TrimSpace(req.AssigneeUserName); name != "" {
		if !cmd.BeginStatus().Equals(domain.StatusDraft) {
			return InvalidCommandResult(cmd.Name(), order,
				fmt.Sprintf("%s cannot change the assignee of work order %s", cmd.Name(), order.Number)), nil
		}
		assignee, err := s.employees.GetByUserName(ctx, name)
		if err != nil {
			return nil, mapError(err)
		}
		order.Assign(assignee)
	}
	return s.commands.Handle(ctx, cmd)
}

// CreateWorkOrder drafts a work order with the next number and saves it. Declined
// requests do not consume a number.
func (s *Service) CreateWorkOrder(ctx context.Context, req *types.CreateWorkOrderRequest) (*types.StateCommandResult, error) {
	creator, err := s.employees.GetByUserName(ctx, strings.TrimSpace(req.CreatorUserName))
	if err != nil {
		return nil, mapError(err)
	}
	if !creator.CanCreateWorkOrders() {
		return nil, fmt.Errorf("%w: %s cannot create work orders", ErrInvalidInput, creator.UserName)
	}
	if errs := commands.ValidateDraftRequest(req.Title, req.Description); len(errs) > 0 {
		return ValidationFailedResult(commands.NameSaveDraft, nil, errs), nil
	}
	n, err := s.numbers.NextNumber(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	number := fmt.Sprintf(NumberFormat, n)
	order, err := domain.NewWorkOrderBuilder(number, creator).
		WithTitle(req.Title).
		WithDescription(req.Description).
		WithRoomNumber(req.RoomNumber).
		CreatedAt(s.now()).
		Build()
	if err != nil {
		return nil, mapError(err)
	}
	result, err := s.commands.Handle(ctx, commands.NewSaveDraft(order, creator))
	if err != nil || !result.Succeeded() || s.publisher == nil {
		return result, err
	}
	if err := s.publisher.Publish(ctx, &types.WorkOrderNumberIssued{Number: number}); err != nil {
		s.commands.logger.LogAttrs(ctx, slog.LevelWarn, "number notification failed",
			slog.String("work_order", number), slog.String("error", err.Error()))
	}
	return result, nil
}

func (s *Service) EmployeeByUserName(ctx context.Context, q *types.EmployeeByUserNameQuery) (*types.EmployeeLookup, error) {
	employee, err := s.employees.GetByUserName(ctx, strings.TrimSpace(q.UserName))
	if errors.Is(err, ports.ErrEmployeeNotFound) {
		return &types.EmployeeLookup{Found: false}, nil
	}
	if err != nil {
		return nil, mapError(err)
	}
	return &types.EmployeeLookup{Found: true, Employee: employee}, nil
}

func (s *Service) Employees(ctx context.Context, _ *types.EmployeeListQuery) (*types.EmployeeList, error) {
	items, err := s.employees.List(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	if items == nil {
		items = []*domain.Employee{}
	}
	return &types.EmployeeList{Items: items}, nil
}

func (s *Service) load(ctx context.Context, number, userName string) (*domain.WorkOrder, *domain.Employee, error) {
	order, err := s.repo.GetByNumber(ctx, strings.TrimSpace(number))
	if err != nil {
		return nil, nil, mapError(err)
	}
	user, err := s.employees.GetByUserName(ctx, strings.TrimSpace(userName))
	if err != nil {
		return nil, nil, mapError(err)
	}
	return order, user, nil
}
