package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/workorder-dispatch/internal/domains/workorders/adapters/memory"
	"github.com/Apurer/workorder-dispatch/internal/domains/workorders/application"
	"github.com/Apurer/workorder-dispatch/internal/domains/workorders/application/types"
	"github.com/Apurer/workorder-dispatch/internal/domains/workorders/domain"
	"github.com/Apurer/workorder-dispatch/internal/domains/workorders/domain/commands"
	"github.com/Apurer/workorder-dispatch/internal/domains/workorders/ports"
	"github.com/Apurer/workorder-dispatch/internal/platform/bus"
	apierrors "github.com/Apurer/workorder-dispatch/internal/shared/errors"
)

func buildApp(t *testing.T, vars map[string]string) *App {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg, err := loadFrom(vars)
	require.NoError(t, err)
	app, cleanup, err := Build(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(cleanup)
	return app
}

func TestBuild_LocalLifecycle(t *testing.T) {
	app := buildApp(t, map[string]string{})
	ctx := context.Background()
	assert.False(t, app.Persistent)

	created, err := bus.Send[*types.StateCommandResult](ctx, app.Bus, &types.CreateWorkOrderRequest{
		CreatorUserName: "jpalermo",
		Title:           "Fix sink",
		Description:     "Kitchen sink drips",
	})
	require.NoError(t, err)
	require.True(t, created.Succeeded())
	assert.Equal(t, "WO-001", created.WorkOrder.Number)

	steps := []struct{ command, user, assignee string }{
		{commands.NameDraftToAssigned, "jpalermo", "hsimpson"},
		{commands.NameAssignedToInProgress, "hsimpson", ""},
		{commands.NameInProgressToComplete, "hsimpson", ""},
	}
	for _, step := range steps {
		result, err := bus.Send[*types.StateCommandResult](ctx, app.Bus, &types.ExecuteCommandByNameRequest{
			CommandName:      step.command,
			WorkOrderNumber:  "WO-001",
			UserName:         step.user,
			AssigneeUserName: step.assignee,
		})
		require.NoError(t, err)
		require.True(t, result.Succeeded(), result.Message)
	}

	lookup, err := bus.Send[*types.WorkOrderLookup](ctx, app.Bus, &types.WorkOrderByNumberQuery{Number: "WO-001"})
	require.NoError(t, err)
	require.True(t, lookup.Found)
	assert.Equal(t, domain.StatusComplete, lookup.WorkOrder.Status)
	assert.Len(t, lookup.WorkOrder.AuditEntries, 4)

	staff, err := bus.Send[*types.EmployeeList](ctx, app.Bus, &types.EmployeeListQuery{})
	require.NoError(t, err)
	assert.Len(t, staff.Items, len(demoEmployees))
}

func TestBuild_RemoteModeForwardsToServer(t *testing.T) {
	server := buildApp(t, map[string]string{})
	srv := httptest.NewServer(server.Router)
	t.Cleanup(srv.Close)

	client := buildApp(t, map[string]string{
		"BUS_MODE":       BusModeRemote,
		"BUS_REMOTE_URL": srv.URL,
	})
	ctx := context.Background()

	created, err := bus.Send[*types.StateCommandResult](ctx, client.Bus, &types.CreateWorkOrderRequest{
		CreatorUserName: "tlovejoy",
		Title:           "Replace bulb",
		Description:     "Hallway light is out",
		RoomNumber:      "H-1",
	})
	require.NoError(t, err)
	require.True(t, created.Succeeded())
	assert.Equal(t, "WO-001", created.WorkOrder.Number)
	assert.Equal(t, "Timothy Lovejoy", created.WorkOrder.Creator.FullName())

	onServer, err := bus.Send[*types.WorkOrderLookup](ctx, server.Bus, &types.WorkOrderByNumberQuery{Number: "WO-001"})
	require.NoError(t, err)
	assert.True(t, onServer.Found)

	onClient, err := bus.Send[*types.WorkOrderLookup](ctx, client.Mediator, &types.WorkOrderByNumberQuery{Number: "WO-001"})
	require.NoError(t, err)
	assert.False(t, onClient.Found)

	menu, err := bus.Send[*types.CommandMenu](ctx, client.Bus, &types.ValidCommandsQuery{WorkOrderNumber: "WO-001", UserName: "tlovejoy"})
	require.NoError(t, err)
	names := make([]string, 0, len(menu.Commands))
	for _, item := range menu.Commands {
		names = append(names, item.Name)
	}
	assert.Equal(t, []string{commands.NameSaveDraft, commands.NameDraftToAssigned}, names)
}

func TestBuild_RemoteErrorsCarryProblemTypes(t *testing.T) {
	server := buildApp(t, map[string]string{})
	srv := httptest.NewServer(server.Router)
	t.Cleanup(srv.Close)
	client := buildApp(t, map[string]string{
		"BUS_MODE":       BusModeRemote,
		"BUS_REMOTE_URL": srv.URL,
	})
	ctx := context.Background()

	_, err := client.Bus.Send(ctx, &types.CreateWorkOrderRequest{CreatorUserName: "nobody", Title: "x", Description: "y"})
	var remoteErr *bus.RemoteError
	require.True(t, errors.As(err, &remoteErr))
	assert.Equal(t, http.StatusNotFound, remoteErr.StatusCode)
	assert.Equal(t, apierrors.TypeNotFound, remoteErr.Problem.Type)

	_, err = client.Bus.Send(ctx, &types.CreateWorkOrderRequest{CreatorUserName: "hsimpson", Title: "x", Description: "y"})
	require.True(t, errors.As(err, &remoteErr))
	assert.Equal(t, http.StatusBadRequest, remoteErr.StatusCode)
	assert.Equal(t, apierrors.TypeInvalidInput, remoteErr.Problem.Type)
}

func TestSeedEmployees_Idempotent(t *testing.T) {
	ctx := context.Background()
	dir := memory.NewEmployeeDirectory()
	require.NoError(t, SeedEmployees(ctx, dir))
	first, err := dir.GetByUserName(ctx, "jpalermo")
	require.NoError(t, err)

	require.NoError(t, SeedEmployees(ctx, dir))
	again, err := dir.GetByUserName(ctx, "jpalermo")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.True(t, again.CanCreateWorkOrders())
	assert.True(t, again.CanFulfillWorkOrders())

	all, err := dir.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, len(demoEmployees))
}

func TestMapError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"missing work order", fmt.Errorf("load: %w", ports.ErrNotFound), apierrors.TypeNotFound},
		{"missing employee", ports.ErrEmployeeNotFound, apierrors.TypeNotFound},
		{"conflict", fmt.Errorf("%w: %w", application.ErrConflict, application.ErrStaleWorkOrder), apierrors.TypeConflict},
		{"invalid input", fmt.Errorf("%w: %w", application.ErrInvalidInput, domain.ErrEmptyTitle), apierrors.TypeInvalidInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			problem, ok := MapError(tc.err)
			require.True(t, ok)
			assert.Equal(t, tc.want, problem.Type)
			assert.Equal(t, tc.err.Error(), problem.Detail)
		})
	}

	_, ok := MapError(errors.New("boom"))
	assert.False(t, ok)
}
