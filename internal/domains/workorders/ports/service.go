package ports

import (
	"context"

	"github.com/Apurer/workorder-dispatch/internal/domains/workorders/application/types"
	"github.com/Apurer/workorder-dispatch/internal/domains/workorders/domain/commands"
)

// Transitioner executes a legal command and records its audit entry as one unit (inbound port).
type Transitioner interface {
	Execute(ctx context.Context, cmd commands.StateCommand) (*types.StateCommandResult, error)
}
