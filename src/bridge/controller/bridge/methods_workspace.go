package bridge

import (
	"context"

	"go.lsp.dev/protocol"
)

func (c *controller) ExecuteCommand(ctx context.Context, params *protocol.ExecuteCommandParams) (interface{}, error) {
	return c.importjs.ExecuteCommand(ctx, params)
}
