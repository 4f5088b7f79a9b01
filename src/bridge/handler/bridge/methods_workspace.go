package bridge

import (
	"context"

	"github.com/importjs/importjs-bridge/src/bridge/mapper"
	"go.lsp.dev/jsonrpc2"
)

// ExecuteCommand runs one of the importjs.* commands.
func (r *jsonRPCRouter) ExecuteCommand(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	params, err := mapper.RequestToExecuteCommandParams(req)
	if err != nil {
		return reply(ctx, nil, err)
	}

	result, err := r.bridge.ExecuteCommand(ctx, params)
	if err != nil {
		return reply(ctx, nil, err)
	}
	return reply(ctx, result, nil)
}
