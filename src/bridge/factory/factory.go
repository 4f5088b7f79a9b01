// Package factory builds values for tests.
package factory

import (
	"encoding/json"

	"github.com/gofrs/uuid"
	"github.com/importjs/importjs-bridge/src/bridge/entity"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
)

// UUID is a user-defined factory for a random uuid.UUID.
func UUID() uuid.UUID {
	return uuid.Must(uuid.NewV4())
}

// JSONRPCRequest is a user-defined factory for a JSON-RPC request containing the specified method and parameters.
func JSONRPCRequest(method string, params interface{}) jsonrpc2.Request {
	req, _ := jsonrpc2.NewCall(jsonrpc2.NewNumberID(5), method, params)
	return req
}

// JSONRPCNotification is a user-defined factory for a JSON-RPC notification containing the specified method and parameters.
func JSONRPCNotification(method string, params interface{}) jsonrpc2.Request {
	req, _ := jsonrpc2.NewNotification(method, params)
	return req
}

// Document returns an open JavaScript document with the given text.
func Document(path string, text string) entity.Document {
	return entity.Document{
		URI:     protocol.DocumentURI("file://" + path),
		Version: 1,
		Text:    text,
	}
}

// ExecuteCommandParams returns the parameters of a workspace/executeCommand request with a single argument object.
func ExecuteCommandParams(command string, args entity.CommandArguments) *protocol.ExecuteCommandParams {
	var arg map[string]interface{}
	b, _ := json.Marshal(args)
	_ = json.Unmarshal(b, &arg)
	return &protocol.ExecuteCommandParams{
		Command:   command,
		Arguments: []interface{}{arg},
	}
}

// Response returns the raw line of a daemon response.
func Response(resp entity.Response) string {
	b, _ := json.Marshal(resp)
	return string(b)
}
