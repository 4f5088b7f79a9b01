// Package entity contains the domain types of the importjs bridge.
package entity

import (
	"encoding/json"

	"github.com/gofrs/uuid"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
)

type keyType string

// SessionContextKey indicates the key to be used to identify the session UUID in the context.
const SessionContextKey keyType = "SessionUUID"

// Session entity representing a single editor connection.
type Session struct {
	UUID             uuid.UUID                  `json:"uuid" zap:"uuid"`
	InitializeParams *protocol.InitializeParams `json:"-" zap:"-"`
	Conn             *jsonrpc2.Conn             `json:"-" zap:"-"`
	WorkspaceFolders []string                   `json:"workspaceFolders" zap:"workspaceFolders"`
	ClientName       string                     `json:"clientName" zap:"clientName"`
}

// Document is the latest synchronized content of a document open in the editor.
type Document struct {
	URI     protocol.DocumentURI
	Version int32
	Text    string
}

// Command ids accepted by workspace/executeCommand.
const (
	CommandIDWord              = "importjs.word"
	CommandIDGoto              = "importjs.goto"
	CommandIDFix               = "importjs.fix"
	CommandIDRewrite           = "importjs.rewrite"
	CommandIDAdd               = "importjs.add"
	CommandIDShutdown          = "importjs.shutdown"
	CommandIDReloadEnvironment = "importjs.reloadEnvironment"
)

// CommandIDs lists every command id in the order they are advertised to the editor.
var CommandIDs = []string{
	CommandIDWord,
	CommandIDGoto,
	CommandIDFix,
	CommandIDRewrite,
	CommandIDAdd,
	CommandIDShutdown,
	CommandIDReloadEnvironment,
}

// CommandArguments is the single argument object of an importjs.* command.
type CommandArguments struct {
	URI protocol.DocumentURI `json:"uri"`
	// Position selects the word under the cursor for word and goto.
	Position *protocol.Position `json:"position,omitempty"`
	// Word takes precedence over Position when set.
	Word string `json:"word,omitempty"`
	// Imports maps each word to the data of the chosen candidate for add.
	Imports map[string]json.RawMessage `json:"imports,omitempty"`
}
