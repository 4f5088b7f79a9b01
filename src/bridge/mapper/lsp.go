package mapper

import (
	"encoding/json"
	"fmt"

	"github.com/importjs/importjs-bridge/src/bridge/entity"
	protocolmapper "github.com/importjs/importjs-bridge/src/bridge/internal/protocol"
	"github.com/sergi/go-diff/diffmatchpatch"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
)

// editOffset replaces the bytes [start, end) of the original text with text.
type editOffset struct {
	start int
	end   int
	text  string
}

// RequestToInitializeParams maps the parameters from a jsonrpc2.Request into protocol.InitializeParams.
func RequestToInitializeParams(req jsonrpc2.Request) (*protocol.InitializeParams, error) {
	params := protocol.InitializeParams{}
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return nil, wrapErrParse(err)
	}
	return &params, nil
}

// RequestToInitializedParams maps the parameters from a jsonrpc2.Request into protocol.InitializedParams.
func RequestToInitializedParams(req jsonrpc2.Request) (*protocol.InitializedParams, error) {
	params := protocol.InitializedParams{}
	if len(req.Params()) == 0 {
		return &params, nil
	}
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return nil, wrapErrParse(err)
	}
	return &params, nil
}

// RequestToDidOpenTextDocumentParams maps the parameters from a jsonrpc2.Request into protocol.DidOpenTextDocumentParams.
func RequestToDidOpenTextDocumentParams(req jsonrpc2.Request) (*protocol.DidOpenTextDocumentParams, error) {
	params := protocol.DidOpenTextDocumentParams{}
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return nil, wrapErrParse(err)
	}
	return &params, nil
}

// RequestToDidChangeTextDocumentParams maps the parameters from a jsonrpc2.Request into protocol.DidChangeTextDocumentParams.
func RequestToDidChangeTextDocumentParams(req jsonrpc2.Request) (*protocol.DidChangeTextDocumentParams, error) {
	params := protocol.DidChangeTextDocumentParams{}
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return nil, wrapErrParse(err)
	}
	return &params, nil
}

// RequestToDidCloseTextDocumentParams maps the parameters from a jsonrpc2.Request into protocol.DidCloseTextDocumentParams.
func RequestToDidCloseTextDocumentParams(req jsonrpc2.Request) (*protocol.DidCloseTextDocumentParams, error) {
	params := protocol.DidCloseTextDocumentParams{}
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return nil, wrapErrParse(err)
	}
	return &params, nil
}

// RequestToExecuteCommandParams maps the parameters from a jsonrpc2.Request into protocol.ExecuteCommandParams.
func RequestToExecuteCommandParams(req jsonrpc2.Request) (*protocol.ExecuteCommandParams, error) {
	params := protocol.ExecuteCommandParams{}
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return nil, wrapErrParse(err)
	}
	return &params, nil
}

// ExecuteCommandParamsToArguments decodes the first argument of an importjs.* command.
// Commands without arguments yield zero CommandArguments.
func ExecuteCommandParamsToArguments(params *protocol.ExecuteCommandParams) (*entity.CommandArguments, error) {
	args := &entity.CommandArguments{}
	if len(params.Arguments) == 0 {
		return args, nil
	}

	raw, err := json.Marshal(params.Arguments[0])
	if err != nil {
		return nil, wrapErrParse(err)
	}
	if err := json.Unmarshal(raw, args); err != nil {
		return nil, fmt.Errorf("arguments of %s: %w", params.Command, wrapErrParse(err))
	}
	return args, nil
}

// LatestText returns the document text after a full synchronization change event.
// The last event wins since every event carries the whole document.
func LatestText(changes []protocol.TextDocumentContentChangeEvent) (string, bool) {
	if len(changes) == 0 {
		return "", false
	}
	return changes[len(changes)-1].Text, true
}

// DocumentEdits returns the workspace edit that turns the text of doc into updated.
// Nil is returned when nothing changes.
func DocumentEdits(label string, doc entity.Document, updated string) (*protocol.ApplyWorkspaceEditParams, error) {
	if doc.Text == updated {
		return nil, nil
	}

	dmp := diffmatchpatch.New()
	chars1, chars2, lines := dmp.DiffLinesToChars(doc.Text, updated)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(chars1, chars2, false), lines)

	edits, err := editOffsetsToTextEdits([]byte(doc.Text), diffsToEditOffsets(diffs))
	if err != nil {
		return nil, fmt.Errorf("mapping edits of %s: %w", doc.URI, err)
	}

	version := doc.Version
	return &protocol.ApplyWorkspaceEditParams{
		Label: label,
		Edit: protocol.WorkspaceEdit{
			DocumentChanges: []protocol.TextDocumentEdit{
				{
					TextDocument: protocol.OptionalVersionedTextDocumentIdentifier{
						TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: doc.URI},
						Version:                &version,
					},
					Edits: edits,
				},
			},
		},
	}, nil
}

// diffsToEditOffsets merges each run of deletions and insertions into a single replacement.
func diffsToEditOffsets(diffs []diffmatchpatch.Diff) []editOffset {
	var (
		edits   []editOffset
		pending *editOffset
		offset  int
	)
	flush := func() {
		if pending != nil {
			edits = append(edits, *pending)
			pending = nil
		}
	}

	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			flush()
			offset += len(d.Text)
		case diffmatchpatch.DiffDelete:
			if pending == nil {
				pending = &editOffset{start: offset, end: offset}
			}
			offset += len(d.Text)
			pending.end = offset
		case diffmatchpatch.DiffInsert:
			if pending == nil {
				pending = &editOffset{start: offset, end: offset}
			}
			pending.text += d.Text
		}
	}
	flush()
	return edits
}

func editOffsetsToTextEdits(original []byte, edits []editOffset) ([]protocol.TextEdit, error) {
	m := protocolmapper.NewTextOffsetMapper(original)
	result := make([]protocol.TextEdit, 0, len(edits))
	for _, edit := range edits {
		start, err := m.OffsetPosition(edit.start)
		if err != nil {
			return nil, err
		}
		end, err := m.OffsetPosition(edit.end)
		if err != nil {
			return nil, err
		}
		result = append(result, protocol.TextEdit{
			Range:   protocol.Range{Start: start, End: end},
			NewText: edit.text,
		})
	}
	return result, nil
}

func wrapErrParse(err error) error {
	return fmt.Errorf("%s: %w", jsonrpc2.ErrParse, err)
}
