package importjs

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/importjs/importjs-bridge/src/bridge/entity"
	"github.com/importjs/importjs-bridge/src/bridge/internal/errors"
	"github.com/importjs/importjs-bridge/src/bridge/mapper"
	"go.lsp.dev/protocol"
)

// request is one command in flight together with the document it was built from.
type request struct {
	command entity.Command
	doc     entity.Document
	scope   string
}

// execute sends the command to the daemon and handles its response.
// With resolve set, unresolved imports are offered to the user and an add command follows.
func (c *controller) execute(ctx context.Context, req *request, resolve bool) error {
	payload, err := mapper.CommandToPayload(req.command)
	if err != nil {
		return err
	}

	c.logger.Debugw("sending importjs command", "command", req.command.Command, "path", req.command.PathToFile, "scope", req.scope)
	line, err := c.registry.Execute(ctx, req.scope, payload)
	if err != nil {
		return err
	}

	resp, err := mapper.LineToResponse(line)
	if err != nil {
		c.stats.Counter("decode_errors").Inc(1)
		return err
	}
	return c.handleResponse(ctx, req, resp, resolve)
}

func (c *controller) handleResponse(ctx context.Context, req *request, resp *entity.Response, resolve bool) error {
	if resp.Error != "" {
		return &errors.ProtocolError{Message: resp.Error}
	}

	if len(resp.Messages) > 0 {
		c.showMessage(ctx, protocol.MessageTypeInfo, strings.Join(resp.Messages, "\n"))
	}

	if words := resp.UnresolvedWords(); len(words) > 0 {
		if resolve {
			return c.resolveAndAdd(ctx, req, resp)
		}
		c.showMessage(ctx, protocol.MessageTypeWarning, fmt.Sprintf("ImportJS could not resolve: %s", strings.Join(words, ", ")))
	}

	if req.command.Command == entity.CommandGoto {
		return c.openGoto(ctx, req, resp.Goto)
	}

	if resp.FileContent == nil {
		return nil
	}
	return c.applyFileContent(ctx, req, *resp.FileContent)
}

// resolveAndAdd asks the user to pick a candidate for every unresolved word, then sends an add command
// for the original document with the picks.
func (c *controller) resolveAndAdd(ctx context.Context, req *request, resp *entity.Response) error {
	imports, err := c.resolveImports(ctx, resp)
	if err != nil {
		return err
	}

	add := &request{
		command: entity.Command{
			Command:     entity.CommandAdd,
			PathToFile:  req.command.PathToFile,
			FileContent: req.command.FileContent,
			CommandArg:  imports,
		},
		doc:   req.doc,
		scope: req.scope,
	}
	return c.execute(ctx, add, false)
}

// resolveImports walks the unresolved words in lexical order, one prompt each.
// Dismissing any prompt ends the resolution with ErrResolutionCancelled.
func (c *controller) resolveImports(ctx context.Context, resp *entity.Response) (map[string]json.RawMessage, error) {
	resolved := make(map[string]json.RawMessage, len(resp.UnresolvedImports))
	for _, word := range resp.UnresolvedWords() {
		candidates := resp.UnresolvedImports[word]
		if len(candidates) == 0 {
			continue
		}

		actions := make([]protocol.MessageActionItem, 0, len(candidates))
		for _, candidate := range candidates {
			actions = append(actions, protocol.MessageActionItem{Title: candidate.DisplayName})
		}

		choice, err := c.ideGateway.ShowMessageRequest(ctx, &protocol.ShowMessageRequestParams{
			Type:    protocol.MessageTypeInfo,
			Message: fmt.Sprintf("ImportJS: select the module to import for %q", word),
			Actions: actions,
		})
		if err != nil {
			return nil, fmt.Errorf("asking for the import of %q: %w", word, err)
		}
		if choice == nil {
			return nil, errors.ErrResolutionCancelled
		}

		data, ok := candidateData(candidates, choice.Title)
		if !ok {
			return nil, fmt.Errorf("selection %q is not a candidate for %q", choice.Title, word)
		}
		resolved[word] = data
	}
	return resolved, nil
}

// candidateData returns the data of the first candidate displayed as title.
func candidateData(candidates []entity.Candidate, title string) (json.RawMessage, bool) {
	for _, candidate := range candidates {
		if candidate.DisplayName == title {
			return candidate.Data, true
		}
	}
	return nil, false
}

func (c *controller) openGoto(ctx context.Context, req *request, target string) error {
	if target == "" {
		return nil
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(req.scope, target)
	}

	result, err := c.ideGateway.ShowDocument(ctx, &protocol.ShowDocumentParams{
		URI:       mapper.PathToURI(target),
		TakeFocus: true,
	})
	if err != nil {
		return fmt.Errorf("opening %s: %w", target, err)
	}
	if result != nil && !result.Success {
		c.logger.Warnw("editor did not open goto target", "path", target)
	}
	return nil
}

func (c *controller) applyFileContent(ctx context.Context, req *request, updated string) error {
	params, err := mapper.DocumentEdits("ImportJS: "+req.command.Command, req.doc, updated)
	if err != nil {
		return err
	}
	if params == nil {
		c.logger.Debugw("importjs left the document unchanged", "path", req.command.PathToFile)
		return nil
	}

	result, err := c.ideGateway.ApplyEdit(ctx, params)
	if err != nil {
		return fmt.Errorf("applying edits to %s: %w", req.doc.URI, err)
	}
	if result != nil && !result.Applied {
		c.logger.Warnw("editor rejected importjs edits", "uri", req.doc.URI, "reason", result.FailureReason)
	}
	return nil
}

func (c *controller) showMessage(ctx context.Context, t protocol.MessageType, message string) {
	if err := c.ideGateway.ShowMessage(ctx, &protocol.ShowMessageParams{Type: t, Message: message}); err != nil {
		c.logger.Warnw("showing message", "error", err)
	}
}
