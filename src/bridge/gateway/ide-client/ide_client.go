// Package ideclient sends notifications and requests back to the connected editors.
package ideclient

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gofrs/uuid"
	"github.com/importjs/importjs-bridge/src/bridge/mapper"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.uber.org/zap"
)

const (
	_progressTitle         = "ImportJS"
	_progressMessage       = "Please select the module to import."
	_progressReminder      = "Still waiting for a selection. Expand the editor notifications if no prompt is visible."
	_progressReminderAfter = 5 * time.Second
	_progressExpireAfter   = 2 * time.Minute
)

// Gateway routes outbound traffic to the editor whose session UUID is carried by the context.
type Gateway interface {
	// RegisterClient makes the editor behind conn reachable under id.
	RegisterClient(ctx context.Context, id uuid.UUID, conn *jsonrpc2.Conn) error
	// DeregisterClient forgets the editor registered under id.
	DeregisterClient(ctx context.Context, id uuid.UUID) error

	LogMessage(ctx context.Context, params *protocol.LogMessageParams) error
	ShowMessage(ctx context.Context, params *protocol.ShowMessageParams) error
	// ShowMessageRequest asks the user to pick one of the actions. A nil result means the prompt was dismissed.
	ShowMessageRequest(ctx context.Context, params *protocol.ShowMessageRequestParams) (*protocol.MessageActionItem, error)
	ApplyEdit(ctx context.Context, params *protocol.ApplyWorkspaceEditParams) (*protocol.ApplyWorkspaceEditResponse, error)
	ShowDocument(ctx context.Context, params *protocol.ShowDocumentParams) (*protocol.ShowDocumentResult, error)
}

// editor is one registered connection together with its typed client.
type editor struct {
	client protocol.Client
	conn   jsonrpc2.Conn
}

type gateway struct {
	mu      sync.RWMutex
	editors map[uuid.UUID]editor
	logger  *zap.Logger
}

// New returns a Gateway with no registered editors.
func New(logger *zap.Logger) Gateway {
	return &gateway{
		editors: make(map[uuid.UUID]editor),
		logger:  logger,
	}
}

func (g *gateway) RegisterClient(ctx context.Context, id uuid.UUID, conn *jsonrpc2.Conn) error {
	if conn == nil {
		return fmt.Errorf("registering editor %q: nil connection", id)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.editors[id] = editor{
		client: protocol.ClientDispatcher(*conn, g.logger),
		conn:   *conn,
	}
	return nil
}

func (g *gateway) DeregisterClient(ctx context.Context, id uuid.UUID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.editors, id)
	return nil
}

func (g *gateway) LogMessage(ctx context.Context, params *protocol.LogMessageParams) error {
	e, err := g.editor(ctx)
	if err != nil {
		return err
	}
	return wrapSend(protocol.MethodWindowLogMessage, e.client.LogMessage(ctx, params))
}

func (g *gateway) ShowMessage(ctx context.Context, params *protocol.ShowMessageParams) error {
	e, err := g.editor(ctx)
	if err != nil {
		return err
	}
	return wrapSend(protocol.MethodWindowShowMessage, e.client.ShowMessage(ctx, params))
}

func (g *gateway) ShowMessageRequest(ctx context.Context, params *protocol.ShowMessageRequestParams) (*protocol.MessageActionItem, error) {
	e, err := g.editor(ctx)
	if err != nil {
		return nil, err
	}

	// Error prompts are never collapsed by the editors, the others get a progress pointing at them.
	if params.Type != protocol.MessageTypeError {
		p, err := startSelectionProgress(ctx, e.client)
		if err != nil {
			return nil, wrapSend(protocol.MethodWorkDoneProgressCreate, err)
		}
		defer p.end()
	}

	item, err := e.client.ShowMessageRequest(ctx, params)
	if err != nil {
		return nil, wrapSend(protocol.MethodWindowShowMessageRequest, err)
	}
	return item, nil
}

func (g *gateway) ApplyEdit(ctx context.Context, params *protocol.ApplyWorkspaceEditParams) (*protocol.ApplyWorkspaceEditResponse, error) {
	result := &protocol.ApplyWorkspaceEditResponse{}
	if err := g.call(ctx, protocol.MethodWorkspaceApplyEdit, params, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (g *gateway) ShowDocument(ctx context.Context, params *protocol.ShowDocumentParams) (*protocol.ShowDocumentResult, error) {
	result := &protocol.ShowDocumentResult{}
	if err := g.call(ctx, protocol.MethodShowDocument, params, result); err != nil {
		return nil, err
	}
	return result, nil
}

// call sends a request on the raw connection. Used for methods the typed client
// does not expose or whose result it decodes lossily.
func (g *gateway) call(ctx context.Context, method string, params, result interface{}) error {
	e, err := g.editor(ctx)
	if err != nil {
		return err
	}
	return wrapSend(method, protocol.Call(ctx, e.conn, method, params, result))
}

func (g *gateway) editor(ctx context.Context) (editor, error) {
	id, err := mapper.ContextToSessionUUID(ctx)
	if err != nil {
		return editor{}, fmt.Errorf("routing to editor: %w", err)
	}

	g.mu.RLock()
	defer g.mu.RUnlock()
	e, ok := g.editors[id]
	if !ok {
		return editor{}, fmt.Errorf("routing to editor: session %q not found", id)
	}
	return e, nil
}

func wrapSend(method string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("sending %s to editor: %w", method, err)
}

// selectionProgress is a work done progress shown while an import prompt is open.
type selectionProgress struct {
	ctx      context.Context
	client   protocol.Client
	token    protocol.ProgressToken
	reminder *time.Timer
	expiry   *time.Timer
}

func startSelectionProgress(ctx context.Context, client protocol.Client) (*selectionProgress, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}

	p := &selectionProgress{ctx: ctx, client: client, token: *protocol.NewProgressToken(id.String())}
	if err := client.WorkDoneProgressCreate(ctx, &protocol.WorkDoneProgressCreateParams{Token: p.token}); err != nil {
		return nil, err
	}
	if err := p.notify(&protocol.WorkDoneProgressBegin{
		Kind:        protocol.WorkDoneProgressKindBegin,
		Title:       _progressTitle,
		Message:     _progressMessage,
		Cancellable: true,
	}); err != nil {
		return nil, err
	}

	p.reminder = time.AfterFunc(_progressReminderAfter, func() {
		p.notify(&protocol.WorkDoneProgressReport{
			Kind:    protocol.WorkDoneProgressKindReport,
			Message: _progressReminder,
		})
	})
	// A prompt the user ignores must not leave the progress spinning forever.
	p.expiry = time.AfterFunc(_progressExpireAfter, p.finish)
	return p, nil
}

// end stops the timers and closes the progress unless it already expired.
func (p *selectionProgress) end() {
	p.reminder.Stop()
	if p.expiry.Stop() {
		p.finish()
	}
}

func (p *selectionProgress) finish() {
	p.notify(&protocol.WorkDoneProgressEnd{Kind: protocol.WorkDoneProgressKindEnd})
}

func (p *selectionProgress) notify(value interface{}) error {
	return p.client.Progress(p.ctx, &protocol.ProgressParams{Token: p.token, Value: value})
}
