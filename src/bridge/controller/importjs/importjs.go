// Package importjs implements the importjs.* editor commands on top of the import-js daemon.
package importjs

import (
	"context"
	"fmt"

	"github.com/importjs/importjs-bridge/src/bridge/entity"
	ideclient "github.com/importjs/importjs-bridge/src/bridge/gateway/ide-client"
	"github.com/importjs/importjs-bridge/src/bridge/internal/environment"
	"github.com/importjs/importjs-bridge/src/bridge/internal/errors"
	"github.com/importjs/importjs-bridge/src/bridge/internal/settings"
	workspaceutils "github.com/importjs/importjs-bridge/src/bridge/internal/workspace-utils"
	"github.com/importjs/importjs-bridge/src/bridge/mapper"
	"github.com/importjs/importjs-bridge/src/bridge/repository/daemon"
	"github.com/importjs/importjs-bridge/src/bridge/repository/document"
	"github.com/importjs/importjs-bridge/src/bridge/repository/session"
	tally "github.com/uber-go/tally/v4"
	"go.lsp.dev/protocol"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const _tagCommand = "command"

// Controller runs import-js commands for the documents open in the editor.
type Controller interface {
	// ExecuteCommand routes a workspace/executeCommand request to the matching command.
	ExecuteCommand(ctx context.Context, params *protocol.ExecuteCommandParams) (interface{}, error)

	// Word imports the word at the given position, or args.Word when set.
	Word(ctx context.Context, args *entity.CommandArguments) error
	// Goto opens the module the word at the given position is imported from.
	Goto(ctx context.Context, args *entity.CommandArguments) error
	// Fix imports every undefined variable and removes unused imports.
	Fix(ctx context.Context, args *entity.CommandArguments) error
	// Rewrite reorders and reformats the imports of the document.
	Rewrite(ctx context.Context, args *entity.CommandArguments) error
	// Add imports args.Imports, as resolved by the user.
	Add(ctx context.Context, args *entity.CommandArguments) error

	// ShutdownDaemons stops every running daemon. The next command starts a new one.
	ShutdownDaemons(ctx context.Context) error
	// ReloadEnvironment recomputes the daemon environment and stops the running daemons so the next command uses it.
	ReloadEnvironment(ctx context.Context) error
}

// Params are inbound parameters to initialize a new controller.
type Params struct {
	fx.In

	Registry    daemon.Registry
	Documents   document.Repository
	Sessions    session.Repository
	IdeGateway  ideclient.Gateway
	Environment environment.Store
	Settings    settings.Settings
	Workspace   workspaceutils.WorkspaceUtils
	Logger      *zap.SugaredLogger
	Stats       tally.Scope
}

type controller struct {
	registry    daemon.Registry
	documents   document.Repository
	sessions    session.Repository
	ideGateway  ideclient.Gateway
	environment environment.Store
	settings    settings.Settings
	workspace   workspaceutils.WorkspaceUtils
	logger      *zap.SugaredLogger
	stats       tally.Scope
}

// New constructs the import command controller and subscribes it to settings changes.
func New(p Params) Controller {
	c := &controller{
		registry:    p.Registry,
		documents:   p.Documents,
		sessions:    p.Sessions,
		ideGateway:  p.IdeGateway,
		environment: p.Environment,
		settings:    p.Settings,
		workspace:   p.Workspace,
		logger:      p.Logger.Named("importjs"),
		stats:       p.Stats.SubScope("importjs"),
	}
	p.Settings.Subscribe(c.settingsChanged)
	return c
}

func (c *controller) ExecuteCommand(ctx context.Context, params *protocol.ExecuteCommandParams) (interface{}, error) {
	var run func(ctx context.Context, args *entity.CommandArguments) error
	switch params.Command {
	case entity.CommandIDWord:
		run = c.Word
	case entity.CommandIDGoto:
		run = c.Goto
	case entity.CommandIDFix:
		run = c.Fix
	case entity.CommandIDRewrite:
		run = c.Rewrite
	case entity.CommandIDAdd:
		run = c.Add
	case entity.CommandIDShutdown:
		return nil, c.ShutdownDaemons(ctx)
	case entity.CommandIDReloadEnvironment:
		return nil, c.ReloadEnvironment(ctx)
	default:
		return nil, &errors.UnknownCommandError{Command: params.Command}
	}

	args, err := mapper.ExecuteCommandParamsToArguments(params)
	if err != nil {
		return nil, err
	}
	if err := run(ctx, args); err != nil && !errors.IsCancelled(err) {
		return nil, err
	}
	return nil, nil
}

func (c *controller) Word(ctx context.Context, args *entity.CommandArguments) error {
	return c.runWithWord(ctx, entity.CommandWord, args)
}

func (c *controller) Goto(ctx context.Context, args *entity.CommandArguments) error {
	return c.runWithWord(ctx, entity.CommandGoto, args)
}

func (c *controller) Fix(ctx context.Context, args *entity.CommandArguments) error {
	return c.run(ctx, entity.CommandFix, args.URI, nil)
}

func (c *controller) Rewrite(ctx context.Context, args *entity.CommandArguments) error {
	return c.run(ctx, entity.CommandRewrite, args.URI, nil)
}

func (c *controller) Add(ctx context.Context, args *entity.CommandArguments) error {
	if len(args.Imports) == 0 {
		return c.fail(ctx, entity.CommandAdd, fmt.Errorf("add command for %s has no imports", args.URI))
	}
	return c.run(ctx, entity.CommandAdd, args.URI, args.Imports)
}

func (c *controller) ShutdownDaemons(ctx context.Context) error {
	if err := c.registry.Shutdown(ctx); err != nil {
		return c.fail(ctx, "shutdown", fmt.Errorf("shutting down importjs daemons: %w", err))
	}
	c.logger.Info("importjs daemons shut down on request")
	return nil
}

func (c *controller) ReloadEnvironment(ctx context.Context) error {
	env := c.environment.Reload(ctx, c.settings.Current().Paths)
	if err := c.registry.Shutdown(ctx); err != nil {
		return c.fail(ctx, "reloadEnvironment", fmt.Errorf("shutting down importjs daemons: %w", err))
	}

	if err := c.ideGateway.ShowMessage(ctx, &protocol.ShowMessageParams{
		Type:    protocol.MessageTypeInfo,
		Message: fmt.Sprintf("ImportJS environment reloaded. PATH=%s", env["PATH"]),
	}); err != nil {
		c.logger.Warnw("showing reload message", "error", err)
	}
	return nil
}

// settingsChanged applies new user settings. Running daemons keep their environment and executable, so they are stopped.
func (c *controller) settingsChanged(ctx context.Context, v settings.Values) {
	c.environment.Reload(ctx, v.Paths)
	if err := c.registry.Shutdown(ctx); err != nil {
		c.logger.Warnw("shutting down importjs daemons after settings change", "error", err)
	}
	c.notifyEditors(ctx, "ImportJS settings changed, daemons will restart on the next command.")
}

// notifyEditors writes message to the log of every connected editor.
func (c *controller) notifyEditors(ctx context.Context, message string) {
	sessions, err := c.sessions.List(ctx)
	if err != nil {
		c.logger.Warnw("listing editor sessions", "error", err)
		return
	}
	for _, s := range sessions {
		if err := c.ideGateway.LogMessage(mapper.SessionUUIDToContext(ctx, s.UUID), &protocol.LogMessageParams{
			Type:    protocol.MessageTypeInfo,
			Message: message,
		}); err != nil {
			c.logger.Warnw("notifying editor", "session", s.UUID, "error", err)
		}
	}
}

func (c *controller) runWithWord(ctx context.Context, command string, args *entity.CommandArguments) error {
	word := args.Word
	if word == "" {
		if args.Position == nil {
			return c.fail(ctx, command, fmt.Errorf("%s command for %s needs a word or a position", command, args.URI))
		}
		doc, err := c.documents.Get(ctx, args.URI)
		if err != nil {
			return c.fail(ctx, command, err)
		}
		if word, err = mapper.WordAtPosition(doc.Text, *args.Position); err != nil {
			return c.fail(ctx, command, err)
		}
		if word == "" {
			return c.fail(ctx, command, fmt.Errorf("no word at %d:%d in %s", args.Position.Line, args.Position.Character, args.URI))
		}
	}
	return c.run(ctx, command, args.URI, word)
}

// run sends one command for the document at uri and applies the response.
// Every failure except a dismissed prompt is shown to the user once.
func (c *controller) run(ctx context.Context, command string, uri protocol.DocumentURI, commandArg interface{}) error {
	stats := c.stats.Tagged(map[string]string{_tagCommand: command})
	stats.Counter("requests").Inc(1)
	sw := stats.Timer("command_latency").Start()
	defer sw.Stop()

	doc, err := c.documents.Get(ctx, uri)
	if err != nil {
		return c.fail(ctx, command, err)
	}
	path, err := mapper.URIToPath(doc.URI)
	if err != nil {
		return c.fail(ctx, command, err)
	}

	req := &request{
		command: entity.Command{
			Command:     command,
			PathToFile:  path,
			FileContent: doc.Text,
			CommandArg:  commandArg,
		},
		doc:   doc,
		scope: c.scope(ctx, path),
	}
	if err := c.execute(ctx, req, true); err != nil {
		if errors.IsCancelled(err) {
			stats.Counter("cancelled").Inc(1)
			c.logger.Infow("import resolution dismissed", "path", path)
			return err
		}
		return c.fail(ctx, command, err)
	}
	return nil
}

// fail reports a terminal failure to the user and returns it.
func (c *controller) fail(ctx context.Context, command string, err error) error {
	c.stats.Tagged(map[string]string{_tagCommand: command}).Counter("failures").Inc(1)
	c.logger.Errorw("importjs command failed", "command", command, "error", err)

	if showErr := c.ideGateway.ShowMessage(ctx, &protocol.ShowMessageParams{
		Type:    protocol.MessageTypeError,
		Message: errors.UserMessage(err),
	}); showErr != nil {
		c.logger.Warnw("showing error message", "error", showErr)
	}
	return err
}

// scope returns the project root of path within the workspace folders of the current session.
func (c *controller) scope(ctx context.Context, path string) string {
	var folders []string
	if s, err := c.sessions.GetFromContext(ctx); err == nil {
		folders = s.WorkspaceFolders
	}
	return c.workspace.ProjectRoot(ctx, folders, path)
}
