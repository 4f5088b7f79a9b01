package mapper

import (
	"context"

	"github.com/gofrs/uuid"
	"github.com/importjs/importjs-bridge/src/bridge/entity"
	"github.com/importjs/importjs-bridge/src/bridge/internal/errors"
	"github.com/importjs/importjs-bridge/src/bridge/model"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
)

// SessionToModel maps a Session entity to its model equivalent.
func SessionToModel(f *entity.Session) *model.Session {
	return &model.Session{
		UUID:             f.UUID,
		InitializeParams: f.InitializeParams,
		Conn:             f.Conn,
		WorkspaceFolders: append([]string(nil), f.WorkspaceFolders...),
		ClientName:       f.ClientName,
	}
}

// ModelToSession maps a model Session to its entity equivalent.
func ModelToSession(f *model.Session) (*entity.Session, error) {
	return &entity.Session{
		UUID:             f.UUID,
		InitializeParams: f.InitializeParams,
		Conn:             f.Conn,
		WorkspaceFolders: append([]string(nil), f.WorkspaceFolders...),
		ClientName:       f.ClientName,
	}, nil
}

// UUIDToSession initializes a new Session entity with the assigned uuid and connection.
func UUIDToSession(u uuid.UUID, c *jsonrpc2.Conn) *entity.Session {
	return &entity.Session{
		UUID: u,
		Conn: c,
	}
}

// SessionUUIDToContext returns a child of ctx addressed to the session with the given id.
func SessionUUIDToContext(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, entity.SessionContextKey, id)
}

// ContextToSessionUUID extracts the UUID from a context
func ContextToSessionUUID(c context.Context) (uuid.UUID, error) {
	s, ok := c.Value(entity.SessionContextKey).(uuid.UUID)
	if !ok {
		return uuid.Nil, &errors.NoSessionFoundError{}
	}
	return s, nil
}

// DocumentToModel maps a Document entity to its model equivalent.
func DocumentToModel(d entity.Document) model.Document {
	return model.Document{
		Version: d.Version,
		Text:    d.Text,
	}
}

// ModelToDocument maps a model Document stored under uri to its entity equivalent.
func ModelToDocument(uri protocol.DocumentURI, d model.Document) entity.Document {
	return entity.Document{
		URI:     uri,
		Version: d.Version,
		Text:    d.Text,
	}
}

// InitializeParamsToWorkspaceFolders returns the file system paths of the workspace folders announced by the editor,
// falling back to the deprecated root fields.
func InitializeParamsToWorkspaceFolders(params *protocol.InitializeParams) []string {
	if params == nil {
		return nil
	}

	folders := make([]string, 0, len(params.WorkspaceFolders))
	for _, f := range params.WorkspaceFolders {
		if path, err := URIToPath(protocol.DocumentURI(f.URI)); err == nil {
			folders = append(folders, path)
		}
	}
	if len(folders) > 0 {
		return folders
	}

	if params.RootURI != "" {
		if path, err := URIToPath(protocol.DocumentURI(params.RootURI)); err == nil {
			return []string{path}
		}
	}
	if params.RootPath != "" {
		return []string{params.RootPath}
	}
	return nil
}
