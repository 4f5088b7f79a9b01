package errors

import (
	"fmt"

	"github.com/gofrs/uuid"
	"go.lsp.dev/protocol"
)

// DocumentNotFoundError reports a command for a document the editor never opened, or already closed.
type DocumentNotFoundError struct {
	URI protocol.DocumentURI
}

func (n *DocumentNotFoundError) Error() string {
	return fmt.Sprintf("document %s is not open in the editor", n.URI)
}

// UUIDNotFoundError reports an editor session that is not, or no longer, connected.
type UUIDNotFoundError struct {
	UUID uuid.UUID
}

func (n *UUIDNotFoundError) Error() string {
	return fmt.Sprintf("session %q not found", n.UUID)
}

// NoSessionFoundError reports a context that carries no session UUID.
type NoSessionFoundError struct{}

func (n *NoSessionFoundError) Error() string {
	return "no editor session in context"
}
