package bridge

import (
	"context"
	"fmt"

	"github.com/importjs/importjs-bridge/src/bridge/entity"
	"github.com/importjs/importjs-bridge/src/bridge/mapper"
	"go.lsp.dev/protocol"
)

func (c *controller) DidOpen(ctx context.Context, params *protocol.DidOpenTextDocumentParams) error {
	doc := entity.Document{
		URI:     params.TextDocument.URI,
		Version: params.TextDocument.Version,
		Text:    params.TextDocument.Text,
	}
	if err := c.documents.Set(ctx, doc); err != nil {
		return fmt.Errorf("storing opened document: %w", err)
	}
	return nil
}

// DidChange stores the latest text of a document. Only full document synchronization is advertised.
func (c *controller) DidChange(ctx context.Context, params *protocol.DidChangeTextDocumentParams) error {
	text, ok := mapper.LatestText(params.ContentChanges)
	if !ok {
		return nil
	}

	doc := entity.Document{
		URI:     params.TextDocument.URI,
		Version: params.TextDocument.Version,
		Text:    text,
	}
	if err := c.documents.Set(ctx, doc); err != nil {
		return fmt.Errorf("storing changed document: %w", err)
	}
	return nil
}

func (c *controller) DidClose(ctx context.Context, params *protocol.DidCloseTextDocumentParams) error {
	if err := c.documents.Delete(ctx, params.TextDocument.URI); err != nil {
		return fmt.Errorf("removing closed document: %w", err)
	}
	return nil
}
