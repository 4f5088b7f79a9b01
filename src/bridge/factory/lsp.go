package factory

import (
	"go.lsp.dev/protocol"
)

// Position returns a protocol.Position.
func Position(line, character uint32) protocol.Position {
	return protocol.Position{Line: line, Character: character}
}

// Range returns a protocol.Range between two line/character pairs.
func Range(startLine, startCharacter, endLine, endCharacter uint32) protocol.Range {
	return protocol.Range{
		Start: Position(startLine, startCharacter),
		End:   Position(endLine, endCharacter),
	}
}
