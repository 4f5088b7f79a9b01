package mapper

import (
	"fmt"
	"strings"

	protocolmapper "github.com/importjs/importjs-bridge/src/bridge/internal/protocol"
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"
)

// URIToPath returns the file system path of a file:// document URI.
func URIToPath(u protocol.DocumentURI) (string, error) {
	parsed, err := uri.Parse(string(u))
	if err != nil {
		return "", fmt.Errorf("parsing document uri %q: %w", u, err)
	}
	if !strings.HasPrefix(string(parsed), uri.FileScheme+":") {
		return "", fmt.Errorf("document uri %q is not a file uri", u)
	}
	return parsed.Filename(), nil
}

// PathToURI returns the file:// document URI of an absolute path.
func PathToURI(path string) protocol.DocumentURI {
	return uri.File(path)
}

// WordAtPosition returns the JavaScript identifier that contains or ends at pos.
// An empty string is returned when pos is not adjacent to an identifier.
func WordAtPosition(text string, pos protocol.Position) (string, error) {
	m := protocolmapper.NewTextOffsetMapper([]byte(text))
	offset, err := m.PositionOffset(pos)
	if err != nil {
		return "", fmt.Errorf("word at %d:%d: %w", pos.Line, pos.Character, err)
	}

	start, end := offset, offset
	for start > 0 && isIdentifierByte(text[start-1]) {
		start--
	}
	for end < len(text) && isIdentifierByte(text[end]) {
		end++
	}
	return text[start:end], nil
}

func isIdentifierByte(b byte) bool {
	switch {
	case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', b >= '0' && b <= '9':
		return true
	case b == '_', b == '$':
		return true
	}
	return false
}
