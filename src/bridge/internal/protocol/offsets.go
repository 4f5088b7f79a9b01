// Package protocol converts between byte offsets and LSP positions, whose characters count UTF-16 code units.
package protocol

import (
	"fmt"
	"sort"
	"unicode/utf8"

	"go.lsp.dev/protocol"
)

// TextOffsetMapper converts positions within a fixed text.
type TextOffsetMapper struct {
	content   []byte
	lineStart []int
}

// NewTextOffsetMapper indexes the line starts of content.
func NewTextOffsetMapper(content []byte) *TextOffsetMapper {
	m := &TextOffsetMapper{content: content, lineStart: []int{0}}
	for i, b := range content {
		if b == '\n' {
			m.lineStart = append(m.lineStart, i+1)
		}
	}
	return m
}

// PositionOffset returns the byte offset of p. A position one line past the last line is valid only at column 0.
func (m *TextOffsetMapper) PositionOffset(p protocol.Position) (int, error) {
	line := int(p.Line)
	switch {
	case line > len(m.lineStart):
		return 0, fmt.Errorf("line %d out of range 0-%d", p.Line, len(m.lineStart))
	case line == len(m.lineStart):
		if p.Character == 0 {
			return len(m.content), nil
		}
		return 0, fmt.Errorf("column %d is beyond end of file", p.Character)
	}

	offset := m.lineStart[line]
	for units := 0; units < int(p.Character); {
		if offset >= len(m.content) {
			return 0, fmt.Errorf("column %d is beyond end of file", p.Character)
		}
		r, size := utf8.DecodeRune(m.content[offset:])
		if r == '\n' {
			return 0, fmt.Errorf("column %d is beyond end of line %d", p.Character, p.Line)
		}
		if r == utf8.RuneError && size == 1 {
			return 0, fmt.Errorf("invalid UTF-8 at offset %d", offset)
		}
		units += utf16Units(r)
		if units > int(p.Character) {
			// The position splits a surrogate pair; stay at the rune start.
			break
		}
		offset += size
	}
	return offset, nil
}

// OffsetPosition returns the position of a byte offset. An offset inside "\r\n" maps to the end of its line.
func (m *TextOffsetMapper) OffsetPosition(offset int) (protocol.Position, error) {
	if offset < 0 || offset > len(m.content) {
		return protocol.Position{}, fmt.Errorf("offset %d out of range 0-%d", offset, len(m.content))
	}

	line := sort.Search(len(m.lineStart), func(i int) bool { return m.lineStart[i] > offset }) - 1
	start := m.lineStart[line]
	end := offset
	if end > start && m.content[end-1] == '\r' && (end == len(m.content) || m.content[end] == '\n') {
		end--
	}
	return protocol.Position{Line: uint32(line), Character: uint32(UTF16Len(m.content[start:end]))}, nil
}

// UTF16Len returns the number of UTF-16 code units needed to encode s.
func UTF16Len(s []byte) int {
	n := 0
	for len(s) > 0 {
		r, size := utf8.DecodeRune(s)
		n += utf16Units(r)
		s = s[size:]
	}
	return n
}

func utf16Units(r rune) int {
	if r >= 0x10000 {
		return 2
	}
	return 1
}
