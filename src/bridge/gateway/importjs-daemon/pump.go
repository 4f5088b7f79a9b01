package importjsd

import (
	"bufio"
	"errors"
	"io"
	"strings"
	"unicode/utf8"

	bridgeerrors "github.com/importjs/importjs-bridge/src/bridge/internal/errors"
	"go.uber.org/zap"
)

const _pumpBufferSize = 64 * 1024

var errInvalidUTF8 = errors.New("invalid UTF-8")

// pump copies newline delimited output from r into lines until end of stream, then closes r.
// A line that is not valid UTF-8 is still queued, carrying a DecodeError, so it consumes exactly one response slot.
// A read error other than end of stream stops the pump and is returned as a PipeError.
func pump(r io.ReadCloser, lines *lineQueue, logger *zap.SugaredLogger) error {
	defer r.Close()

	reader := bufio.NewReaderSize(r, _pumpBufferSize)
	for {
		raw, err := reader.ReadString('\n')
		if len(raw) > 0 && (err == nil || errors.Is(err, io.EOF)) {
			lines.push(decodeLine(raw))
		}

		if err != nil {
			if errors.Is(err, io.EOF) {
				logger.Debug("importjs daemon output closed")
				return nil
			}
			logger.Warnw("reading importjs daemon output", "error", err)
			return &bridgeerrors.PipeError{Op: "read", Err: err}
		}
	}
}

func decodeLine(raw string) outputLine {
	text := strings.TrimRight(raw, "\r\n")
	if !utf8.ValidString(text) {
		return outputLine{text: text, err: &bridgeerrors.DecodeError{Line: text, Err: errInvalidUTF8}}
	}
	return outputLine{text: text}
}
