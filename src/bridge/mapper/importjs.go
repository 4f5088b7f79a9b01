package mapper

import (
	"encoding/json"
	"fmt"

	"github.com/importjs/importjs-bridge/src/bridge/entity"
	"github.com/importjs/importjs-bridge/src/bridge/internal/errors"
)

// CommandToPayload encodes a daemon command as a single newline terminated line.
func CommandToPayload(cmd entity.Command) ([]byte, error) {
	b, err := json.Marshal(cmd)
	if err != nil {
		return nil, fmt.Errorf("encoding %s command: %w", cmd.Command, err)
	}
	return append(b, '\n'), nil
}

// LineToResponse decodes a single daemon response line.
func LineToResponse(line string) (*entity.Response, error) {
	resp := &entity.Response{}
	if err := json.Unmarshal([]byte(line), resp); err != nil {
		return nil, &errors.DecodeError{Line: line, Err: err}
	}
	return resp, nil
}
