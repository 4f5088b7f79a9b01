package errors

import (
	stderr "errors"
	"fmt"
	"strings"
)

const _noExecutableTemplate = `Couldn't find executable %[1]s.

Make sure you have the %[1]s binary installed (npm install import-js -g).

If it is installed but you still get this message, and you are using something like nvm or nodenv,
you probably need to configure your PATH correctly. Make sure that the code that sets up your PATH
for these tools is located in .bash_profile, .zprofile, or the equivalent file for your shell.

Alternatively, set the "paths" option in your ImportJS settings. Example:

    paths:
      - /Users/USERNAME/.nvm/versions/node/v4.4.3/bin

To see where the %[1]s binary is located, run "which %[1]s" from your project's root.`

// ExecutableNotFoundError indicates that the daemon binary could not be located when spawning it.
type ExecutableNotFoundError struct {
	Executable string
	Err        error
}

// Error is an implementation of the error interface.
func (n *ExecutableNotFoundError) Error() string {
	return fmt.Sprintf("executable %q not found", n.Executable)
}

// Unwrap returns the underlying lookup error.
func (n *ExecutableNotFoundError) Unwrap() error {
	return n.Err
}

// Remediation returns user facing guidance on installing or locating the executable.
func (n *ExecutableNotFoundError) Remediation() string {
	return fmt.Sprintf(_noExecutableTemplate, n.Executable)
}

// SpawnError indicates that the daemon process could not be started for a reason other than a missing binary.
type SpawnError struct {
	Executable string
	Err        error
}

// Error is an implementation of the error interface.
func (n *SpawnError) Error() string {
	return fmt.Sprintf("starting %q: %s", n.Executable, n.Err)
}

// Unwrap returns the underlying OS error.
func (n *SpawnError) Unwrap() error {
	return n.Err
}

// PipeError indicates that reading or writing the daemon's standard streams failed.
type PipeError struct {
	Op  string
	Err error
}

// Error is an implementation of the error interface.
func (n *PipeError) Error() string {
	return fmt.Sprintf("importjs daemon pipe %s: %s", n.Op, n.Err)
}

// Unwrap returns the underlying I/O error.
func (n *PipeError) Unwrap() error {
	return n.Err
}

// ProtocolError is a well formed daemon response whose error field is set.
type ProtocolError struct {
	Message string
}

// Error is an implementation of the error interface.
func (n *ProtocolError) Error() string {
	return strings.TrimSpace(n.Message)
}

// DecodeError indicates that a response line was not valid UTF-8 or not valid JSON.
type DecodeError struct {
	Line string
	Err  error
}

// Error is an implementation of the error interface.
func (n *DecodeError) Error() string {
	return fmt.Sprintf("decoding importjs daemon response %q: %s", truncate(n.Line, 80), n.Err)
}

// Unwrap returns the underlying decoding error.
func (n *DecodeError) Unwrap() error {
	return n.Err
}

// UnknownCommandError indicates an executeCommand request for a command this service does not provide.
type UnknownCommandError struct {
	Command string
}

// Error is an implementation of the error interface.
func (n *UnknownCommandError) Error() string {
	return fmt.Sprintf("unknown command %q", n.Command)
}

// UserMessage returns the text that should be shown to the user for a terminal failure.
func UserMessage(e error) string {
	var nf *ExecutableNotFoundError
	if stderr.As(e, &nf) {
		return nf.Remediation()
	}
	var se *SpawnError
	if stderr.As(e, &se) {
		return se.Err.Error()
	}
	var pe *ProtocolError
	if stderr.As(e, &pe) {
		return pe.Error()
	}
	return fmt.Sprintf("Error when executing importjs: %s", e)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
