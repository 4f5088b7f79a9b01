package errors

import stderr "errors"

// New returns an error that formats as the given text.
// Each call to New returns a distinct error value even if the text is identical.
func New(msg string) error {
	return stderr.New(msg)
}

var (
	// ErrSessionTerminated reports that a daemon session was shut down while a caller was waiting on it.
	ErrSessionTerminated = New("importjs daemon session terminated")
	// ErrDaemonExited reports that the daemon output ended before a pending request was answered.
	ErrDaemonExited = New("importjs daemon exited before responding")
	// ErrResolutionCancelled reports that the user dismissed an import candidate picker.
	ErrResolutionCancelled = New("import resolution cancelled")
)

// IsRetryable reports whether the error is a transport failure that justifies respawning the daemon.
func IsRetryable(e error) bool {
	var pe *PipeError
	return stderr.As(e, &pe)
}

// IsCancelled reports whether the error is the result of the user dismissing a prompt.
func IsCancelled(e error) bool {
	return stderr.Is(e, ErrResolutionCancelled)
}
