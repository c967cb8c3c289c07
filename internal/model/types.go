package model

import (
	"fmt"
	"strings"
)

// Protocol is a transport protocol accepted by the port probe.
type Protocol string

const (
	// ProtocolTCP is the default protocol for port probing and allocation.
	ProtocolTCP Protocol = "tcp"

	// ProtocolUDP probes datagram sockets via net.ListenPacket.
	ProtocolUDP Protocol = "udp"
)

// String satisfies fmt.Stringer.
func (p Protocol) String() string {
	return string(p)
}

// IsValid reports whether p is one of the supported protocols.
func (p Protocol) IsValid() bool {
	switch p {
	case ProtocolTCP, ProtocolUDP:
		return true
	default:
		return false
	}
}

// ParseProtocol converts a string to a Protocol. An empty string yields TCP,
// matching the default used everywhere else in the tool.
func ParseProtocol(s string) (Protocol, error) {
	if s == "" {
		return ProtocolTCP, nil
	}
	p := Protocol(strings.ToLower(s))
	if !p.IsValid() {
		return "", fmt.Errorf("invalid protocol: %q (valid: tcp, udp)", s)
	}
	return p, nil
}

// ExitCode defines the process exit statuses of the harnessutil binary.
// Test harnesses branch on these, so the values are stable.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitInvalidArgument indicates a flag or argument was rejected before
	// any work started (e.g. negative retry count).
	ExitInvalidArgument ExitCode = 2

	// ExitConfigError indicates the config file could not be read, parsed
	// or validated.
	ExitConfigError ExitCode = 3

	// ExitPortAllocationFailed indicates a port could not be bound or the
	// reserved-port list could not be committed.
	ExitPortAllocationFailed ExitCode = 4

	// ExitFetchFailed indicates the fetch helper produced no output.
	ExitFetchFailed ExitCode = 5

	// ExitRetryExhausted indicates every retry attempt failed.
	ExitRetryExhausted ExitCode = 6
)

// CLIError is an error that carries an exit code. The cli package wraps
// helper errors in it so Execute can pick the process exit status.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error returns the message, followed by the underlying error when present.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}
