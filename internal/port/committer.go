package port

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// DefaultCommitPrefix runs the copy through non-interactive sudo, since the
// reserved-port sysctl is writable only by root.
var DefaultCommitPrefix = []string{"sudo", "-n", "sh", "-c"}

// Committer copies a prepared file over the reserved-port list.
type Committer interface {
	Commit(ctx context.Context, src, dst string) error
}

// CommitError reports a failed privileged write.
type CommitError struct {
	// Path is the file that could not be written.
	Path string

	// ExitCode is the commit command's exit status, or -1 if it could not
	// be started.
	ExitCode int

	// Stderr is the trimmed error output of the command.
	Stderr string

	Err error
}

func (e *CommitError) Error() string {
	msg := fmt.Sprintf("cannot write to %s: %d", e.Path, e.ExitCode)
	if e.Stderr != "" {
		msg += " (" + e.Stderr + ")"
	}
	return msg
}

func (e *CommitError) Unwrap() error {
	return e.Err
}

// ShellCommitter runs "cat <src> > <dst>" as the last argument of Prefix.
// With the default prefix that is: sudo -n sh -c 'cat src > dst'. Prefix
// must therefore end in a shell's -c flag; config.Validate enforces this
// for configured prefixes.
type ShellCommitter struct {
	Prefix []string
}

// Commit executes the copy and maps any failure to *CommitError.
func (c ShellCommitter) Commit(ctx context.Context, src, dst string) error {
	prefix := c.Prefix
	if len(prefix) == 0 {
		prefix = DefaultCommitPrefix
	}

	args := make([]string, 0, len(prefix))
	args = append(args, prefix[1:]...)
	args = append(args, fmt.Sprintf("cat %s > %s", shellQuote(src), shellQuote(dst)))

	// #nosec G204 -- prefix comes from configuration, paths are quoted
	cmd := exec.CommandContext(ctx, prefix[0], args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return nil
	}

	commitErr := &CommitError{
		Path:     dst,
		ExitCode: -1,
		Stderr:   strings.TrimSpace(stderr.String()),
		Err:      err,
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		commitErr.ExitCode = exitErr.ExitCode()
	}
	return commitErr
}

// shellQuote wraps s in single quotes for sh.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
