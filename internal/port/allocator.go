package port

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
)

const (
	// DefaultReservedPortsFile is the Linux sysctl holding reserved ports.
	DefaultReservedPortsFile = "/proc/sys/net/ipv4/" + reservedPortsName

	reservedPortsName = "ip_local_reserved_ports"

	// maxReservedListSize caps how much of the list is read (1 MiB).
	maxReservedListSize = 1 << 20

	maxPort = 65535
)

// ErrNotReserved is returned by Release when the port has no single-port
// entry in the list.
var ErrNotReserved = errors.New("port is not reserved")

// reservedPortsGuard serializes read-modify-write cycles on the reserved
// list across all Allocators in the process. The flock in lockFile covers
// other processes.
var reservedPortsGuard sync.Mutex

// Allocator finds free TCP ports and registers them in the kernel's
// reserved-port list.
type Allocator struct {
	// ReservedPortsFile is the list to update. DefaultReservedPortsFile
	// when empty.
	ReservedPortsFile string

	// LockDir holds the lock file and the scratch copy of the list.
	// os.TempDir() when empty.
	LockDir string

	// Committer writes the scratch copy over ReservedPortsFile.
	// ShellCommitter with DefaultCommitPrefix when nil.
	Committer Committer

	Logger zerolog.Logger
}

// NewAllocator returns an Allocator using the system defaults.
func NewAllocator(log zerolog.Logger) *Allocator {
	return &Allocator{Logger: log}
}

// FreePort returns a TCP port that was free at the time of the call.
//
// When the reserved-port file exists, the port is bound, appended to the
// list and committed before the socket is closed, which keeps the kernel
// from reusing it for outgoing connections. A failed commit returns a
// *CommitError. Without the file, FreePort degrades to NaiveFreePort.
func (a *Allocator) FreePort(ctx context.Context) (int, error) {
	path := a.reservedPortsFile()
	if _, err := os.Stat(path); err != nil {
		a.Logger.Debug().Str("path", path).Err(err).Msg("reserved ports unavailable, using naive allocation")
		return NaiveFreePort()
	}

	listener, err := net.Listen("tcp", ":0")
	if err != nil {
		return 0, fmt.Errorf("bind ephemeral port: %w", err)
	}
	defer func() { _ = listener.Close() }()

	port, err := listenerPort(listener)
	if err != nil {
		return 0, err
	}

	err = a.update(ctx, func(list string) (string, error) {
		return appendPort(list, port), nil
	})
	if err != nil {
		return 0, err
	}

	a.Logger.Debug().Int("port", port).Str("path", path).Msg("port reserved")
	return port, nil
}

// Reserved parses the current reserved-port list.
func (a *Allocator) Reserved() ([]Range, error) {
	list, err := readReserved(a.reservedPortsFile())
	if err != nil {
		return nil, err
	}
	return ParseReserved(list)
}

// Release removes the single-port entry for port from the list. Ranges
// covering the port are left alone. It returns an error wrapping
// ErrNotReserved if there is nothing to remove.
func (a *Allocator) Release(ctx context.Context, port int) error {
	err := a.update(ctx, func(list string) (string, error) {
		next, removed, err := removePort(list, port)
		if err != nil {
			return "", err
		}
		if !removed {
			return "", fmt.Errorf("release %d: %w", port, ErrNotReserved)
		}
		return next, nil
	})
	if err != nil {
		return err
	}

	a.Logger.Debug().Int("port", port).Msg("port released")
	return nil
}

// update runs one locked read-modify-commit cycle on the reserved list.
// The scratch file is removed whatever the outcome.
func (a *Allocator) update(ctx context.Context, edit func(string) (string, error)) error {
	reservedPortsGuard.Lock()
	defer reservedPortsGuard.Unlock()

	dir := a.lockDir()
	scratch, err := os.CreateTemp(dir, reservedPortsName+"-*")
	if err != nil {
		return fmt.Errorf("create scratch file: %w", err)
	}
	scratchPath := scratch.Name()
	defer func() { _ = os.Remove(scratchPath) }()
	defer func() { _ = scratch.Close() }()

	unlock, err := lockFile(filepath.Join(dir, reservedPortsName+".lck"))
	if err != nil {
		return err
	}
	defer unlock()

	path := a.reservedPortsFile()
	current, err := readReserved(path)
	if err != nil {
		return err
	}

	next, err := edit(current)
	if err != nil {
		return err
	}

	if _, err := scratch.WriteString(next); err != nil {
		return fmt.Errorf("write scratch file: %w", err)
	}
	if err := scratch.Close(); err != nil {
		return fmt.Errorf("close scratch file: %w", err)
	}

	return a.committer().Commit(ctx, scratchPath, path)
}

func (a *Allocator) reservedPortsFile() string {
	if a.ReservedPortsFile != "" {
		return a.ReservedPortsFile
	}
	return DefaultReservedPortsFile
}

func (a *Allocator) lockDir() string {
	if a.LockDir != "" {
		return a.LockDir
	}
	return os.TempDir()
}

func (a *Allocator) committer() Committer {
	if a.Committer != nil {
		return a.Committer
	}
	return ShellCommitter{}
}

func readReserved(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open reserved ports: %w", err)
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(io.LimitReader(f, maxReservedListSize))
	if err != nil {
		return "", fmt.Errorf("read reserved ports %s: %w", path, err)
	}
	return string(data), nil
}
