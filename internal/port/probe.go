package port

import (
	"fmt"
	"net"

	"github.com/shinji-kodama/harnessutil/internal/model"
)

// IsPortAvailable reports whether port can be bound on all interfaces for
// the given protocol. The probe socket is closed before returning, so the
// answer is only a snapshot.
func IsPortAvailable(port int, protocol model.Protocol) bool {
	if port < 1 || port > maxPort {
		return false
	}
	addr := fmt.Sprintf(":%d", port)

	switch protocol {
	case model.ProtocolTCP:
		listener, err := net.Listen("tcp", addr)
		if err != nil {
			return false
		}
		_ = listener.Close()
		return true

	case model.ProtocolUDP:
		conn, err := net.ListenPacket("udp", addr)
		if err != nil {
			return false
		}
		_ = conn.Close()
		return true

	default:
		// Unknown protocol: fail safe.
		return false
	}
}

// NaiveFreePort binds an OS-assigned TCP port, records it and closes the
// socket. Another process may grab the port before the caller binds it.
func NaiveFreePort() (int, error) {
	listener, err := net.Listen("tcp", ":0")
	if err != nil {
		return 0, fmt.Errorf("bind ephemeral port: %w", err)
	}
	defer func() { _ = listener.Close() }()

	return listenerPort(listener)
}

func listenerPort(listener net.Listener) (int, error) {
	tcpAddr, ok := listener.Addr().(*net.TCPAddr)
	if !ok {
		return 0, fmt.Errorf("unexpected listener address type %T", listener.Addr())
	}
	return tcpAddr.Port, nil
}
