// Package port hands out free TCP ports to test harnesses.
//
// On Linux the allocator does more than bind ":0": it appends the port to
// the kernel's reserved-port list (net.ipv4.ip_local_reserved_ports) so
// the kernel will not hand the same port out as an ephemeral port before
// the caller binds it for real. The list is global OS state, so updates
// are serialized inside the process with a mutex and across processes
// with an flock on a lock file, then committed through a privileged
// command (sudo -n by default).
//
// When the reserved-port interface is missing, FreePort falls back to
// NaiveFreePort, which has the usual bind-close-rebind race.
package port
