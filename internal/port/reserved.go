package port

import (
	"fmt"
	"strconv"
	"strings"
)

// Range is an inclusive port range from the reserved-port list. A single
// port is stored with Lo == Hi.
type Range struct {
	Lo int
	Hi int
}

// Contains reports whether port falls inside the range.
func (r Range) Contains(port int) bool {
	return port >= r.Lo && port <= r.Hi
}

// String renders the range in the kernel's list syntax.
func (r Range) String() string {
	if r.Lo == r.Hi {
		return strconv.Itoa(r.Lo)
	}
	return fmt.Sprintf("%d-%d", r.Lo, r.Hi)
}

// ParseReserved parses the comma separated list found in
// ip_local_reserved_ports, e.g. "8080,9000-9010". Surrounding whitespace
// and an empty list are accepted.
func ParseReserved(s string) ([]Range, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	var ranges []Range
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}

		loStr, hiStr, isRange := strings.Cut(item, "-")
		lo, err := parsePortNumber(loStr)
		if err != nil {
			return nil, fmt.Errorf("reserved ports: %q: %w", item, err)
		}
		hi := lo
		if isRange {
			if hi, err = parsePortNumber(hiStr); err != nil {
				return nil, fmt.Errorf("reserved ports: %q: %w", item, err)
			}
			if hi < lo {
				return nil, fmt.Errorf("reserved ports: %q: range end below start", item)
			}
		}
		ranges = append(ranges, Range{Lo: lo, Hi: hi})
	}
	return ranges, nil
}

// FormatReserved is the inverse of ParseReserved.
func FormatReserved(ranges []Range) string {
	parts := make([]string, len(ranges))
	for i, r := range ranges {
		parts[i] = r.String()
	}
	return strings.Join(parts, ",")
}

// appendPort adds port to the textual list, inserting a comma only when
// the list already has entries.
func appendPort(list string, port int) string {
	list = strings.TrimSpace(list)
	if len(list) > 0 {
		list += ","
	}
	return list + strconv.Itoa(port)
}

// removePort drops single-port entries equal to port. Ranges that merely
// contain it are kept, since they were reserved by someone else.
func removePort(list string, port int) (string, bool, error) {
	ranges, err := ParseReserved(list)
	if err != nil {
		return "", false, err
	}

	kept := ranges[:0]
	removed := false
	for _, r := range ranges {
		if r.Lo == port && r.Hi == port {
			removed = true
			continue
		}
		kept = append(kept, r)
	}
	return FormatReserved(kept), removed, nil
}

func parsePortNumber(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid port number %q", s)
	}
	if n < 1 || n > maxPort {
		return 0, fmt.Errorf("port %d out of range (1-%d)", n, maxPort)
	}
	return n, nil
}
