package analysis

import (
	"strconv"
	"strings"
)

// IsPrivate reports whether ip is a dotted-quad IPv4 address in 10/8,
// 172.16/12 or 192.168/16. Anything that fails the 4-octet parse is not private.
func IsPrivate(ip string) bool {
	octets, ok := parseOctets(ip)
	if !ok {
		return false
	}

	first, second := octets[0], octets[1]
	switch {
	case first == 10:
		return true
	case first == 172 && second >= 16 && second <= 31:
		return true
	case first == 192 && second == 168:
		return true
	}
	return false
}

// IsLoopback matches the two loopback literals reported by netstat.
func IsLoopback(ip string) bool {
	return ip == "127.0.0.1" || ip == "::1"
}

// IsExternal reports a remote address that is neither private nor loopback.
func IsExternal(ip string) bool {
	return !IsPrivate(ip) && !IsLoopback(ip)
}

// Country returns an illustrative region label from the first octet.
// It is a placeholder heuristic, not geolocation.
func Country(ip string) string {
	if IsPrivate(ip) || IsLoopback(ip) {
		return "Local"
	}

	first, err := strconv.Atoi(strings.SplitN(ip, ".", 2)[0])
	if err != nil {
		return "Unknown"
	}
	switch {
	case first >= 1 && first <= 50:
		return "USA"
	case first >= 51 && first <= 100:
		return "Europe"
	case first >= 101 && first <= 150:
		return "Asia"
	default:
		return "Other"
	}
}

func parseOctets(ip string) ([4]int, bool) {
	var out [4]int
	parts := strings.Split(ip, ".")
	if len(parts) != 4 {
		return out, false
	}
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || n > 255 {
			return out, false
		}
		out[i] = n
	}
	return out, true
}
