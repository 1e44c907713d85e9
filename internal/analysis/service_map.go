package analysis

import (
	"strconv"
	"strings"

	"github.com/google/gopacket/layers"
)

var commonPorts = map[int]string{
	20:    "FTP-DATA",
	21:    "FTP",
	22:    "SSH",
	23:    "Telnet",
	25:    "SMTP",
	53:    "DNS",
	80:    "HTTP",
	110:   "POP3",
	143:   "IMAP",
	443:   "HTTPS",
	445:   "SMB",
	1337:  "leet",
	3306:  "MySQL",
	3389:  "RDP",
	4444:  "Metasploit",
	5432:  "PostgreSQL",
	6379:  "Redis",
	8080:  "HTTP-Alt",
	31337: "Back Orifice",
}

// GetServiceName returns the common name for a TCP port. Ports missing from
// the local table fall back to the IANA names bundled with gopacket, and
// finally to the port number.
func GetServiceName(port int) string {
	if name, ok := commonPorts[port]; ok {
		return name
	}
	if port <= 0 || port > 65535 {
		return strconv.Itoa(port)
	}

	// TCPPort.String renders "443(https)" for registered ports
	s := layers.TCPPort(port).String()
	if open := strings.IndexByte(s, '('); open >= 0 && strings.HasSuffix(s, ")") {
		return s[open+1 : len(s)-1]
	}
	return strconv.Itoa(port)
}
