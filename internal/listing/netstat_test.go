package listing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleNetstat = "\r\n" +
	"Active Connections\r\n" +
	"\r\n" +
	"  Proto  Local Address          Foreign Address        State           PID\r\n" +
	"  TCP    0.0.0.0:135            0.0.0.0:0              LISTENING       1044\r\n" +
	"  TCP    192.168.1.5:50000      185.12.0.1:4444        ESTABLISHED     2200\r\n" +
	"  TCP    192.168.1.5:50001      10.0.0.7:443           ESTABLISHED     abc\r\n" +
	"  TCP    192.168.1.5:50002      10.0.0.8:443           ESTABLISHED\r\n" +
	"  TCP    [::1]:49712            [::1]:8080             ESTABLISHED     3300\r\n" +
	"  TCP    127.0.0.1:5000         localhost              ESTABLISHED     4400\r\n" +
	"  UDP    0.0.0.0:5353           *:*                                    1200\r\n"

func TestParseNetstat(t *testing.T) {
	records := ParseNetstat(sampleNetstat, DefaultHeaderLines)
	require.Len(t, records, 3)

	first := records[0]
	assert.Equal(t, "2200", first.PID)
	assert.Equal(t, "TCP", first.Protocol)
	assert.Equal(t, "192.168.1.5", first.LocalAddress)
	assert.Equal(t, 50000, first.LocalPort)
	assert.Equal(t, "185.12.0.1", first.RemoteAddress)
	assert.Equal(t, 4444, first.RemotePort)
	assert.Equal(t, "ESTABLISHED", first.State)
	assert.Empty(t, first.ProcessName)

	v6 := records[1]
	assert.Equal(t, "::1", v6.LocalAddress)
	assert.Equal(t, 49712, v6.LocalPort)
	assert.Equal(t, "::1", v6.RemoteAddress)
	assert.Equal(t, 8080, v6.RemotePort)

	noColon := records[2]
	assert.Equal(t, "localhost", noColon.RemoteAddress)
	assert.Equal(t, 0, noColon.RemotePort)
}

func TestParseNetstat_SkipsHeaderLines(t *testing.T) {
	out := "  TCP    10.0.0.1:1 10.0.0.2:2 ESTABLISHED 10\n" +
		"  TCP    10.0.0.1:3 10.0.0.2:4 ESTABLISHED 11\n"

	assert.Len(t, ParseNetstat(out, 0), 2)
	assert.Len(t, ParseNetstat(out, 1), 1)
	assert.Empty(t, ParseNetstat(out, 4))
}

func TestParseLine_Malformed(t *testing.T) {
	cases := map[string]string{
		"too few fields":  "TCP 10.0.0.1:1 10.0.0.2:2 ESTABLISHED",
		"non-numeric pid": "TCP 10.0.0.1:1 10.0.0.2:2 ESTABLISHED x12",
		"negative pid":    "TCP 10.0.0.1:1 10.0.0.2:2 ESTABLISHED -4",
		"not established": "TCP 10.0.0.1:1 10.0.0.2:2 TIME_WAIT 12",
		"bad port":        "TCP 10.0.0.1:http 10.0.0.2:2 ESTABLISHED 12",
		"port overflow":   "TCP 10.0.0.1:70000 10.0.0.2:2 ESTABLISHED 12",
		"empty":           "",
	}
	for name, line := range cases {
		t.Run(name, func(t *testing.T) {
			_, ok := ParseLine(line)
			assert.False(t, ok)
		})
	}
}

func TestParseNetstat_MalformedDoesNotAffectSiblings(t *testing.T) {
	out := "TCP 10.0.0.1:1 10.0.0.2:2 ESTABLISHED 10\n" +
		"TCP 10.0.0.1:1 ESTABLISHED\n" +
		"TCP 10.0.0.1:3 10.0.0.2:4 ESTABLISHED zz\n" +
		"TCP 10.0.0.1:5 10.0.0.2:6 ESTABLISHED 12\n"

	records := ParseNetstat(out, 0)
	require.Len(t, records, 2)
	assert.Equal(t, "10", records[0].PID)
	assert.Equal(t, "12", records[1].PID)
}

func TestSplitEndpoint(t *testing.T) {
	tests := []struct {
		in       string
		wantAddr string
		wantPort string
	}{
		{"192.168.1.1:443", "192.168.1.1", "443"},
		{"[fe80::1]:22", "fe80::1", "22"},
		{"::1:8080", "::1", "8080"},
		{"hostonly", "hostonly", "0"},
		{"10.0.0.1:", "10.0.0.1", ""},
	}
	for _, tt := range tests {
		addr, port := SplitEndpoint(tt.in)
		assert.Equal(t, tt.wantAddr, addr, tt.in)
		assert.Equal(t, tt.wantPort, port, tt.in)
	}
}

func TestNetstatSource_List(t *testing.T) {
	var gotName string
	var gotArgs []string
	src := NewNetstatSource(0, DefaultHeaderLines)
	src.Run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		gotName, gotArgs = name, args
		return []byte(sampleNetstat), nil
	}

	records, err := src.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 3)
	assert.Equal(t, "netstat", gotName)
	assert.Equal(t, []string{"-ano"}, gotArgs)
}

func TestNetstatSource_ListError(t *testing.T) {
	src := NewNetstatSource(0, DefaultHeaderLines)
	src.Run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return nil, errors.New("exit status 1")
	}

	_, err := src.List(context.Background())
	assert.Error(t, err)
}
