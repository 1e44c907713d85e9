package listing

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/shirou/gopsutil/v4/net"

	"connwatch/internal/models"
)

// SystemSource reads the connection table through gopsutil. It works on
// every platform gopsutil supports and needs no external command.
type SystemSource struct {
	Timeout time.Duration
	// Connections is swappable for tests.
	Connections func(ctx context.Context, kind string) ([]net.ConnectionStat, error)
}

// NewSystemSource returns a gopsutil-backed structured source.
func NewSystemSource(timeout time.Duration) *SystemSource {
	return &SystemSource{Timeout: timeout, Connections: net.ConnectionsWithContext}
}

func (s *SystemSource) Name() string { return "gopsutil" }

func (s *SystemSource) List(ctx context.Context) ([]models.ConnectionRecord, error) {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultFallbackTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	list := s.Connections
	if list == nil {
		list = net.ConnectionsWithContext
	}

	stats, err := list(ctx, "tcp")
	if err != nil {
		return nil, fmt.Errorf("gopsutil connections: %w", err)
	}

	var records []models.ConnectionRecord
	for _, st := range stats {
		if st.Status != stateEstablished {
			continue
		}
		records = append(records, models.ConnectionRecord{
			PID:           strconv.Itoa(int(st.Pid)),
			Protocol:      "TCP",
			LocalAddress:  st.Laddr.IP,
			LocalPort:     int(st.Laddr.Port),
			RemoteAddress: st.Raddr.IP,
			RemotePort:    int(st.Raddr.Port),
			State:         st.Status,
		})
	}
	return records, nil
}
