package listing

import (
	"context"
	"errors"

	"connwatch/internal/models"
)

// ErrNoOutput is returned when a listing command succeeds but prints nothing usable.
var ErrNoOutput = errors.New("listing produced no output")

// Source lists the host's established TCP connections.
// Records come back with ProcessName left empty; the sampler resolves names.
type Source interface {
	Name() string
	List(ctx context.Context) ([]models.ConnectionRecord, error)
}

// Resolver maps a pid to a display name, or models.UnknownProcess.
type Resolver interface {
	Resolve(ctx context.Context, pid string) string
}

// Result is the tagged outcome of running a chain of sources.
type Result struct {
	Source   string
	Records  []models.ConnectionRecord
	Degraded bool
}

// psConnection mirrors one object of Get-NetTCPConnection | ConvertTo-Json
// after the Select-Object projection used by PowerShellSource.
type psConnection struct {
	LocalAddress  string `json:"LocalAddress"`
	LocalPort     int    `json:"LocalPort"`
	RemoteAddress string `json:"RemoteAddress"`
	RemotePort    int    `json:"RemotePort"`
	State         string `json:"State"`
	OwningProcess int    `json:"OwningProcess"`
}
