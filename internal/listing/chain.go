package listing

import (
	"context"
	"runtime"
	"time"

	"github.com/rs/zerolog"

	"connwatch/internal/models"
)

// PlaceholderSource is the name reported when every strategy failed.
const PlaceholderSource = "placeholder"

// Placeholder returns the synthetic record shown in degraded mode.
func Placeholder() []models.ConnectionRecord {
	return []models.ConnectionRecord{{
		PID:           "1234",
		ProcessName:   "System",
		Protocol:      "TCP",
		LocalAddress:  "127.0.0.1",
		LocalPort:     80,
		RemoteAddress: "8.8.8.8",
		RemotePort:    443,
		State:         stateEstablished,
	}}
}

// Chain tries its sources in order and returns the first success.
// If all fail, it returns the placeholder record with Degraded set.
type Chain struct {
	sources []Source
	logger  zerolog.Logger
}

// NewChain builds a chain over the given sources.
func NewChain(logger zerolog.Logger, sources ...Source) *Chain {
	return &Chain{
		sources: sources,
		logger:  logger.With().Str("component", "listing").Logger(),
	}
}

// Sources returns the strategy names in order.
func (c *Chain) Sources() []string {
	names := make([]string, 0, len(c.sources))
	for _, s := range c.sources {
		names = append(names, s.Name())
	}
	return names
}

// List never fails.
func (c *Chain) List(ctx context.Context) Result {
	for _, src := range c.sources {
		start := time.Now()
		records, err := src.List(ctx)
		if err != nil {
			c.logger.Warn().
				Err(err).
				Str("source", src.Name()).
				Dur("elapsed", time.Since(start)).
				Msg("Listing strategy failed, trying next")
			continue
		}
		c.logger.Debug().
			Str("source", src.Name()).
			Int("records", len(records)).
			Dur("elapsed", time.Since(start)).
			Msg("Listing strategy succeeded")
		return Result{Source: src.Name(), Records: records}
	}

	c.logger.Warn().Msg("All listing strategies failed; showing placeholder data (check administrator permissions)")
	return Result{Source: PlaceholderSource, Records: Placeholder(), Degraded: true}
}

// DefaultStrategies is the strategy order for the running platform.
func DefaultStrategies() []string {
	if runtime.GOOS == "windows" {
		return []string{"netstat", "powershell", "gopsutil"}
	}
	return []string{"gopsutil"}
}
