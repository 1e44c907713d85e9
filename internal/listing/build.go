package listing

import (
	"fmt"
	"time"
)

// Options carries the timeouts used when building sources by name.
type Options struct {
	PrimaryTimeout  time.Duration
	FallbackTimeout time.Duration
	HeaderLines     int
}

// BuildSources maps strategy names to sources, preserving order.
func BuildSources(names []string, opts Options) ([]Source, error) {
	sources := make([]Source, 0, len(names))
	for _, name := range names {
		switch name {
		case "netstat":
			sources = append(sources, NewNetstatSource(opts.PrimaryTimeout, opts.HeaderLines))
		case "powershell":
			sources = append(sources, NewPowerShellSource(opts.FallbackTimeout))
		case "gopsutil":
			sources = append(sources, NewSystemSource(opts.FallbackTimeout))
		default:
			return nil, fmt.Errorf("unknown listing strategy: %q", name)
		}
	}
	return sources, nil
}
