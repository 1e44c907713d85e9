// Package sampler turns the host's connection table into classified batches.
package sampler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"connwatch/internal/analysis"
	"connwatch/internal/listing"
	"connwatch/internal/models"
)

// Lister is satisfied by *listing.Chain.
type Lister interface {
	List(ctx context.Context) listing.Result
}

// Sampler runs one sampling pass: list, resolve names, classify.
type Sampler struct {
	lister     Lister
	resolver   listing.Resolver
	classifier *analysis.Classifier
	logger     zerolog.Logger
	now        func() time.Time
}

// New creates a sampler.
func New(lister Lister, resolver listing.Resolver, classifier *analysis.Classifier, logger zerolog.Logger) *Sampler {
	return &Sampler{
		lister:     lister,
		resolver:   resolver,
		classifier: classifier,
		logger:     logger.With().Str("component", "sampler").Logger(),
		now:        time.Now,
	}
}

// Sample lists connections and resolves each record's process name.
// It never fails; the listing chain degrades to a placeholder record.
func (s *Sampler) Sample(ctx context.Context) listing.Result {
	res := s.lister.List(ctx)

	names := make(map[string]string)
	records := make([]models.ConnectionRecord, len(res.Records))
	for i, rec := range res.Records {
		if rec.ProcessName == "" {
			name, ok := names[rec.PID]
			if !ok {
				name = s.resolve(ctx, rec.PID)
				names[rec.PID] = name
			}
			rec.ProcessName = name
		}
		records[i] = rec
	}
	res.Records = records

	s.logger.Debug().
		Str("source", res.Source).
		Int("connections", len(records)).
		Int("pids", len(names)).
		Msg("Sample collected")
	return res
}

// Batch runs a full pass and returns the classified batch.
func (s *Sampler) Batch(ctx context.Context) models.SampleBatch {
	res := s.Sample(ctx)
	return models.SampleBatch{
		CapturedAt:  s.now(),
		Source:      res.Source,
		Degraded:    res.Degraded,
		Connections: res.Records,
		Suspicious:  s.classifier.Suspicious(res.Records),
	}
}

func (s *Sampler) resolve(ctx context.Context, pid string) string {
	if s.resolver == nil || pid == "" || pid == "0" {
		return models.UnknownProcess
	}
	name := s.resolver.Resolve(ctx, pid)
	if name == "" {
		return models.UnknownProcess
	}
	return name
}
