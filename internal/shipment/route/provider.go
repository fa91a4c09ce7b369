// Package route generates the planned checkpoint list of a shipment.
package route

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"package-tracking/internal/domain/shipment"
	"package-tracking/internal/logger"
)

// Place is one end of a route: a human label and, when known, a coordinate.
type Place struct {
	Label    string
	Location *shipment.GeoPoint
}

// Provider computes the checkpoints between two places. Implementations never
// fail: anything that goes wrong is logged and yields an empty route.
type Provider interface {
	Generate(ctx context.Context, origin, destination Place) []shipment.Checkpoint
}

// FallbackProvider tries each provider in order and keeps the first non-empty route.
type FallbackProvider struct {
	providers []Provider
}

func NewFallbackProvider(providers ...Provider) *FallbackProvider {
	return &FallbackProvider{providers: providers}
}

func (f *FallbackProvider) Generate(ctx context.Context, origin, destination Place) []shipment.Checkpoint {
	for _, p := range f.providers {
		if r := p.Generate(ctx, origin, destination); len(r) > 0 {
			return r
		}
		if ctx.Err() != nil {
			break
		}
	}

	logger.Warn("No route generated",
		zap.String("origin", origin.Label),
		zap.String("destination", destination.Label),
	)
	return []shipment.Checkpoint{}
}

func labelOr(label, fallback string) string {
	if l := strings.TrimSpace(label); l != "" {
		return l
	}
	return fallback
}
