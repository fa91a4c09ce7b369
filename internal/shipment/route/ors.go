package route

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"package-tracking/internal/domain/shipment"
	"package-tracking/internal/logger"
)

const (
	DefaultORSBaseURL  = "https://api.openrouteservice.org"
	DefaultORSTimeout  = 10 * time.Second
	DefaultSampleCount = 50

	orsDirectionsPath = "/v2/directions/driving-car"
)

type ORSConfig struct {
	APIKey      string
	BaseURL     string
	Timeout     time.Duration
	SampleCount int
}

// ORSProvider builds routes from OpenRouteService driving directions.
type ORSProvider struct {
	cfg        ORSConfig
	httpClient *http.Client
	now        func() time.Time
}

func NewORSProvider(cfg ORSConfig) *ORSProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultORSBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultORSTimeout
	}
	if cfg.SampleCount <= 0 {
		cfg.SampleCount = DefaultSampleCount
	}
	return &ORSProvider{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		now:        time.Now,
	}
}

type orsRequest struct {
	Coordinates [][2]float64 `json:"coordinates"`
	Format      string       `json:"format"`
}

type orsGeometry struct {
	Coordinates [][2]float64
	Encoded     string
}

func (g *orsGeometry) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &g.Encoded)
	}
	var obj struct {
		Coordinates [][2]float64 `json:"coordinates"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	g.Coordinates = obj.Coordinates
	return nil
}

type orsSummary struct {
	Duration float64 `json:"duration"`
}

type orsResponse struct {
	Routes []struct {
		Geometry *orsGeometry `json:"geometry"`
		Summary  orsSummary   `json:"summary"`
	} `json:"routes"`
	Features []struct {
		Geometry   *orsGeometry `json:"geometry"`
		Properties struct {
			Summary orsSummary `json:"summary"`
		} `json:"properties"`
	} `json:"features"`
}

func (p *ORSProvider) Generate(ctx context.Context, origin, destination Place) []shipment.Checkpoint {
	from, okFrom := resolvePoint(origin)
	to, okTo := resolvePoint(destination)
	if !okFrom || !okTo {
		logger.Warn("Route provider skipped: missing coordinates",
			zap.String("origin", origin.Label),
			zap.String("destination", destination.Label),
		)
		return []shipment.Checkpoint{}
	}

	coords, duration, err := p.fetch(ctx, from, to)
	if err != nil {
		logger.Error("Route provider request failed",
			zap.Error(fmt.Errorf("%w: %v", shipment.ErrUpstreamProvider, err)),
		)
		return []shipment.Checkpoint{}
	}

	return p.build(coords, duration, origin, destination)
}

func (p *ORSProvider) fetch(ctx context.Context, from, to shipment.GeoPoint) ([][2]float64, time.Duration, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	body, err := json.Marshal(orsRequest{
		Coordinates: [][2]float64{from.Coordinates, to.Coordinates},
		Format:      "geojson",
	})
	if err != nil {
		return nil, 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(p.cfg.BaseURL, "/")+orsDirectionsPath, bytes.NewReader(body))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, application/geo+json")
	req.Header.Set("Authorization", p.cfg.APIKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, 0, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, 0, fmt.Errorf("status %d: %s", resp.StatusCode, truncate(string(raw), 500))
	}

	var out orsResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, 0, fmt.Errorf("decode response: %w", err)
	}

	var (
		geom    *orsGeometry
		seconds float64
	)
	switch {
	case len(out.Routes) > 0 && out.Routes[0].Geometry != nil:
		geom, seconds = out.Routes[0].Geometry, out.Routes[0].Summary.Duration
	case len(out.Features) > 0 && out.Features[0].Geometry != nil:
		geom, seconds = out.Features[0].Geometry, out.Features[0].Properties.Summary.Duration
	default:
		return nil, 0, fmt.Errorf("no route geometry in response")
	}

	coords := geom.Coordinates
	if geom.Encoded != "" {
		if coords, err = DecodePolyline(geom.Encoded); err != nil {
			return nil, 0, err
		}
	}
	if len(coords) == 0 {
		return nil, 0, fmt.Errorf("empty route geometry")
	}
	return coords, time.Duration(seconds * float64(time.Second)), nil
}

func (p *ORSProvider) build(coords [][2]float64, duration time.Duration, origin, destination Place) []shipment.Checkpoint {
	for _, c := range coords {
		if !shipment.ValidCoordinates(c[0], c[1]) {
			logger.Warn("Route provider returned invalid coordinates", zap.Float64s("point", c[:]))
			return []shipment.Checkpoint{}
		}
	}

	sampled := Sample(coords, p.cfg.SampleCount)
	last := len(sampled) - 1
	start := p.now().UTC()

	out := make([]shipment.Checkpoint, len(sampled))
	for i, c := range sampled {
		var label string
		switch i {
		case 0:
			label = labelOr(origin.Label, "Origin")
		case last:
			label = labelOr(destination.Label, "Destination")
		default:
			label = fmt.Sprintf("Stop %d", i)
		}

		cp := shipment.Checkpoint{City: label, Location: shipment.NewPoint(c[0], c[1])}
		if duration > 0 && last > 0 {
			eta := start.Add(time.Duration(float64(duration) * float64(i) / float64(last)))
			cp.ETA = &eta
		}
		out[i] = cp
	}
	return out
}

// resolvePoint uses the place's own coordinate or falls back to the gazetteer.
func resolvePoint(p Place) (shipment.GeoPoint, bool) {
	if p.Location != nil {
		return p.Location.Normalized(), p.Location.Valid()
	}
	if c, ok := LookupCity(p.Label); ok {
		return c.Point(), true
	}
	return shipment.GeoPoint{}, false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
