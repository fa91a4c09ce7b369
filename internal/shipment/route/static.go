package route

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"package-tracking/internal/domain/shipment"
)

// City is an entry of the built-in gazetteer.
type City struct {
	Name  string
	State string
	Zip   string
	Lng   float64
	Lat   float64
}

func (c City) Label() string { return c.Name + ", " + c.State }

func (c City) Point() shipment.GeoPoint { return shipment.NewPoint(c.Lng, c.Lat) }

var cities = []City{
	{"Los Angeles", "CA", "90001", -118.2437, 34.0522},
	{"Phoenix", "AZ", "85001", -112.074, 33.4484},
	{"Dallas", "TX", "75201", -96.797, 32.7767},
	{"Memphis", "TN", "38101", -90.049, 35.1495},
	{"Atlanta", "GA", "30301", -84.388, 33.749},
	{"Charlotte", "NC", "28202", -80.8431, 35.2271},
	{"New York", "NY", "10001", -74.006, 40.7128},
	{"San Diego", "CA", "92101", -117.1611, 32.7157},
	{"Chicago", "IL", "60601", -87.6298, 41.8781},
	{"Austin", "TX", "73301", -97.7431, 30.2672},
	{"Houston", "TX", "77001", -95.3698, 29.7604},
	{"El Paso", "TX", "79901", -106.485, 31.7619},
	{"Albuquerque", "NM", "87101", -106.6504, 35.0844},
	{"Denver", "CO", "80201", -104.9903, 39.7392},
	{"St. Louis", "MO", "63101", -90.1994, 38.627},
	{"San Francisco", "CA", "94102", -122.4194, 37.7749},
	{"Seattle", "WA", "98101", -122.3321, 47.6062},
	{"Miami", "FL", "33101", -80.1918, 25.7617},
}

// LookupCity resolves "City, ST" or "City", ignoring case.
func LookupCity(label string) (City, bool) {
	norm := strings.ToLower(strings.TrimSpace(label))
	if norm == "" {
		return City{}, false
	}
	for _, c := range cities {
		if strings.ToLower(c.Label()) == norm || strings.ToLower(c.Name) == norm {
			return c, true
		}
	}
	return City{}, false
}

const (
	maxIntermediateStops = 6
	minCorridorDegrees   = 2.5
	corridorRatio        = 0.2
)

// StaticProvider samples intermediate stops from the gazetteer along the
// straight line between origin and destination. Output is deterministic.
type StaticProvider struct {
	now func() time.Time
}

func NewStaticProvider() *StaticProvider {
	return &StaticProvider{now: time.Now}
}

func (p *StaticProvider) Generate(_ context.Context, origin, destination Place) []shipment.Checkpoint {
	from, ok := LookupCity(origin.Label)
	if !ok {
		return []shipment.Checkpoint{}
	}
	to, ok := LookupCity(destination.Label)
	if !ok {
		return []shipment.Checkpoint{}
	}

	stops := []City{from}
	if from != to {
		stops = append(stops, corridor(from, to)...)
		stops = append(stops, to)
	}

	now := p.now().UTC()
	out := make([]shipment.Checkpoint, len(stops))
	for i, c := range stops {
		zip := c.Zip
		eta := now.Add(time.Duration(i) * 24 * time.Hour)
		out[i] = shipment.Checkpoint{
			City:     c.Label(),
			Zip:      &zip,
			Location: c.Point(),
			ETA:      &eta,
		}
	}
	return out
}

// corridor returns the cities whose projection falls strictly between from and
// to and within the corridor around the line, ordered by distance along it.
func corridor(from, to City) []City {
	dx, dy := to.Lng-from.Lng, to.Lat-from.Lat
	length := math.Hypot(dx, dy)
	if length == 0 {
		return nil
	}
	width := math.Max(minCorridorDegrees, corridorRatio*length)

	type candidate struct {
		city City
		t    float64
	}
	var picks []candidate
	for _, c := range cities {
		if c == from || c == to {
			continue
		}
		px, py := c.Lng-from.Lng, c.Lat-from.Lat
		t := (px*dx + py*dy) / (length * length)
		if t <= 0 || t >= 1 {
			continue
		}
		offset := math.Abs(px*dy-py*dx) / length
		if offset > width {
			continue
		}
		picks = append(picks, candidate{city: c, t: t})
	}

	sort.SliceStable(picks, func(i, j int) bool { return picks[i].t < picks[j].t })
	if len(picks) > maxIntermediateStops {
		picks = evenly(picks, maxIntermediateStops)
	}

	out := make([]City, len(picks))
	for i, p := range picks {
		out[i] = p.city
	}
	return out
}

func evenly[T any](items []T, n int) []T {
	out := make([]T, 0, n)
	step := float64(len(items)) / float64(n)
	for i := 0; i < n; i++ {
		out = append(out, items[int(float64(i)*step)])
	}
	return out
}
