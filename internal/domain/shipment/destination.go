package shipment

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// Destination describes where a shipment is headed.
type Destination struct {
	Address              string     `json:"address,omitempty" bson:"address,omitempty"`
	City                 string     `json:"city,omitempty" bson:"city,omitempty"`
	Location             *GeoPoint  `json:"location,omitempty" bson:"location,omitempty"`
	ExpectedDeliveryDate *time.Time `json:"expectedDeliveryDate,omitempty" bson:"expectedDeliveryDate,omitempty"`
}

// UnmarshalJSON accepts either the object form or a bare string, which is
// read as the city label.
func (d *Destination) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var city string
		if err := json.Unmarshal(trimmed, &city); err != nil {
			return err
		}
		*d = Destination{City: strings.TrimSpace(city)}
		return nil
	}

	type plain Destination
	var out plain
	if err := json.Unmarshal(trimmed, &out); err != nil {
		return err
	}
	*d = Destination(out)
	return nil
}

// Label returns the best human label for the destination.
func (d *Destination) Label() string {
	if d == nil {
		return ""
	}
	if d.City != "" {
		return d.City
	}
	return d.Address
}

// HasCity reports whether the destination names a city or address without
// carrying a geopoint.
func (d *Destination) HasCity() bool {
	return d != nil && strings.TrimSpace(d.Label()) != ""
}

func (d *Destination) clone() *Destination {
	if d == nil {
		return nil
	}
	cp := *d
	cp.Location = clonePtr(d.Location)
	cp.ExpectedDeliveryDate = clonePtr(d.ExpectedDeliveryDate)
	return &cp
}
