package shipment

import (
	"strings"
	"time"
)

// ShipmentStatus represents the status of a shipment. Business rules compare
// statuses case-insensitively; storage keeps the casing the caller sent.
type ShipmentStatus string

const (
	StatusPending        ShipmentStatus = "Pending"
	StatusOnHold         ShipmentStatus = "On Hold"
	StatusShipped        ShipmentStatus = "Shipped"
	StatusOutForDelivery ShipmentStatus = "Out for Delivery"
	StatusDelivered      ShipmentStatus = "Delivered" // Terminal
	StatusException      ShipmentStatus = "Exception"
)

var knownStatuses = []ShipmentStatus{
	StatusPending,
	StatusOnHold,
	StatusShipped,
	StatusOutForDelivery,
	StatusDelivered,
	StatusException,
}

// Is reports whether s and other name the same status, ignoring case.
func (s ShipmentStatus) Is(other ShipmentStatus) bool {
	return strings.EqualFold(strings.TrimSpace(string(s)), string(other))
}

// IsDelivered reports whether s is the terminal status.
func (s ShipmentStatus) IsDelivered() bool {
	return s.Is(StatusDelivered)
}

// IsKnown reports whether s matches one of the defined statuses.
func (s ShipmentStatus) IsKnown() bool {
	for _, known := range knownStatuses {
		if s.Is(known) {
			return true
		}
	}
	return false
}

// GeoPoint is a GeoJSON point. Coordinates are always [longitude, latitude].
type GeoPoint struct {
	Type        string     `json:"type" bson:"type"`
	Coordinates [2]float64 `json:"coordinates" bson:"coordinates"`
}

const geoPointType = "Point"

// NewPoint builds a GeoPoint from a longitude/latitude pair.
func NewPoint(lng, lat float64) GeoPoint {
	return GeoPoint{Type: geoPointType, Coordinates: [2]float64{lng, lat}}
}

func (p GeoPoint) Lng() float64 { return p.Coordinates[0] }
func (p GeoPoint) Lat() float64 { return p.Coordinates[1] }

// Valid checks the GeoJSON type and the coordinate ranges.
func (p GeoPoint) Valid() bool {
	if p.Type != "" && p.Type != geoPointType {
		return false
	}
	return ValidCoordinates(p.Lng(), p.Lat())
}

// Normalized fills in the GeoJSON type when it was omitted.
func (p GeoPoint) Normalized() GeoPoint {
	p.Type = geoPointType
	return p
}

// ValidCoordinates checks longitude and latitude ranges.
func ValidCoordinates(lng, lat float64) bool {
	return lng >= -180 && lng <= 180 && lat >= -90 && lat <= 90
}

// Checkpoint is one stop of a shipment's planned route.
type Checkpoint struct {
	City     string     `json:"city" bson:"city"`
	Zip      *string    `json:"zip" bson:"zip"`
	Location GeoPoint   `json:"location" bson:"location"`
	ETA      *time.Time `json:"eta" bson:"eta"`
}

// LocationHistoryEntry is an append-only log record of where a shipment was seen.
type LocationHistoryEntry struct {
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
	Location  *GeoPoint `json:"location" bson:"location"`
	City      *string   `json:"city" bson:"city"`
	Note      string    `json:"note" bson:"note"`
	By        string    `json:"by" bson:"by"`
}

// Address is the recipient address.
type Address struct {
	Full   string `json:"full,omitempty" bson:"full,omitempty"`
	Street string `json:"street,omitempty" bson:"street,omitempty"`
	City   string `json:"city,omitempty" bson:"city,omitempty"`
	State  string `json:"state,omitempty" bson:"state,omitempty"`
	Zip    string `json:"zip,omitempty" bson:"zip,omitempty"`
}

// Shipment represents a tracked shipment record.
type Shipment struct {
	ID         string `json:"id" bson:"-"`
	TrackingID string `json:"trackingId" bson:"trackingId"`

	// Descriptive metadata
	CustomerName       string       `json:"customerName" bson:"customerName"`
	Product            string       `json:"product" bson:"product"`
	Quantity           int          `json:"quantity" bson:"quantity"`
	ImageURL           string       `json:"imageUrl" bson:"imageUrl"`
	OriginWarehouse    string       `json:"originWarehouse" bson:"originWarehouse"`
	Address            Address      `json:"address" bson:"address"`
	Destination        *Destination `json:"destination,omitempty" bson:"destination,omitempty"`
	ServiceType        string       `json:"serviceType,omitempty" bson:"serviceType,omitempty"`
	ShipmentDetails    string       `json:"shipmentDetails,omitempty" bson:"shipmentDetails,omitempty"`
	ProductDescription string       `json:"productDescription,omitempty" bson:"productDescription,omitempty"`
	Description        string       `json:"description,omitempty" bson:"description,omitempty"`
	WeightKg           *float64     `json:"weightKg,omitempty" bson:"weightKg,omitempty"`

	ShipmentDate         *time.Time `json:"shipmentDate,omitempty" bson:"shipmentDate,omitempty"`
	ExpectedDeliveryDate *time.Time `json:"expectedDeliveryDate,omitempty" bson:"expectedDeliveryDate,omitempty"`

	// Route progress
	Route           []Checkpoint           `json:"route" bson:"route"`
	CurrentIndex    int                    `json:"currentIndex" bson:"currentIndex"`
	CurrentLocation *GeoPoint              `json:"currentLocation" bson:"currentLocation"`
	ProgressPct     int                    `json:"progressPct" bson:"progressPct"`
	Status          ShipmentStatus         `json:"status" bson:"status"`
	LocationHistory []LocationHistoryEntry `json:"locationHistory" bson:"locationHistory"`

	// Metadata
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updatedAt"`
	LastUpdated time.Time `json:"lastUpdated" bson:"lastUpdated"`
}

// LastIndex returns the index of the destination checkpoint, or -1 for an empty route.
func (s *Shipment) LastIndex() int {
	return len(s.Route) - 1
}

// Checkpoint returns the checkpoint at i, if it exists.
func (s *Shipment) Checkpoint(i int) (Checkpoint, bool) {
	if i < 0 || i >= len(s.Route) {
		return Checkpoint{}, false
	}
	return s.Route[i], true
}

// Clone returns a deep copy so callers can mutate it without touching s.
func (s *Shipment) Clone() *Shipment {
	if s == nil {
		return nil
	}
	cp := *s
	cp.Destination = s.Destination.clone()
	cp.WeightKg = clonePtr(s.WeightKg)
	cp.ShipmentDate = clonePtr(s.ShipmentDate)
	cp.ExpectedDeliveryDate = clonePtr(s.ExpectedDeliveryDate)
	cp.CurrentLocation = clonePtr(s.CurrentLocation)

	if s.Route != nil {
		cp.Route = make([]Checkpoint, len(s.Route))
		for i, c := range s.Route {
			c.Zip = clonePtr(c.Zip)
			c.ETA = clonePtr(c.ETA)
			cp.Route[i] = c
		}
	}
	if s.LocationHistory != nil {
		cp.LocationHistory = make([]LocationHistoryEntry, len(s.LocationHistory))
		for i, h := range s.LocationHistory {
			h.Location = clonePtr(h.Location)
			h.City = clonePtr(h.City)
			cp.LocationHistory[i] = h
		}
	}
	return &cp
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
