package shipment

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	domainShipment "package-tracking/internal/domain/shipment"
	"package-tracking/pkg/utils"
)

// Date accepts RFC 3339 timestamps as well as bare YYYY-MM-DD dates.
type Date struct {
	time.Time
}

var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04", "2006-01-02"}

func (d *Date) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, strings.TrimSpace(raw)); err == nil {
			d.Time = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("invalid date %q", raw)
}

func (d *Date) ptr() *time.Time {
	if d == nil || d.IsZero() {
		return nil
	}
	t := d.Time
	return &t
}

// Request DTOs
type CheckpointInput struct {
	City     string                   `json:"city" validate:"required,max=200"`
	Zip      *string                  `json:"zip" validate:"omitempty,max=20"`
	Location *domainShipment.GeoPoint `json:"location" validate:"required"`
	ETA      *Date                    `json:"eta"`
}

type CreateShipmentRequest struct {
	TrackingID         string                      `json:"trackingId" validate:"omitempty,min=3,max=64"`
	CustomerName       string                      `json:"customerName" validate:"max=200"`
	Product            string                      `json:"product" validate:"required,max=200"`
	Quantity           *int                        `json:"quantity" validate:"omitempty,min=1"`
	ImageURL           string                      `json:"imageUrl" validate:"omitempty,url"`
	OriginWarehouse    string                      `json:"originWarehouse" validate:"max=200"`
	Origin             string                      `json:"origin" validate:"max=200"`
	Destination        *domainShipment.Destination `json:"destination" validate:"required"`
	Address            domainShipment.Address      `json:"address"`
	ServiceType        string                      `json:"serviceType" validate:"max=100"`
	ShipmentDetails    string                      `json:"shipmentDetails" validate:"max=2000"`
	ProductDescription string                      `json:"productDescription" validate:"max=2000"`
	Description        string                      `json:"description" validate:"max=2000"`
	WeightKg           *float64                    `json:"weightKg" validate:"omitempty,min=0"`
	ShipmentDate       *Date                       `json:"shipmentDate"`
	ExpectedDelivery   *Date                       `json:"expectedDeliveryDate"`
	Status             *string                     `json:"status" validate:"omitempty,shipment_status"`
	InitialStatus      *string                     `json:"initialStatus" validate:"omitempty,shipment_status"`
	Route              []CheckpointInput           `json:"route" validate:"omitempty,dive"`
}

// UpdateShipmentRequest lists every field an admin may patch. Unknown JSON
// fields are ignored by the decoder.
type UpdateShipmentRequest struct {
	CustomerName       *string                     `json:"customerName" validate:"omitempty,max=200"`
	Product            *string                     `json:"product" validate:"omitempty,max=200"`
	Quantity           *int                        `json:"quantity" validate:"omitempty,min=1"`
	ImageURL           *string                     `json:"imageUrl" validate:"omitempty,max=2048"`
	Status             *string                     `json:"status" validate:"omitempty,shipment_status"`
	OriginWarehouse    *string                     `json:"originWarehouse" validate:"omitempty,max=200"`
	Address            *domainShipment.Address     `json:"address"`
	Destination        *domainShipment.Destination `json:"destination"`
	ServiceType        *string                     `json:"serviceType" validate:"omitempty,max=100"`
	ShipmentDetails    *string                     `json:"shipmentDetails" validate:"omitempty,max=2000"`
	ProductDescription *string                     `json:"productDescription" validate:"omitempty,max=2000"`
	WeightKg           *float64                    `json:"weightKg" validate:"omitempty,min=0"`
	Description        *string                     `json:"description" validate:"omitempty,max=2000"`
	ShipmentDate       *Date                       `json:"shipmentDate"`
	ExpectedDelivery   *Date                       `json:"expectedDeliveryDate"`
	CurrentIndex       *int                        `json:"currentIndex"`
	ProgressPct        *int                        `json:"progressPct"`
	CurrentLocation    *domainShipment.GeoPoint    `json:"currentLocation"`
}

type UpdateLocationRequest struct {
	Lat  *float64 `json:"lat" validate:"omitempty,latitude"`
	Lng  *float64 `json:"lng" validate:"omitempty,longitude"`
	City string   `json:"city" validate:"max=200"`
	Note string   `json:"note" validate:"max=500"`
}

// Response DTOs
type ListShipmentsResponse struct {
	Items []*domainShipment.Shipment `json:"items"`
	Page  int                        `json:"page"`
	Limit int                        `json:"limit"`
	Total int64                      `json:"total"`
}

type DeleteShipmentResponse struct {
	DeletedCount int64 `json:"deletedCount"`
}

// TrackingView is the public projection of a shipment.
type TrackingView struct {
	TrackingID      string                     `json:"trackingId"`
	Product         string                     `json:"product"`
	Quantity        int                        `json:"quantity"`
	Status          string                     `json:"status"`
	ImageURL        *string                    `json:"imageUrl"`
	Route           []PublicCheckpoint         `json:"route"`
	CurrentIndex    int                        `json:"currentIndex"`
	CurrentLocation *domainShipment.GeoPoint   `json:"currentLocation"`
	LocationHistory []PublicLocationHistoryRow `json:"locationHistory"`
	LastUpdated     time.Time                  `json:"lastUpdated"`
	ProgressPct     int                        `json:"progressPct"`
}

type PublicCheckpoint struct {
	City     string                  `json:"city"`
	Zip      *string                 `json:"zip"`
	Location domainShipment.GeoPoint `json:"location"`
	ETA      *time.Time              `json:"eta"`
}

type PublicLocationHistoryRow struct {
	Timestamp time.Time `json:"timestamp"`
	City      *string   `json:"city"`
	Note      string    `json:"note"`
}

// ToChangeSet converts the request into an engine change-set, sanitizing text fields.
func (r *UpdateShipmentRequest) ToChangeSet() domainShipment.ChangeSet {
	cs := domainShipment.ChangeSet{
		CustomerName:       utils.SanitizePtr(r.CustomerName, utils.SanitizeString),
		Product:            utils.SanitizePtr(r.Product, utils.SanitizeString),
		Quantity:           r.Quantity,
		ImageURL:           utils.SanitizePtr(r.ImageURL, strings.TrimSpace),
		OriginWarehouse:    utils.SanitizePtr(r.OriginWarehouse, utils.SanitizeString),
		ServiceType:        utils.SanitizePtr(r.ServiceType, utils.SanitizeString),
		ShipmentDetails:    utils.SanitizePtr(r.ShipmentDetails, utils.SanitizeText),
		ProductDescription: utils.SanitizePtr(r.ProductDescription, utils.SanitizeText),
		Description:        utils.SanitizePtr(r.Description, utils.SanitizeText),
		WeightKg:           r.WeightKg,
		ShipmentDate:       r.ShipmentDate.ptr(),
		CurrentIndex:       r.CurrentIndex,
		ProgressPct:        r.ProgressPct,
		CurrentLocation:    r.CurrentLocation,
	}
	cs.ExpectedDeliveryDate = r.ExpectedDelivery.ptr()
	if r.Status != nil {
		status := domainShipment.ShipmentStatus(strings.TrimSpace(*r.Status))
		cs.Status = &status
	}
	if r.Address != nil {
		addr := sanitizeAddress(*r.Address)
		cs.Address = &addr
	}
	if r.Destination != nil {
		dest := sanitizeDestination(*r.Destination)
		cs.Destination = &dest
	}
	return cs
}

func sanitizeAddress(a domainShipment.Address) domainShipment.Address {
	return domainShipment.Address{
		Full:   utils.SanitizeString(a.Full),
		Street: utils.SanitizeString(a.Street),
		City:   utils.SanitizeString(a.City),
		State:  utils.SanitizeString(a.State),
		Zip:    utils.SanitizeString(a.Zip),
	}
}

func sanitizeDestination(d domainShipment.Destination) domainShipment.Destination {
	d.Address = utils.SanitizeString(d.Address)
	d.City = utils.SanitizeString(d.City)
	return d
}

func toCheckpoints(in []CheckpointInput) ([]domainShipment.Checkpoint, error) {
	out := make([]domainShipment.Checkpoint, len(in))
	for i, c := range in {
		if c.Location == nil || !c.Location.Valid() {
			return nil, fmt.Errorf("checkpoint %d: %w", i, domainShipment.ErrInvalidCheckpoint)
		}
		out[i] = domainShipment.Checkpoint{
			City:     utils.SanitizeString(c.City),
			Zip:      utils.SanitizePtr(c.Zip, utils.SanitizeString),
			Location: c.Location.Normalized(),
			ETA:      c.ETA.ptr(),
		}
	}
	return out, nil
}

// ToTrackingView builds the public projection. Internal ids, recipient data
// and actor names are never copied.
func ToTrackingView(s *domainShipment.Shipment) *TrackingView {
	view := &TrackingView{
		TrackingID:      s.TrackingID,
		Product:         s.Product,
		Quantity:        s.Quantity,
		Status:          string(s.Status),
		Route:           make([]PublicCheckpoint, len(s.Route)),
		CurrentIndex:    s.CurrentIndex,
		LocationHistory: make([]PublicLocationHistoryRow, len(s.LocationHistory)),
		LastUpdated:     s.LastUpdated,
		ProgressPct:     s.ProgressPct,
	}
	if view.Quantity == 0 {
		view.Quantity = 1
	}
	if s.ImageURL != "" {
		img := s.ImageURL
		view.ImageURL = &img
	}
	for i, cp := range s.Route {
		view.Route[i] = PublicCheckpoint{City: cp.City, Zip: cp.Zip, Location: cp.Location, ETA: cp.ETA}
	}
	for i, h := range s.LocationHistory {
		view.LocationHistory[i] = PublicLocationHistoryRow{Timestamp: h.Timestamp, City: h.City, Note: h.Note}
	}
	switch {
	case s.CurrentLocation != nil:
		loc := *s.CurrentLocation
		view.CurrentLocation = &loc
	default:
		if cp, ok := s.Checkpoint(s.CurrentIndex); ok {
			loc := cp.Location
			view.CurrentLocation = &loc
		}
	}
	return view
}
