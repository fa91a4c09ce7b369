package shipment

import "time"

// ChangeSet is a partial update requested by an admin. Nil fields are absent.
type ChangeSet struct {
	CustomerName       *string
	Product            *string
	Quantity           *int
	ImageURL           *string
	OriginWarehouse    *string
	Address            *Address
	ServiceType        *string
	ShipmentDetails    *string
	ProductDescription *string
	Description        *string
	WeightKg           *float64

	ShipmentDate         *time.Time
	ExpectedDeliveryDate *time.Time

	Destination     *Destination
	Status          *ShipmentStatus
	CurrentIndex    *int
	ProgressPct     *int
	CurrentLocation *GeoPoint
}

// Empty reports whether the change-set carries no recognized field.
func (c ChangeSet) Empty() bool {
	return c.CustomerName == nil &&
		c.Product == nil &&
		c.Quantity == nil &&
		c.ImageURL == nil &&
		c.OriginWarehouse == nil &&
		c.Address == nil &&
		c.ServiceType == nil &&
		c.ShipmentDetails == nil &&
		c.ProductDescription == nil &&
		c.Description == nil &&
		c.WeightKg == nil &&
		c.ShipmentDate == nil &&
		c.ExpectedDeliveryDate == nil &&
		c.Destination == nil &&
		c.Status == nil &&
		c.CurrentIndex == nil &&
		c.ProgressPct == nil &&
		c.CurrentLocation == nil
}

// LocationUpdate is a manual or device-reported position fix.
type LocationUpdate struct {
	Lat  *float64
	Lng  *float64
	City string
	Note string
}

// HasCoordinates reports whether both lat and lng were supplied.
func (u LocationUpdate) HasCoordinates() bool {
	return u.Lat != nil && u.Lng != nil
}
