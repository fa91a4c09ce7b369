// Package progress implements the route-progress state machine of a shipment.
//
// Every operation works on a deep copy of its input and returns the next
// state, so a failure never leaves a half-applied record behind.
package progress

import (
	"math"
	"strings"
	"time"

	"package-tracking/internal/domain/shipment"
)

// History notes written by the engine.
const (
	NoteCreated             = "Created"
	NoteArrived             = "Arrived checkpoint"
	NoteDestinationLocation = "Destination location updated"
	NoteDestinationCity     = "Destination city updated"
	NoteManualUpdate        = "Manual update"
)

// Meta carries the clock reading and the actor for one state change.
type Meta struct {
	Now time.Time
	By  string
}

// Percent returns round(index/(length-1)*100). ok is false when the route is
// too short for the percentage to be derived from the index.
func Percent(index, length int) (pct int, ok bool) {
	if length <= 1 {
		return 0, false
	}
	return int(math.Round(float64(index) / float64(length-1) * 100)), true
}

// MatchCheckpoint returns the position of the first checkpoint whose city
// starts with city, ignoring case, or -1.
func MatchCheckpoint(route []shipment.Checkpoint, city string) int {
	needle := strings.ToLower(strings.TrimSpace(city))
	if needle == "" {
		return -1
	}
	for i, cp := range route {
		if strings.HasPrefix(strings.ToLower(cp.City), needle) {
			return i
		}
	}
	return -1
}

// NewShipment initializes the progress fields of a freshly created record.
func NewShipment(draft *shipment.Shipment, meta Meta) (*shipment.Shipment, error) {
	s := draft.Clone()

	if strings.TrimSpace(string(s.Status)) == "" {
		s.Status = shipment.StatusPending
	}
	if !s.Status.IsKnown() {
		return nil, shipment.ErrInvalidStatus
	}
	for _, cp := range s.Route {
		if !cp.Location.Valid() {
			return nil, shipment.ErrInvalidCheckpoint
		}
	}

	s.CurrentIndex = 0
	s.ProgressPct = 0
	s.CurrentLocation = nil
	if s.Status.IsDelivered() {
		s.Status = shipment.StatusDelivered
		s.ProgressPct = 100
		if len(s.Route) > 0 {
			s.CurrentIndex = s.LastIndex()
		}
	}

	var city *string
	if cp, ok := s.Checkpoint(s.CurrentIndex); ok {
		loc := cp.Location.Normalized()
		s.CurrentLocation = &loc
		city = strPtr(cp.City)
	}

	s.LocationHistory = append(s.LocationHistory, shipment.LocationHistoryEntry{
		Timestamp: meta.Now,
		Location:  clonePoint(s.CurrentLocation),
		City:      city,
		Note:      NoteCreated,
		By:        meta.By,
	})

	s.CreatedAt = meta.Now
	stamp(s, meta.Now)
	return s, nil
}

// Apply merges an admin change-set into current. Steps run in a fixed order
// and later steps override earlier ones.
func Apply(current *shipment.Shipment, cs shipment.ChangeSet, meta Meta) (*shipment.Shipment, error) {
	if cs.Empty() {
		return nil, shipment.ErrNoValidFields
	}
	if err := validateChangeSet(current, cs); err != nil {
		return nil, err
	}

	next := current.Clone()
	applyMetadata(next, cs)

	// Index: destination city match, then explicit override.
	newIndex := current.CurrentIndex
	if cs.Destination != nil && len(next.Route) > 0 {
		if i := MatchCheckpoint(next.Route, cs.Destination.City); i >= 0 {
			newIndex = i
		}
	}
	if cs.CurrentIndex != nil {
		newIndex = *cs.CurrentIndex
	}

	// Terminal forcing.
	if cs.Status != nil && cs.Status.IsDelivered() {
		if len(next.Route) > 0 {
			newIndex = next.LastIndex()
		}
		next.Status = shipment.StatusDelivered
		next.ProgressPct = 100
	}

	if newIndex != current.CurrentIndex {
		next.CurrentIndex = newIndex
		if cp, ok := next.Checkpoint(newIndex); ok {
			loc := cp.Location.Normalized()
			next.CurrentLocation = &loc
		}
	}

	if cs.CurrentLocation != nil {
		loc := cs.CurrentLocation.Normalized()
		next.CurrentLocation = &loc
	}

	if cs.ProgressPct == nil && !next.Status.IsDelivered() {
		if pct, ok := Percent(next.CurrentIndex, len(next.Route)); ok {
			next.ProgressPct = pct
		}
	}

	if d := cs.Destination; d != nil {
		switch {
		case d.Location != nil:
			loc := d.Location.Normalized()
			next.CurrentLocation = &loc
			next.LocationHistory = append(next.LocationHistory, shipment.LocationHistoryEntry{
				Timestamp: meta.Now,
				Location:  clonePoint(&loc),
				City:      strPtr(d.Label()),
				Note:      NoteDestinationLocation,
				By:        meta.By,
			})
		case d.HasCity():
			next.LocationHistory = append(next.LocationHistory, shipment.LocationHistoryEntry{
				Timestamp: meta.Now,
				City:      strPtr(d.Label()),
				Note:      NoteDestinationCity,
				By:        meta.By,
			})
		}
	}

	stamp(next, meta.Now)
	return next, nil
}

// Advance moves the shipment to its next checkpoint.
func Advance(current *shipment.Shipment, meta Meta) (*shipment.Shipment, error) {
	last := current.LastIndex()
	if current.CurrentIndex >= last {
		return nil, shipment.ErrAlreadyAtFinalCheckpoint
	}

	next := current.Clone()
	next.CurrentIndex = current.CurrentIndex + 1

	cp := next.Route[next.CurrentIndex]
	loc := cp.Location.Normalized()
	next.CurrentLocation = &loc

	switch {
	case next.CurrentIndex == last:
		next.Status = shipment.StatusDelivered
	case next.Status.Is(shipment.StatusPending):
		next.Status = shipment.StatusShipped
	}

	if next.Status.IsDelivered() {
		next.ProgressPct = 100
	} else if pct, ok := Percent(next.CurrentIndex, len(next.Route)); ok {
		next.ProgressPct = pct
	}

	next.LocationHistory = append(next.LocationHistory, shipment.LocationHistoryEntry{
		Timestamp: meta.Now,
		Location:  clonePoint(&loc),
		City:      strPtr(cp.City),
		Note:      NoteArrived,
		By:        meta.By,
	})

	stamp(next, meta.Now)
	return next, nil
}

// Relocate records a position fix given as coordinates, a city label, or both.
// A city that matches a checkpoint moves the current index there unless the
// shipment is already delivered.
func Relocate(current *shipment.Shipment, upd shipment.LocationUpdate, meta Meta) (*shipment.Shipment, error) {
	city := strings.TrimSpace(upd.City)
	if !upd.HasCoordinates() && city == "" {
		return nil, shipment.ErrLocationOrCityRequired
	}

	var fix *shipment.GeoPoint
	if upd.HasCoordinates() {
		if !shipment.ValidCoordinates(*upd.Lng, *upd.Lat) {
			return nil, shipment.ErrInvalidLocation
		}
		p := shipment.NewPoint(*upd.Lng, *upd.Lat)
		fix = &p
	}

	next := current.Clone()

	if city != "" && !next.Status.IsDelivered() {
		if i := MatchCheckpoint(next.Route, city); i >= 0 {
			next.CurrentIndex = i
			if fix == nil {
				loc := next.Route[i].Location.Normalized()
				fix = &loc
			}
		}
	}
	if fix != nil {
		next.CurrentLocation = clonePoint(fix)
	}

	if !next.Status.IsDelivered() {
		if pct, ok := Percent(next.CurrentIndex, len(next.Route)); ok {
			next.ProgressPct = pct
		}
	}

	note := strings.TrimSpace(upd.Note)
	if note == "" {
		note = NoteManualUpdate
	}
	next.LocationHistory = append(next.LocationHistory, shipment.LocationHistoryEntry{
		Timestamp: meta.Now,
		Location:  clonePoint(fix),
		City:      strPtr(city),
		Note:      note,
		By:        meta.By,
	})

	stamp(next, meta.Now)
	return next, nil
}

func validateChangeSet(current *shipment.Shipment, cs shipment.ChangeSet) error {
	if cs.Status != nil && !cs.Status.IsKnown() {
		return shipment.ErrInvalidStatus
	}
	if cs.CurrentIndex != nil {
		maxIndex := max(0, current.LastIndex())
		if *cs.CurrentIndex < 0 || *cs.CurrentIndex > maxIndex {
			return shipment.ErrCurrentIndexOutOfRange
		}
	}
	if cs.ProgressPct != nil && (*cs.ProgressPct < 0 || *cs.ProgressPct > 100) {
		return shipment.ErrProgressOutOfRange
	}
	if cs.CurrentLocation != nil && !cs.CurrentLocation.Valid() {
		return shipment.ErrInvalidLocation
	}
	if cs.Destination != nil && cs.Destination.Location != nil && !cs.Destination.Location.Valid() {
		return shipment.ErrInvalidLocation
	}
	return nil
}

func applyMetadata(s *shipment.Shipment, cs shipment.ChangeSet) {
	setIf(&s.CustomerName, cs.CustomerName)
	setIf(&s.Product, cs.Product)
	setIf(&s.Quantity, cs.Quantity)
	setIf(&s.ImageURL, cs.ImageURL)
	setIf(&s.OriginWarehouse, cs.OriginWarehouse)
	setIf(&s.Address, cs.Address)
	setIf(&s.ServiceType, cs.ServiceType)
	setIf(&s.ShipmentDetails, cs.ShipmentDetails)
	setIf(&s.ProductDescription, cs.ProductDescription)
	setIf(&s.Description, cs.Description)
	setIf(&s.ProgressPct, cs.ProgressPct)
	setIf(&s.Status, cs.Status)

	if cs.WeightKg != nil {
		w := *cs.WeightKg
		s.WeightKg = &w
	}
	if cs.ShipmentDate != nil {
		t := *cs.ShipmentDate
		s.ShipmentDate = &t
	}
	if cs.Destination != nil {
		d := *cs.Destination
		if d.Location != nil {
			loc := d.Location.Normalized()
			d.Location = &loc
		}
		s.Destination = &d
		if d.ExpectedDeliveryDate != nil {
			t := *d.ExpectedDeliveryDate
			s.ExpectedDeliveryDate = &t
		}
	}
	if cs.ExpectedDeliveryDate != nil {
		t := *cs.ExpectedDeliveryDate
		s.ExpectedDeliveryDate = &t
	}
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func stamp(s *shipment.Shipment, now time.Time) {
	s.UpdatedAt = now
	s.LastUpdated = now
}

func strPtr(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

func clonePoint(p *shipment.GeoPoint) *shipment.GeoPoint {
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}
