package mongo

import (
	"fmt"
	"reflect"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"package-tracking/internal/domain/shipment"
)

type shipmentDocument struct {
	ID                primitive.ObjectID `bson:"_id,omitempty"`
	shipment.Shipment `bson:",inline"`
}

func (d *shipmentDocument) toEntity() *shipment.Shipment {
	s := d.Shipment
	s.ID = d.ID.Hex()
	return &s
}

func newDocument(s *shipment.Shipment) *shipmentDocument {
	doc := &shipmentDocument{Shipment: *s.Clone()}
	if doc.Route == nil {
		doc.Route = []shipment.Checkpoint{}
	}
	if doc.LocationHistory == nil {
		doc.LocationHistory = []shipment.LocationHistoryEntry{}
	}
	return doc
}

// Fields the update path never writes.
var immutableFields = map[string]bool{
	"_id":             true,
	"trackingId":      true,
	"createdAt":       true,
	"locationHistory": true,
}

// diffUpdate builds an update touching only the top-level fields that changed
// between before and after. Appended history entries become a $push so
// concurrent appends are not lost.
func diffUpdate(before, after *shipment.Shipment) (bson.M, error) {
	oldFields, err := topLevelFields(before)
	if err != nil {
		return nil, err
	}
	newFields, err := topLevelFields(after)
	if err != nil {
		return nil, err
	}

	set := bson.M{}
	unset := bson.M{}
	for key, value := range newFields {
		if immutableFields[key] {
			continue
		}
		if old, ok := oldFields[key]; !ok || !old.Equal(value) {
			set[key] = value
		}
	}
	for key := range oldFields {
		if _, ok := newFields[key]; !ok && !immutableFields[key] {
			unset[key] = ""
		}
	}

	update := bson.M{}
	prior := len(before.LocationHistory)
	if len(after.LocationHistory) >= prior && reflect.DeepEqual(before.LocationHistory, after.LocationHistory[:prior]) {
		if appended := after.LocationHistory[prior:]; len(appended) > 0 {
			update["$push"] = bson.M{"locationHistory": bson.M{"$each": appended}}
		}
	} else {
		set["locationHistory"] = after.LocationHistory
	}

	if len(set) > 0 {
		update["$set"] = set
	}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	return update, nil
}

func topLevelFields(s *shipment.Shipment) (map[string]bson.RawValue, error) {
	raw, err := bson.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to encode shipment: %w", err)
	}
	elems, err := bson.Raw(raw).Elements()
	if err != nil {
		return nil, fmt.Errorf("failed to read shipment document: %w", err)
	}
	out := make(map[string]bson.RawValue, len(elems))
	for _, e := range elems {
		out[e.Key()] = e.Value()
	}
	return out, nil
}
