package mongo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"package-tracking/internal/domain/shipment"
)

func sampleShipment() *shipment.Shipment {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	city := "Dallas"
	return &shipment.Shipment{
		ID:           primitive.NewObjectID().Hex(),
		TrackingID:   "TRK-ABC123",
		CustomerName: "Ada",
		Product:      "Laptop",
		Quantity:     1,
		Route: []shipment.Checkpoint{
			{City: "Dallas", Location: shipment.NewPoint(-96.797, 32.7767)},
			{City: "Austin", Location: shipment.NewPoint(-97.7431, 30.2672)},
		},
		Status: shipment.StatusPending,
		LocationHistory: []shipment.LocationHistoryEntry{
			{Timestamp: now, City: &city, Note: "Created", By: "admin"},
		},
		CreatedAt:   now,
		UpdatedAt:   now,
		LastUpdated: now,
	}
}

func TestIsValidInternalID(t *testing.T) {
	assert.True(t, IsValidInternalID(primitive.NewObjectID().Hex()))
	assert.False(t, IsValidInternalID("TRK-ABC123"))
	assert.False(t, IsValidInternalID(""))
}

func TestIDOrCodeFilter(t *testing.T) {
	oid := primitive.NewObjectID()

	filter := idOrCodeFilter(oid.Hex())
	or, ok := filter["$or"].(bson.A)
	require.True(t, ok)
	assert.Len(t, or, 2)
	assert.Equal(t, bson.M{"_id": oid}, or[0])

	assert.Equal(t, bson.M{"trackingId": "TRK-ABC123"}, idOrCodeFilter("TRK-ABC123"))
}

func TestPick_InternalIDWins(t *testing.T) {
	oid := primitive.NewObjectID()
	other := primitive.NewObjectID()
	docs := []shipmentDocument{
		{ID: other, Shipment: shipment.Shipment{TrackingID: oid.Hex()}},
		{ID: oid, Shipment: shipment.Shipment{TrackingID: "TRK-ZZZ999"}},
	}

	doc, how := pick(docs, oid.Hex())
	require.NotNil(t, doc)
	assert.Equal(t, oid, doc.ID)
	assert.Equal(t, shipment.ResolvedByInternalID, how)

	doc, how = pick(docs[:1], oid.Hex())
	require.NotNil(t, doc)
	assert.Equal(t, other, doc.ID)
	assert.Equal(t, shipment.ResolvedByTrackingCode, how)

	doc, how = pick(nil, "TRK-NOPE00")
	assert.Nil(t, doc)
	assert.Equal(t, shipment.ResolvedNone, how)
}

func TestGuardFilter_PinsReadState(t *testing.T) {
	s := sampleShipment()
	s.CurrentIndex = 1
	doc := newDocument(s)
	doc.ID = primitive.NewObjectID()

	assert.Equal(t, bson.M{
		"_id":             doc.ID,
		"updatedAt":       s.UpdatedAt,
		"currentIndex":    1,
		"locationHistory": bson.M{"$size": 1},
	}, guardFilter(doc))

	// A second advance from the same read no longer matches once the first
	// has bumped the index and appended its history row.
	advanced := s.Clone()
	advanced.CurrentIndex = 2
	advanced.LocationHistory = append(advanced.LocationHistory, shipment.LocationHistoryEntry{Note: "Arrived checkpoint"})
	moved := newDocument(advanced)
	moved.ID = doc.ID
	assert.NotEqual(t, guardFilter(doc), guardFilter(moved))
}

func TestDiffUpdate_OnlyChangedFields(t *testing.T) {
	before := sampleShipment()
	after := before.Clone()

	later := before.UpdatedAt.Add(time.Minute)
	after.Status = shipment.StatusShipped
	after.CurrentIndex = 1
	after.ProgressPct = 100
	after.UpdatedAt = later
	after.LastUpdated = later
	after.LocationHistory = append(after.LocationHistory, shipment.LocationHistoryEntry{
		Timestamp: later, Note: "Arrived checkpoint", By: "admin",
	})

	update, err := diffUpdate(before, after)
	require.NoError(t, err)

	set, ok := update["$set"].(bson.M)
	require.True(t, ok)
	assert.Contains(t, set, "status")
	assert.Contains(t, set, "currentIndex")
	assert.Contains(t, set, "progressPct")
	assert.Contains(t, set, "updatedAt")
	assert.NotContains(t, set, "customerName")
	assert.NotContains(t, set, "route")
	assert.NotContains(t, set, "trackingId")
	assert.NotContains(t, set, "createdAt")
	assert.NotContains(t, set, "locationHistory")

	push, ok := update["$push"].(bson.M)
	require.True(t, ok)
	each := push["locationHistory"].(bson.M)["$each"].([]shipment.LocationHistoryEntry)
	require.Len(t, each, 1)
	assert.Equal(t, "Arrived checkpoint", each[0].Note)
}

func TestDiffUpdate_NoChanges(t *testing.T) {
	before := sampleShipment()

	update, err := diffUpdate(before, before.Clone())
	require.NoError(t, err)
	assert.Empty(t, update)
}

func TestDiffUpdate_RemovedOptionalFieldIsUnset(t *testing.T) {
	before := sampleShipment()
	before.ServiceType = "express"
	after := before.Clone()
	after.ServiceType = ""

	update, err := diffUpdate(before, after)
	require.NoError(t, err)
	assert.Equal(t, bson.M{"serviceType": ""}, update["$unset"])
}

func TestDiffUpdate_RewrittenHistoryIsSet(t *testing.T) {
	before := sampleShipment()
	after := before.Clone()
	after.LocationHistory[0].Note = "rewritten"

	update, err := diffUpdate(before, after)
	require.NoError(t, err)
	set := update["$set"].(bson.M)
	assert.Contains(t, set, "locationHistory")
	assert.NotContains(t, update, "$push")
}

func TestNewDocument_DefaultsEmptySlices(t *testing.T) {
	s := &shipment.Shipment{TrackingID: "TRK-ABC123"}
	doc := newDocument(s)
	assert.NotNil(t, doc.Route)
	assert.NotNil(t, doc.LocationHistory)
	assert.Nil(t, s.Route)
}
