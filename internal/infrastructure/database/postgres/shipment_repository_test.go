package postgres

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"package-tracking/internal/domain/shipment"
	"package-tracking/internal/infrastructure/database/postgres/models"
)

func TestIsValidInternalID(t *testing.T) {
	assert.True(t, IsValidInternalID(uuid.NewString()))
	assert.False(t, IsValidInternalID("TRK-ABC123"))
	assert.False(t, IsValidInternalID(""))
	assert.False(t, IsValidInternalID("64b7f0c2e4b0a1a2b3c4d5e6"))
}

func TestCanonicalID(t *testing.T) {
	id := uuid.New()
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{id.String(), id.String(), true},
		{strings.ToUpper(id.String()), id.String(), true},
		{"urn:uuid:" + id.String(), "", false},
		{"{" + id.String() + "}", "", false},
		{strings.ReplaceAll(id.String(), "-", ""), "", false},
		{"TRK-ABC123", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := canonicalID(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPick_NonCanonicalIDIsCode(t *testing.T) {
	id := uuid.New()
	urn := "urn:uuid:" + id.String()
	rows := []models.ShipmentModel{
		{ID: id, TrackingID: "TRK-AAAAAA"},
		{ID: uuid.New(), TrackingID: urn},
	}

	row, how := pick(rows, strings.ToUpper(id.String()))
	require.NotNil(t, row)
	assert.Equal(t, shipment.ResolvedByInternalID, how)
	assert.Equal(t, "TRK-AAAAAA", row.TrackingID)

	row, how = pick(rows, urn)
	require.NotNil(t, row)
	assert.Equal(t, shipment.ResolvedByTrackingCode, how)
	assert.Equal(t, urn, row.TrackingID)
}

func TestPick_PrefersInternalID(t *testing.T) {
	id := uuid.New()
	rows := []models.ShipmentModel{
		{ID: uuid.New(), TrackingID: id.String()},
		{ID: id, TrackingID: "TRK-AAAAAA"},
	}

	row, how := pick(rows, id.String())
	require.NotNil(t, row)
	assert.Equal(t, shipment.ResolvedByInternalID, how)
	assert.Equal(t, "TRK-AAAAAA", row.TrackingID)

	row, how = pick(rows[:1], id.String())
	require.NotNil(t, row)
	assert.Equal(t, shipment.ResolvedByTrackingCode, how)

	row, how = pick(nil, "TRK-NOPE00")
	assert.Nil(t, row)
	assert.Equal(t, shipment.ResolvedNone, how)
}

func TestShipmentModel_PreservesProgressFields(t *testing.T) {
	now := time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC)
	loc := shipment.NewPoint(-96.797, 32.7767)
	city := "Dallas, TX"
	s := &shipment.Shipment{
		ID:              uuid.NewString(),
		TrackingID:      "TRK-ABC123",
		Product:         "Chair",
		Quantity:        2,
		Destination:     &shipment.Destination{City: "Austin, TX"},
		Route:           []shipment.Checkpoint{{City: "Los Angeles, CA", Location: shipment.NewPoint(-118.2437, 34.0522)}, {City: city, Location: loc}},
		CurrentIndex:    1,
		CurrentLocation: &loc,
		ProgressPct:     100,
		Status:          shipment.StatusDelivered,
		LocationHistory: []shipment.LocationHistoryEntry{{Timestamp: now, City: &city, Note: "Arrived checkpoint", By: "admin"}},
		CreatedAt:       now,
		UpdatedAt:       now,
		LastUpdated:     now,
	}

	got := models.ToShipmentModel(s).ToEntity()
	assert.Equal(t, s, got)

	empty := models.ToShipmentModel(&shipment.Shipment{TrackingID: "TRK-EMPTY1"})
	assert.NotNil(t, empty.Route)
	assert.NotNil(t, empty.LocationHistory)
	assert.Nil(t, empty.CurrentLng)
}
