package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"package-tracking/internal/domain/shipment"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func meta(offset time.Duration) Meta {
	return Meta{Now: t0.Add(offset), By: "admin"}
}

func route(cities ...string) []shipment.Checkpoint {
	out := make([]shipment.Checkpoint, len(cities))
	for i, c := range cities {
		out[i] = shipment.Checkpoint{City: c, Location: shipment.NewPoint(-100+float64(i), 35)}
	}
	return out
}

func created(t *testing.T, cities ...string) *shipment.Shipment {
	t.Helper()
	s, err := NewShipment(&shipment.Shipment{
		TrackingID: "TRK-ABC123",
		Product:    "Widget",
		Quantity:   1,
		Route:      route(cities...),
	}, meta(0))
	require.NoError(t, err)
	return s
}

func ptr[T any](v T) *T { return &v }

func TestPercent(t *testing.T) {
	tests := map[string]struct {
		index, length int
		want          int
		ok            bool
	}{
		"start":       {0, 5, 0, true},
		"middle":      {2, 5, 50, true},
		"rounds":      {1, 4, 33, true},
		"rounds up":   {2, 4, 67, true},
		"end":         {4, 5, 100, true},
		"single stop": {0, 1, 0, false},
		"empty route": {0, 0, 0, false},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, ok := Percent(tc.index, tc.length)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestMatchCheckpoint_FirstPrefixMatchWins(t *testing.T) {
	r := route("Austin, TX", "Austin, MN")
	assert.Equal(t, 0, MatchCheckpoint(r, "austin"))
	assert.Equal(t, 1, MatchCheckpoint(r, "AUSTIN, m"))
	assert.Equal(t, -1, MatchCheckpoint(r, "Dallas"))
	assert.Equal(t, -1, MatchCheckpoint(r, "  "))
}

func TestNewShipment(t *testing.T) {
	s := created(t, "Los Angeles, CA", "Phoenix, AZ", "Austin, TX")

	assert.Equal(t, 0, s.CurrentIndex)
	assert.Equal(t, 0, s.ProgressPct)
	assert.Equal(t, shipment.StatusPending, s.Status)
	require.NotNil(t, s.CurrentLocation)
	assert.Equal(t, s.Route[0].Location, *s.CurrentLocation)
	require.Len(t, s.LocationHistory, 1)
	assert.Equal(t, NoteCreated, s.LocationHistory[0].Note)
	assert.Equal(t, t0, s.CreatedAt)
	assert.Equal(t, s.UpdatedAt, s.LastUpdated)
}

func TestNewShipment_EmptyRoute(t *testing.T) {
	s := created(t)
	assert.Nil(t, s.CurrentLocation)
	assert.Equal(t, 0, s.CurrentIndex)
	require.Len(t, s.LocationHistory, 1)
}

func TestNewShipment_RejectsUnknownStatus(t *testing.T) {
	_, err := NewShipment(&shipment.Shipment{Status: "Lost in space"}, meta(0))
	assert.ErrorIs(t, err, shipment.ErrInvalidStatus)
}

func TestApply_EmptyChangeSet(t *testing.T) {
	s := created(t, "A", "B")
	_, err := Apply(s, shipment.ChangeSet{}, meta(time.Hour))
	assert.ErrorIs(t, err, shipment.ErrNoValidFields)
	assert.Equal(t, t0, s.UpdatedAt)
}

func TestApply_MetadataOnlyRecomputesProgress(t *testing.T) {
	s := created(t, "A", "B", "C", "D", "E")
	s.CurrentIndex = 2

	next, err := Apply(s, shipment.ChangeSet{CustomerName: ptr("Jane")}, meta(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "Jane", next.CustomerName)
	assert.Equal(t, 50, next.ProgressPct)
	assert.Equal(t, t0.Add(time.Hour), next.UpdatedAt)
	assert.Equal(t, next.UpdatedAt, next.LastUpdated)
	assert.Equal(t, t0, next.CreatedAt)
	assert.Equal(t, "", s.CustomerName, "input must not be mutated")
}

func TestApply_DeliveredForcesTerminalPosition(t *testing.T) {
	for _, status := range []string{"Delivered", "delivered", "DELIVERED"} {
		t.Run(status, func(t *testing.T) {
			s := created(t, "A", "B", "C", "D")
			next, err := Apply(s, shipment.ChangeSet{
				Status:       ptr(shipment.ShipmentStatus(status)),
				CurrentIndex: ptr(1),
				ProgressPct:  ptr(10),
			}, meta(time.Minute))
			require.NoError(t, err)
			assert.Equal(t, 3, next.CurrentIndex)
			assert.Equal(t, 100, next.ProgressPct)
			assert.Equal(t, shipment.StatusDelivered, next.Status)
			assert.Equal(t, s.Route[3].Location, *next.CurrentLocation)
		})
	}
}

func TestApply_DestinationCityTieBreak(t *testing.T) {
	s := created(t, "Austin, TX", "Austin, MN", "Dallas, TX")
	s.CurrentIndex = 2

	next, err := Apply(s, shipment.ChangeSet{
		Destination: &shipment.Destination{City: "austin"},
	}, meta(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 0, next.CurrentIndex)
	assert.Equal(t, 0, next.ProgressPct)
	require.Len(t, next.LocationHistory, 2)
	assert.Equal(t, NoteDestinationCity, next.LocationHistory[1].Note)
	assert.Nil(t, next.LocationHistory[1].Location)
}

func TestApply_ExplicitIndexOverridesCityMatch(t *testing.T) {
	s := created(t, "A", "B", "C")
	next, err := Apply(s, shipment.ChangeSet{
		Destination:  &shipment.Destination{City: "B"},
		CurrentIndex: ptr(2),
	}, meta(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 2, next.CurrentIndex)
	assert.Equal(t, 100, next.ProgressPct)
}

func TestApply_ExplicitProgressWins(t *testing.T) {
	s := created(t, "A", "B", "C")
	next, err := Apply(s, shipment.ChangeSet{
		CurrentIndex: ptr(1),
		ProgressPct:  ptr(80),
	}, meta(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, next.CurrentIndex)
	assert.Equal(t, 80, next.ProgressPct)
}

func TestApply_DestinationGeoPointOverridesLocation(t *testing.T) {
	s := created(t, "A", "B", "C")
	dest := shipment.GeoPoint{Coordinates: [2]float64{-97.7431, 30.2672}}

	next, err := Apply(s, shipment.ChangeSet{
		CurrentIndex: ptr(1),
		Destination:  &shipment.Destination{City: "Austin, TX", Location: &dest},
	}, meta(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, next.CurrentIndex)
	assert.Equal(t, shipment.NewPoint(-97.7431, 30.2672), *next.CurrentLocation)
	last := next.LocationHistory[len(next.LocationHistory)-1]
	assert.Equal(t, NoteDestinationLocation, last.Note)
	require.NotNil(t, last.Location)
}

func TestApply_Rejections(t *testing.T) {
	s := created(t, "A", "B", "C")
	bad := shipment.NewPoint(200, 10)

	tests := map[string]struct {
		cs   shipment.ChangeSet
		want error
	}{
		"index too large":  {shipment.ChangeSet{CurrentIndex: ptr(3)}, shipment.ErrCurrentIndexOutOfRange},
		"negative index":   {shipment.ChangeSet{CurrentIndex: ptr(-1)}, shipment.ErrCurrentIndexOutOfRange},
		"progress too big": {shipment.ChangeSet{ProgressPct: ptr(101)}, shipment.ErrProgressOutOfRange},
		"unknown status":   {shipment.ChangeSet{Status: ptr(shipment.ShipmentStatus("Teleported"))}, shipment.ErrInvalidStatus},
		"bad location":     {shipment.ChangeSet{CurrentLocation: &bad}, shipment.ErrInvalidLocation},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Apply(s, tc.cs, meta(time.Minute))
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestApply_EmptyRouteLeavesProgress(t *testing.T) {
	s := created(t)
	s.ProgressPct = 40

	next, err := Apply(s, shipment.ChangeSet{
		Destination:  &shipment.Destination{City: "Austin"},
		CurrentIndex: ptr(0),
	}, meta(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 40, next.ProgressPct)
	assert.Nil(t, next.CurrentLocation)
}

func TestApply_StatusKeepsCallerCasing(t *testing.T) {
	s := created(t, "A", "B")
	next, err := Apply(s, shipment.ChangeSet{Status: ptr(shipment.ShipmentStatus("on hold"))}, meta(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, shipment.ShipmentStatus("on hold"), next.Status)
}

func TestAdvance_FromThirdOfFive(t *testing.T) {
	s := created(t, "A", "B", "C", "D", "E")
	s.CurrentIndex = 3
	s.Status = shipment.StatusShipped

	next, err := Advance(s, meta(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 4, next.CurrentIndex)
	assert.Equal(t, shipment.StatusDelivered, next.Status)
	assert.Equal(t, 100, next.ProgressPct)
	require.Len(t, next.LocationHistory, len(s.LocationHistory)+1)
	assert.Equal(t, NoteArrived, next.LocationHistory[len(next.LocationHistory)-1].Note)
}

func TestAdvance_MonotonicUntilFinal(t *testing.T) {
	s := created(t, "A", "B", "C", "D")
	prev := s.CurrentIndex
	for i := 1; i <= 3; i++ {
		var err error
		s, err = Advance(s, meta(time.Duration(i)*time.Minute))
		require.NoError(t, err)
		assert.Greater(t, s.CurrentIndex, prev)
		prev = s.CurrentIndex
		if i < 3 {
			assert.Equal(t, shipment.StatusShipped, s.Status)
			pct, _ := Percent(s.CurrentIndex, len(s.Route))
			assert.Equal(t, pct, s.ProgressPct)
		}
	}
	for range 3 {
		_, err := Advance(s, meta(time.Hour))
		assert.ErrorIs(t, err, shipment.ErrAlreadyAtFinalCheckpoint)
	}
}

func TestAdvance_LeavesOtherStatuses(t *testing.T) {
	s := created(t, "A", "B", "C")
	s.Status = shipment.StatusOnHold

	next, err := Advance(s, meta(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, shipment.StatusOnHold, next.Status)
	assert.Equal(t, 50, next.ProgressPct)
}

func TestAdvance_EmptyRoute(t *testing.T) {
	s := created(t)
	_, err := Advance(s, meta(time.Minute))
	assert.ErrorIs(t, err, shipment.ErrAlreadyAtFinalCheckpoint)
}

func TestRelocate(t *testing.T) {
	s := created(t, "Los Angeles, CA", "Phoenix, AZ", "Dallas, TX", "Austin, TX")

	t.Run("requires coordinates or city", func(t *testing.T) {
		_, err := Relocate(s, shipment.LocationUpdate{}, meta(time.Minute))
		assert.ErrorIs(t, err, shipment.ErrLocationOrCityRequired)
	})

	t.Run("rejects out of range coordinates", func(t *testing.T) {
		_, err := Relocate(s, shipment.LocationUpdate{Lat: ptr(95.0), Lng: ptr(10.0)}, meta(time.Minute))
		assert.ErrorIs(t, err, shipment.ErrInvalidLocation)
	})

	t.Run("city moves index", func(t *testing.T) {
		next, err := Relocate(s, shipment.LocationUpdate{City: "dal"}, meta(time.Minute))
		require.NoError(t, err)
		assert.Equal(t, 2, next.CurrentIndex)
		assert.Equal(t, 67, next.ProgressPct)
		assert.Equal(t, s.Route[2].Location, *next.CurrentLocation)
		last := next.LocationHistory[len(next.LocationHistory)-1]
		assert.Equal(t, NoteManualUpdate, last.Note)
		assert.Equal(t, "admin", last.By)
	})

	t.Run("coordinates only", func(t *testing.T) {
		next, err := Relocate(s, shipment.LocationUpdate{Lat: ptr(33.0), Lng: ptr(-110.0), Note: "Scanned"}, meta(time.Minute))
		require.NoError(t, err)
		assert.Equal(t, 0, next.CurrentIndex)
		assert.Equal(t, shipment.NewPoint(-110, 33), *next.CurrentLocation)
		last := next.LocationHistory[len(next.LocationHistory)-1]
		assert.Equal(t, "Scanned", last.Note)
		assert.Nil(t, last.City)
	})
}

func TestInvariantsHoldAfterEveryOperation(t *testing.T) {
	s := created(t, "A", "B", "C", "D", "E", "F")
	steps := []func(*shipment.Shipment) (*shipment.Shipment, error){
		func(s *shipment.Shipment) (*shipment.Shipment, error) { return Advance(s, meta(1)) },
		func(s *shipment.Shipment) (*shipment.Shipment, error) {
			return Apply(s, shipment.ChangeSet{CurrentIndex: ptr(4)}, meta(2))
		},
		func(s *shipment.Shipment) (*shipment.Shipment, error) {
			return Relocate(s, shipment.LocationUpdate{City: "b"}, meta(3))
		},
		func(s *shipment.Shipment) (*shipment.Shipment, error) {
			return Apply(s, shipment.ChangeSet{Destination: &shipment.Destination{City: "C"}}, meta(4))
		},
		func(s *shipment.Shipment) (*shipment.Shipment, error) { return Advance(s, meta(5)) },
	}
	for i, step := range steps {
		var err error
		s, err = step(s)
		require.NoError(t, err, "step %d", i)

		assert.GreaterOrEqual(t, s.CurrentIndex, 0)
		assert.LessOrEqual(t, s.CurrentIndex, max(0, len(s.Route)-1))
		if !s.Status.IsDelivered() {
			pct, _ := Percent(s.CurrentIndex, len(s.Route))
			assert.Equal(t, pct, s.ProgressPct, "step %d", i)
		}
	}
}
