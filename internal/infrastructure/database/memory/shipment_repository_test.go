package memory

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"package-tracking/internal/domain/shipment"
)

func seed(t *testing.T, r *ShipmentRepository, code string, created time.Time) *shipment.Shipment {
	t.Helper()
	s := &shipment.Shipment{TrackingID: code, Product: "Box", CreatedAt: created}
	require.NoError(t, r.Create(context.Background(), s))
	require.NotEmpty(t, s.ID)
	return s
}

func TestResolve(t *testing.T) {
	ctx := context.Background()
	r := NewShipmentRepository()
	a := seed(t, r, "TRK-AAAAAA", time.Now())

	got, how, err := r.Resolve(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, shipment.ResolvedByInternalID, how)
	assert.Equal(t, a.TrackingID, got.TrackingID)

	got, how, err = r.Resolve(ctx, "TRK-AAAAAA")
	require.NoError(t, err)
	assert.Equal(t, shipment.ResolvedByTrackingCode, how)
	assert.Equal(t, a.ID, got.ID)

	_, how, err = r.Resolve(ctx, "not-an-id{}")
	assert.ErrorIs(t, err, shipment.ErrShipmentNotFound)
	assert.Equal(t, shipment.ResolvedNone, how)
}

func TestResolve_InternalIDWinsOverCode(t *testing.T) {
	ctx := context.Background()
	r := NewShipmentRepository()
	a := seed(t, r, "TRK-AAAAAA", time.Now())
	// A second record whose tracking code happens to equal the first record's id.
	seed(t, r, a.ID, time.Now())

	got, how, err := r.Resolve(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, shipment.ResolvedByInternalID, how)
	assert.Equal(t, "TRK-AAAAAA", got.TrackingID)
}

func TestResolve_InternalIDIgnoresCase(t *testing.T) {
	ctx := context.Background()
	r := NewShipmentRepository()
	a := seed(t, r, "TRK-AAAAAA", time.Now())

	got, how, err := r.Resolve(ctx, strings.ToUpper(a.ID))
	require.NoError(t, err)
	assert.Equal(t, shipment.ResolvedByInternalID, how)
	assert.Equal(t, a.ID, got.ID)

	for _, alt := range []string{"{" + a.ID + "}", "urn:uuid:" + a.ID, strings.ReplaceAll(a.ID, "-", "")} {
		assert.False(t, IsValidInternalID(alt), alt)
		_, _, err = r.Resolve(ctx, alt)
		assert.ErrorIs(t, err, shipment.ErrShipmentNotFound, alt)
	}
}

func TestCreate_DuplicateCode(t *testing.T) {
	r := NewShipmentRepository()
	seed(t, r, "TRK-AAAAAA", time.Now())
	err := r.Create(context.Background(), &shipment.Shipment{TrackingID: "TRK-AAAAAA"})
	assert.ErrorIs(t, err, shipment.ErrTrackingIDTaken)
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	r := NewShipmentRepository()
	a := seed(t, r, "TRK-AAAAAA", time.Now())

	updated, err := r.Update(ctx, "TRK-AAAAAA", func(s *shipment.Shipment) error {
		s.Product = "Crate"
		s.ID = "tampered"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Crate", updated.Product)
	assert.Equal(t, a.ID, updated.ID)

	boom := errors.New("boom")
	_, err = r.Update(ctx, a.ID, func(s *shipment.Shipment) error {
		s.Product = "Lost"
		return boom
	})
	assert.ErrorIs(t, err, boom)
	got, _, _ := r.Resolve(ctx, a.ID)
	assert.Equal(t, "Crate", got.Product)

	_, err = r.Update(ctx, "TRK-ZZZZZZ", func(*shipment.Shipment) error {
		t.Fatal("mutator must not run for a missing record")
		return nil
	})
	assert.ErrorIs(t, err, shipment.ErrShipmentNotFound)
}

func TestDelete_Idempotent(t *testing.T) {
	ctx := context.Background()
	r := NewShipmentRepository()
	seed(t, r, "TRK-AAAAAA", time.Now())

	n, err := r.Delete(ctx, "TRK-AAAAAA")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	for range 2 {
		n, err = r.Delete(ctx, "TRK-AAAAAA")
		require.NoError(t, err)
		assert.EqualValues(t, 0, n)
	}
}

func TestList_NewestFirst(t *testing.T) {
	ctx := context.Background()
	r := NewShipmentRepository()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, code := range []string{"TRK-000001", "TRK-000002", "TRK-000003"} {
		seed(t, r, code, base.Add(time.Duration(i)*time.Hour))
	}

	items, total, err := r.List(ctx, 1, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, items, 2)
	assert.Equal(t, "TRK-000003", items[0].TrackingID)
	assert.Equal(t, "TRK-000002", items[1].TrackingID)

	items, _, err = r.List(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "TRK-000001", items[0].TrackingID)

	items, _, err = r.List(ctx, 5, 2)
	require.NoError(t, err)
	assert.Empty(t, items)
}
