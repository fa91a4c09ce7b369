// Package memory is a process-local shipment store used for development and tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"package-tracking/internal/domain/shipment"
)

type ShipmentRepository struct {
	mu        sync.RWMutex
	shipments map[string]*shipment.Shipment
	byCode    map[string]string
}

func NewShipmentRepository() *ShipmentRepository {
	return &ShipmentRepository{
		shipments: make(map[string]*shipment.Shipment),
		byCode:    make(map[string]string),
	}
}

// IsValidInternalID reports whether id has the shape of an id this store assigns.
func IsValidInternalID(id string) bool {
	_, ok := canonicalID(id)
	return ok
}

// canonicalID accepts only the hyphenated 36-character UUID form, in any case.
func canonicalID(id string) (string, bool) {
	if len(id) != 36 {
		return "", false
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", false
	}
	return parsed.String(), true
}

func (r *ShipmentRepository) Resolve(ctx context.Context, idOrCode string) (*shipment.Shipment, shipment.Resolution, error) {
	if err := ctx.Err(); err != nil {
		return nil, shipment.ResolvedNone, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, how := r.lookup(idOrCode)
	if s == nil {
		return nil, shipment.ResolvedNone, shipment.ErrShipmentNotFound
	}
	return s.Clone(), how, nil
}

func (r *ShipmentRepository) GetByTrackingID(ctx context.Context, trackingID string) (*shipment.Shipment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byCode[trackingID]
	if !ok {
		return nil, shipment.ErrShipmentNotFound
	}
	return r.shipments[id].Clone(), nil
}

func (r *ShipmentRepository) TrackingIDExists(ctx context.Context, trackingID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.byCode[trackingID]
	return ok, nil
}

func (r *ShipmentRepository) Create(ctx context.Context, s *shipment.Shipment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byCode[s.TrackingID]; taken {
		return shipment.ErrTrackingIDTaken
	}

	s.ID = uuid.NewString()
	r.shipments[s.ID] = s.Clone()
	r.byCode[s.TrackingID] = s.ID
	return nil
}

// Update holds the write lock across read, mutate and write, so concurrent
// updates to one record are serialized.
func (r *ShipmentRepository) Update(ctx context.Context, idOrCode string, mutate shipment.MutateFunc) (*shipment.Shipment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	current, _ := r.lookup(idOrCode)
	if current == nil {
		return nil, shipment.ErrShipmentNotFound
	}

	next := current.Clone()
	if err := mutate(next); err != nil {
		return nil, err
	}
	next.ID = current.ID
	next.TrackingID = current.TrackingID
	next.CreatedAt = current.CreatedAt

	r.shipments[next.ID] = next
	return next.Clone(), nil
}

func (r *ShipmentRepository) Delete(ctx context.Context, idOrCode string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	s, _ := r.lookup(idOrCode)
	if s == nil {
		return 0, nil
	}
	delete(r.shipments, s.ID)
	delete(r.byCode, s.TrackingID)
	return 1, nil
}

func (r *ShipmentRepository) List(ctx context.Context, page, pageSize int) ([]*shipment.Shipment, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	page, pageSize = shipment.NormalizePage(page, pageSize)

	r.mu.RLock()
	all := make([]*shipment.Shipment, 0, len(r.shipments))
	for _, s := range r.shipments {
		all = append(all, s)
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].TrackingID > all[j].TrackingID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	total := int64(len(all))
	start := (page - 1) * pageSize
	if start >= len(all) {
		return []*shipment.Shipment{}, total, nil
	}
	end := min(start+pageSize, len(all))

	out := make([]*shipment.Shipment, 0, end-start)
	for _, s := range all[start:end] {
		out = append(out, s.Clone())
	}
	return out, total, nil
}

func (r *ShipmentRepository) Health(ctx context.Context) error {
	return ctx.Err()
}

// lookup prefers an internal id match over a tracking code match.
func (r *ShipmentRepository) lookup(idOrCode string) (*shipment.Shipment, shipment.Resolution) {
	idOrCode = strings.TrimSpace(idOrCode)
	if idOrCode == "" {
		return nil, shipment.ResolvedNone
	}
	if id, ok := canonicalID(idOrCode); ok {
		if s, ok := r.shipments[id]; ok {
			return s, shipment.ResolvedByInternalID
		}
	}
	if id, ok := r.byCode[idOrCode]; ok {
		return r.shipments[id], shipment.ResolvedByTrackingCode
	}
	return nil, shipment.ResolvedNone
}
