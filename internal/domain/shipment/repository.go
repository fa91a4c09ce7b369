package shipment

import "context"

// Resolution tells which key matched when a caller-supplied identifier was resolved.
type Resolution int

const (
	ResolvedNone Resolution = iota
	ResolvedByInternalID
	ResolvedByTrackingCode
)

func (r Resolution) String() string {
	switch r {
	case ResolvedByInternalID:
		return "internal_id"
	case ResolvedByTrackingCode:
		return "tracking_code"
	default:
		return "none"
	}
}

// MutateFunc receives a private copy of the stored record and edits it in place.
// Returning an error aborts the update without writing anything.
type MutateFunc func(s *Shipment) error

// Repository defines the interface for shipment record store operations.
// Every method taking idOrCode accepts either the store's internal id or the
// public tracking code.
type Repository interface {
	Resolve(ctx context.Context, idOrCode string) (*Shipment, Resolution, error)
	GetByTrackingID(ctx context.Context, trackingID string) (*Shipment, error)
	TrackingIDExists(ctx context.Context, trackingID string) (bool, error)
	Create(ctx context.Context, shipment *Shipment) error
	Update(ctx context.Context, idOrCode string, mutate MutateFunc) (*Shipment, error)
	Delete(ctx context.Context, idOrCode string) (int64, error)
	List(ctx context.Context, page, pageSize int) ([]*Shipment, int64, error)
	Health(ctx context.Context) error
}

const (
	DefaultPageSize = 50
	MaxPageSize     = 1000
)

// NormalizePage clamps pagination input to the supported range.
func NormalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}
