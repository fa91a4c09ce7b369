package shipment

import "errors"

var (
	ErrShipmentNotFound         = errors.New("shipment not found")
	ErrTrackingIDTaken          = errors.New("tracking id already exists")
	ErrTrackingIDExhausted      = errors.New("could not generate a unique tracking id")
	ErrInvalidStatus            = errors.New("invalid shipment status")
	ErrNoValidFields            = errors.New("no valid fields to update")
	ErrAlreadyAtFinalCheckpoint = errors.New("already at final checkpoint")
	ErrCurrentIndexOutOfRange   = errors.New("currentIndex is outside the route")
	ErrProgressOutOfRange       = errors.New("progressPct must be between 0 and 100")
	ErrInvalidLocation          = errors.New("invalid location coordinates")
	ErrLocationOrCityRequired   = errors.New("lat/lng or city required")
	ErrInvalidCheckpoint        = errors.New("invalid route checkpoint")
	ErrUpstreamProvider         = errors.New("route provider failure")
	ErrConcurrentUpdate         = errors.New("shipment changed during update")
)
