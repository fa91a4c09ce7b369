package shipment

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	domainShipment "package-tracking/internal/domain/shipment"
	"package-tracking/internal/logger"
	"package-tracking/internal/shipment/progress"
	"package-tracking/internal/shipment/route"
	appErrors "package-tracking/pkg/errors"
	"package-tracking/pkg/utils"
)

// Actors recorded in location history entries.
const (
	ActorAdmin  = "admin"
	ActorDevice = "device"
)

const DefaultOrigin = "Los Angeles, CA"

// TrackingCache stores serialized public views keyed by tracking code.
type TrackingCache interface {
	Get(ctx context.Context, trackingID string) ([]byte, bool)
	Set(ctx context.Context, trackingID string, payload []byte)
	Delete(ctx context.Context, trackingID string)
}

type noopCache struct{}

func (noopCache) Get(context.Context, string) ([]byte, bool) { return nil, false }
func (noopCache) Set(context.Context, string, []byte) {}
func (noopCache) Delete(context.Context, string) {}

// Service implements shipment use cases
type Service struct {
	repo          domainShipment.Repository
	routes        route.Provider
	cache         TrackingCache
	defaultOrigin string

	newTrackingID func() (string, error)
	now           func() time.Time
}

// NewService creates a new shipment service. A nil cache disables caching.
func NewService(
	repo domainShipment.Repository,
	routes route.Provider,
	cache TrackingCache,
	defaultOrigin string,
) *Service {
	if cache == nil {
		cache = noopCache{}
	}
	if strings.TrimSpace(defaultOrigin) == "" {
		defaultOrigin = DefaultOrigin
	}
	return &Service{
		repo:          repo,
		routes:        routes,
		cache:         cache,
		defaultOrigin: defaultOrigin,
		newTrackingID: NewTrackingID,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) CreateShipment(ctx context.Context, req *CreateShipmentRequest) (*domainShipment.Shipment, error) {
	if err := ValidateStruct(req); err != nil {
		return nil, appErrors.BadRequest("Invalid input", err)
	}
	dest := sanitizeDestination(*req.Destination)
	if !dest.HasCity() && dest.Location == nil {
		return nil, appErrors.BadRequest("product and destination required", nil)
	}
	if dest.Location != nil && !dest.Location.Valid() {
		return nil, mapError(domainShipment.ErrInvalidLocation)
	}

	draft := &domainShipment.Shipment{
		CustomerName:         utils.SanitizeString(req.CustomerName),
		Product:              utils.SanitizeString(req.Product),
		Quantity:             1,
		ImageURL:             strings.TrimSpace(req.ImageURL),
		OriginWarehouse:      utils.SanitizeString(req.OriginWarehouse),
		Address:              sanitizeAddress(req.Address),
		Destination:          &dest,
		ServiceType:          utils.SanitizeString(req.ServiceType),
		ShipmentDetails:      utils.SanitizeText(req.ShipmentDetails),
		ProductDescription:   utils.SanitizeText(req.ProductDescription),
		Description:          utils.SanitizeText(req.Description),
		WeightKg:             req.WeightKg,
		ShipmentDate:         req.ShipmentDate.ptr(),
		ExpectedDeliveryDate: req.ExpectedDelivery.ptr(),
		Status:               domainShipment.StatusPending,
	}
	if req.Quantity != nil {
		draft.Quantity = *req.Quantity
	}
	if draft.ExpectedDeliveryDate == nil && dest.ExpectedDeliveryDate != nil {
		t := *dest.ExpectedDeliveryDate
		draft.ExpectedDeliveryDate = &t
	}
	for _, st := range []*string{req.InitialStatus, req.Status} {
		if st != nil && strings.TrimSpace(*st) != "" {
			draft.Status = domainShipment.ShipmentStatus(strings.TrimSpace(*st))
		}
	}

	if len(req.Route) > 0 {
		checkpoints, err := toCheckpoints(req.Route)
		if err != nil {
			return nil, mapError(err)
		}
		draft.Route = checkpoints
	} else {
		origin := route.Place{Label: firstNonEmpty(req.Origin, draft.OriginWarehouse, s.defaultOrigin)}
		draft.Route = s.routes.Generate(ctx, origin, route.Place{Label: dest.Label(), Location: dest.Location})
	}

	record, err := progress.NewShipment(draft, progress.Meta{Now: s.now(), By: ActorAdmin})
	if err != nil {
		return nil, mapError(err)
	}

	if code := strings.TrimSpace(req.TrackingID); code != "" {
		if err := s.insertWithCode(ctx, record, code); err != nil {
			return nil, err
		}
	} else if err := s.insertWithGeneratedCode(ctx, record); err != nil {
		return nil, err
	}

	logger.Info("Shipment created",
		zap.String("shipment_id", record.ID),
		zap.String("tracking_id", record.TrackingID),
		zap.Int("checkpoints", len(record.Route)),
		zap.String("event", "shipment_created"),
	)

	return record, nil
}

func (s *Service) insertWithCode(ctx context.Context, record *domainShipment.Shipment, code string) error {
	exists, err := s.repo.TrackingIDExists(ctx, code)
	if err != nil {
		return mapError(err)
	}
	if exists {
		return mapError(domainShipment.ErrTrackingIDTaken)
	}
	record.TrackingID = code
	if err := s.repo.Create(ctx, record); err != nil {
		return mapError(err)
	}
	return nil
}

func (s *Service) insertWithGeneratedCode(ctx context.Context, record *domainShipment.Shipment) error {
	for attempt := 1; attempt <= MaxTrackingIDAttempts; attempt++ {
		code, err := s.newTrackingID()
		if err != nil {
			return mapError(err)
		}

		exists, err := s.repo.TrackingIDExists(ctx, code)
		if err != nil {
			return mapError(err)
		}
		if exists {
			logger.Debug("Tracking id collision", zap.String("tracking_id", code), zap.Int("attempt", attempt))
			continue
		}

		record.ID = ""
		record.TrackingID = code
		err = s.repo.Create(ctx, record)
		if errors.Is(err, domainShipment.ErrTrackingIDTaken) {
			logger.Debug("Tracking id taken on insert", zap.String("tracking_id", code), zap.Int("attempt", attempt))
			continue
		}
		if err != nil {
			return mapError(err)
		}
		return nil
	}

	logger.Error("Tracking id generation exhausted", zap.Int("attempts", MaxTrackingIDAttempts))
	return mapError(domainShipment.ErrTrackingIDExhausted)
}

func (s *Service) ListShipments(ctx context.Context, page, limit int) (*ListShipmentsResponse, error) {
	page, limit = domainShipment.NormalizePage(page, limit)

	items, total, err := s.repo.List(ctx, page, limit)
	if err != nil {
		return nil, mapError(err)
	}
	if items == nil {
		items = []*domainShipment.Shipment{}
	}

	return &ListShipmentsResponse{Items: items, Page: page, Limit: limit, Total: total}, nil
}

func (s *Service) GetShipment(ctx context.Context, idOrCode string) (*domainShipment.Shipment, error) {
	record, _, err := s.repo.Resolve(ctx, strings.TrimSpace(idOrCode))
	if err != nil {
		return nil, mapError(err)
	}
	return record, nil
}

// UpdateShipment applies an admin patch. A patch without recognized fields is
// rejected before the store is touched.
func (s *Service) UpdateShipment(ctx context.Context, idOrCode string, req *UpdateShipmentRequest) (*domainShipment.Shipment, error) {
	cs := req.ToChangeSet()
	if cs.Empty() {
		return nil, mapError(domainShipment.ErrNoValidFields)
	}
	if err := ValidateStruct(req); err != nil {
		return nil, appErrors.BadRequest("Invalid input", err)
	}

	updated, err := s.mutate(ctx, idOrCode, func(current *domainShipment.Shipment, meta progress.Meta) (*domainShipment.Shipment, error) {
		return progress.Apply(current, cs, meta)
	}, ActorAdmin)
	if err != nil {
		return nil, err
	}

	logger.Info("Shipment updated",
		zap.String("tracking_id", updated.TrackingID),
		zap.Int("current_index", updated.CurrentIndex),
		zap.String("status", string(updated.Status)),
		zap.String("event", "shipment_updated"),
	)
	return updated, nil
}

func (s *Service) AdvanceShipment(ctx context.Context, idOrCode string) (*domainShipment.Shipment, error) {
	updated, err := s.mutate(ctx, idOrCode, progress.Advance, ActorAdmin)
	if err != nil {
		return nil, err
	}

	logger.Info("Shipment advanced",
		zap.String("tracking_id", updated.TrackingID),
		zap.Int("current_index", updated.CurrentIndex),
		zap.Int("progress_pct", updated.ProgressPct),
		zap.String("event", "shipment_advanced"),
	)
	return updated, nil
}

// UpdateLocation records a position fix reported by an admin or a device.
func (s *Service) UpdateLocation(ctx context.Context, idOrCode string, req *UpdateLocationRequest, by string) (*domainShipment.Shipment, error) {
	if err := ValidateStruct(req); err != nil {
		return nil, appErrors.BadRequest("Invalid input", err)
	}
	upd := domainShipment.LocationUpdate{
		Lat:  req.Lat,
		Lng:  req.Lng,
		City: utils.SanitizeString(req.City),
		Note: utils.SanitizeText(req.Note),
	}

	updated, err := s.mutate(ctx, idOrCode, func(current *domainShipment.Shipment, meta progress.Meta) (*domainShipment.Shipment, error) {
		return progress.Relocate(current, upd, meta)
	}, by)
	if err != nil {
		return nil, err
	}

	logger.Info("Shipment location updated",
		zap.String("tracking_id", updated.TrackingID),
		zap.String("by", by),
		zap.String("event", "shipment_location_updated"),
	)
	return updated, nil
}

func (s *Service) DeleteShipment(ctx context.Context, idOrCode string) (*DeleteShipmentResponse, error) {
	idOrCode = strings.TrimSpace(idOrCode)

	var trackingID string
	if existing, _, err := s.repo.Resolve(ctx, idOrCode); err == nil {
		trackingID = existing.TrackingID
	} else if !errors.Is(err, domainShipment.ErrShipmentNotFound) {
		return nil, mapError(err)
	}

	deleted, err := s.repo.Delete(ctx, idOrCode)
	if err != nil {
		return nil, mapError(err)
	}
	if trackingID != "" {
		s.cache.Delete(ctx, trackingID)
	}

	if deleted > 0 {
		logger.Info("Shipment deleted",
			zap.String("tracking_id", trackingID),
			zap.String("event", "shipment_deleted"),
		)
	}
	return &DeleteShipmentResponse{DeletedCount: deleted}, nil
}

// TrackShipment returns the public view of a shipment by tracking code.
func (s *Service) TrackShipment(ctx context.Context, trackingID string) (*TrackingView, error) {
	trackingID = strings.TrimSpace(trackingID)
	if trackingID == "" {
		return nil, appErrors.BadRequest("trackingId required", nil)
	}

	if payload, ok := s.cache.Get(ctx, trackingID); ok {
		var view TrackingView
		if err := json.Unmarshal(payload, &view); err == nil {
			return &view, nil
		}
		s.cache.Delete(ctx, trackingID)
	}

	record, err := s.repo.GetByTrackingID(ctx, trackingID)
	if err != nil {
		return nil, mapError(err)
	}

	view := ToTrackingView(record)
	if payload, err := json.Marshal(view); err == nil {
		s.cache.Set(ctx, trackingID, payload)
	}
	return view, nil
}

type transition func(current *domainShipment.Shipment, meta progress.Meta) (*domainShipment.Shipment, error)

// mutate runs one engine transition inside the store's atomic update.
func (s *Service) mutate(ctx context.Context, idOrCode string, fn transition, by string) (*domainShipment.Shipment, error) {
	updated, err := s.repo.Update(ctx, strings.TrimSpace(idOrCode), func(current *domainShipment.Shipment) error {
		next, err := fn(current, progress.Meta{Now: s.now(), By: by})
		if err != nil {
			return err
		}
		*current = *next
		return nil
	})
	if err != nil {
		return nil, mapError(err)
	}

	s.cache.Delete(ctx, updated.TrackingID)
	return updated, nil
}

func mapError(err error) error {
	var appErr *appErrors.AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, domainShipment.ErrShipmentNotFound):
		return appErrors.NotFound("Shipment not found", err)
	case errors.Is(err, domainShipment.ErrNoValidFields):
		return appErrors.BadRequest("No valid fields", err)
	case errors.Is(err, domainShipment.ErrAlreadyAtFinalCheckpoint):
		return appErrors.NewAppError(appErrors.CodeAlreadyAtFinalCheckpoint, "Already at final checkpoint", err)
	case errors.Is(err, domainShipment.ErrTrackingIDTaken):
		return appErrors.NewAppError(appErrors.CodeConflict, "Tracking id already exists", err)
	case errors.Is(err, domainShipment.ErrConcurrentUpdate):
		return appErrors.NewAppError(appErrors.CodeConflict, "Shipment was modified concurrently, retry", err)
	case errors.Is(err, domainShipment.ErrTrackingIDExhausted):
		return appErrors.NewAppError(appErrors.CodeTrackingIDGenerationFailed, "Failed to generate trackingId", err)
	case errors.Is(err, domainShipment.ErrInvalidStatus),
		errors.Is(err, domainShipment.ErrCurrentIndexOutOfRange),
		errors.Is(err, domainShipment.ErrProgressOutOfRange),
		errors.Is(err, domainShipment.ErrInvalidLocation),
		errors.Is(err, domainShipment.ErrLocationOrCityRequired),
		errors.Is(err, domainShipment.ErrInvalidCheckpoint):
		return appErrors.BadRequest(err.Error(), err)
	default:
		logger.Error("Shipment store failure", zap.Error(err))
		return appErrors.Internal("Internal server error", err)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
