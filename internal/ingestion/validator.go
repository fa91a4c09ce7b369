package ingestion

import (
	"fmt"

	"package-tracking/internal/domain/shipment"
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error [%s]: %s", e.Field, e.Message)
}

// ValidateLocationMessage validates a device position report
func ValidateLocationMessage(msg *LocationMessage) error {
	if msg.TrackingID == "" {
		return &ValidationError{Field: "topic", Message: "topic must be tracking/<trackingId>/location"}
	}

	if (msg.Lat == nil) != (msg.Lng == nil) {
		return &ValidationError{Field: "lat", Message: "lat and lng must be sent together"}
	}

	if msg.Lat != nil && !shipment.ValidCoordinates(*msg.Lng, *msg.Lat) {
		return &ValidationError{Field: "lat", Message: "lat must be between -90 and 90, lng between -180 and 180"}
	}

	if msg.Lat == nil && msg.City == "" {
		return &ValidationError{Field: "city", Message: "either lat/lng or city is required"}
	}

	if len(msg.Note) > 500 {
		return &ValidationError{Field: "note", Message: "note must be at most 500 characters"}
	}

	return nil
}
