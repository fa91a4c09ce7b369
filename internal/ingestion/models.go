package ingestion

import (
	"encoding/json"
	"strings"
	"time"

	shipmentUsecase "package-tracking/internal/usecase/shipment"
)

// LocationMessage is a position report published by a courier device on
// tracking/<trackingId>/location.
type LocationMessage struct {
	TrackingID string    `json:"-"`
	Timestamp  time.Time `json:"timestamp"`
	Lat        *float64  `json:"lat"`
	Lng        *float64  `json:"lng"`
	City       string    `json:"city"`
	Note       string    `json:"note"`
}

// ParseLocationMessage decodes payload and takes the tracking code from topic.
func ParseLocationMessage(topic string, payload []byte) (*LocationMessage, error) {
	var msg LocationMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return nil, err
	}
	msg.TrackingID = TrackingIDFromTopic(topic)
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	return &msg, nil
}

// TrackingIDFromTopic returns the second topic level, or "" when the topic
// does not look like tracking/<id>/location.
func TrackingIDFromTopic(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) != 3 || parts[2] != "location" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func (m *LocationMessage) toRequest() *shipmentUsecase.UpdateLocationRequest {
	return &shipmentUsecase.UpdateLocationRequest{
		Lat:  m.Lat,
		Lng:  m.Lng,
		City: m.City,
		Note: m.Note,
	}
}
