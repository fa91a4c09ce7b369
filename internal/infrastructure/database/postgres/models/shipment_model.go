package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"package-tracking/internal/domain/shipment"
)

// ShipmentModel represents the database model for Shipments
type ShipmentModel struct {
	ID                   uuid.UUID                                          `gorm:"type:uuid;primary_key"`
	TrackingID           string                                             `gorm:"type:varchar(64);not null;uniqueIndex"`
	CustomerName         string                                             `gorm:"type:text"`
	Product              string                                             `gorm:"type:text;not null"`
	Quantity             int                                                `gorm:"type:integer;not null;default:1"`
	ImageURL             string                                             `gorm:"type:text"`
	OriginWarehouse      string                                             `gorm:"type:text"`
	Address              datatypes.JSONType[shipment.Address]               `gorm:"type:jsonb"`
	Destination          datatypes.JSONType[*shipment.Destination]          `gorm:"type:jsonb"`
	ServiceType          string                                             `gorm:"type:text"`
	ShipmentDetails      string                                             `gorm:"type:text"`
	ProductDescription   string                                             `gorm:"type:text"`
	Description          string                                             `gorm:"type:text"`
	WeightKg             *float64                                           `gorm:"type:decimal(10,3)"`
	ShipmentDate         *time.Time                                         `gorm:"type:timestamptz"`
	ExpectedDeliveryDate *time.Time                                         `gorm:"type:timestamptz"`
	Route                datatypes.JSONSlice[shipment.Checkpoint]           `gorm:"type:jsonb;not null"`
	CurrentIndex         int                                                `gorm:"type:integer;not null;default:0"`
	CurrentLng           *float64                                           `gorm:"type:double precision"`
	CurrentLat           *float64                                           `gorm:"type:double precision"`
	ProgressPct          int                                                `gorm:"type:integer;not null;default:0;check:progress_pct >= 0 AND progress_pct <= 100"`
	Status               string                                             `gorm:"type:varchar(32);not null;index"`
	LocationHistory      datatypes.JSONSlice[shipment.LocationHistoryEntry] `gorm:"type:jsonb;not null"`
	CreatedAt            time.Time                                          `gorm:"not null;index;autoCreateTime:false"`
	UpdatedAt            time.Time                                          `gorm:"not null;autoUpdateTime:false"`
	LastUpdated          time.Time                                          `gorm:"not null"`
}

func (ShipmentModel) TableName() string {
	return "shipments"
}

func ToShipmentModel(s *shipment.Shipment) *ShipmentModel {
	m := &ShipmentModel{
		TrackingID:           s.TrackingID,
		CustomerName:         s.CustomerName,
		Product:              s.Product,
		Quantity:             s.Quantity,
		ImageURL:             s.ImageURL,
		OriginWarehouse:      s.OriginWarehouse,
		Address:              datatypes.NewJSONType(s.Address),
		Destination:          datatypes.NewJSONType(s.Destination),
		ServiceType:          s.ServiceType,
		ShipmentDetails:      s.ShipmentDetails,
		ProductDescription:   s.ProductDescription,
		Description:          s.Description,
		WeightKg:             s.WeightKg,
		ShipmentDate:         s.ShipmentDate,
		ExpectedDeliveryDate: s.ExpectedDeliveryDate,
		Route:                datatypes.JSONSlice[shipment.Checkpoint](nonNil(s.Route)),
		CurrentIndex:         s.CurrentIndex,
		ProgressPct:          s.ProgressPct,
		Status:               string(s.Status),
		LocationHistory:      datatypes.JSONSlice[shipment.LocationHistoryEntry](nonNil(s.LocationHistory)),
		CreatedAt:            s.CreatedAt,
		UpdatedAt:            s.UpdatedAt,
		LastUpdated:          s.LastUpdated,
	}
	if id, err := uuid.Parse(s.ID); err == nil {
		m.ID = id
	}
	if s.CurrentLocation != nil {
		lng, lat := s.CurrentLocation.Lng(), s.CurrentLocation.Lat()
		m.CurrentLng, m.CurrentLat = &lng, &lat
	}
	return m
}

func (m *ShipmentModel) ToEntity() *shipment.Shipment {
	s := &shipment.Shipment{
		ID:                   m.ID.String(),
		TrackingID:           m.TrackingID,
		CustomerName:         m.CustomerName,
		Product:              m.Product,
		Quantity:             m.Quantity,
		ImageURL:             m.ImageURL,
		OriginWarehouse:      m.OriginWarehouse,
		Address:              m.Address.Data(),
		Destination:          m.Destination.Data(),
		ServiceType:          m.ServiceType,
		ShipmentDetails:      m.ShipmentDetails,
		ProductDescription:   m.ProductDescription,
		Description:          m.Description,
		WeightKg:             m.WeightKg,
		ShipmentDate:         m.ShipmentDate,
		ExpectedDeliveryDate: m.ExpectedDeliveryDate,
		Route:                []shipment.Checkpoint(m.Route),
		CurrentIndex:         m.CurrentIndex,
		ProgressPct:          m.ProgressPct,
		Status:               shipment.ShipmentStatus(m.Status),
		LocationHistory:      []shipment.LocationHistoryEntry(m.LocationHistory),
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
		LastUpdated:          m.LastUpdated,
	}
	if m.CurrentLng != nil && m.CurrentLat != nil {
		p := shipment.NewPoint(*m.CurrentLng, *m.CurrentLat)
		s.CurrentLocation = &p
	}
	return s
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
