package shipment

import (
	"github.com/go-playground/validator/v10"

	domainShipment "package-tracking/internal/domain/shipment"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	err := validate.RegisterValidation("shipment_status", validateShipmentStatus)
	if err != nil {
		return
	}
}

// ValidateStruct runs the struct-tag validation rules of the request DTOs.
func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

func validateShipmentStatus(fl validator.FieldLevel) bool {
	return domainShipment.ShipmentStatus(fl.Field().String()).IsKnown()
}
