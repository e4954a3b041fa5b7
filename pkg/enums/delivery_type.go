package enums

import "fmt"

// DeliveryType maps to the delivery_type enum in Postgres.
type DeliveryType string

const (
	DeliveryTypeExpress       DeliveryType = "express"
	DeliveryTypeLocalDelivery DeliveryType = "local_delivery"
	DeliveryTypePickup        DeliveryType = "pickup"
)

var validDeliveryTypes = []DeliveryType{
	DeliveryTypeExpress,
	DeliveryTypeLocalDelivery,
	DeliveryTypePickup,
}

// String implements fmt.Stringer.
func (d DeliveryType) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DeliveryType.
func (d DeliveryType) IsValid() bool {
	for _, candidate := range validDeliveryTypes {
		if candidate == d {
			return true
		}
	}
	return false
}

// RequiresTracking reports whether shipments of this type carry a carrier
// and tracking number.
func (d DeliveryType) RequiresTracking() bool {
	return d == DeliveryTypeExpress
}

// ParseDeliveryType converts raw input into a DeliveryType.
func ParseDeliveryType(value string) (DeliveryType, error) {
	for _, candidate := range validDeliveryTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid delivery type %q", value)
}
