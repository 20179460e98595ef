package trip

type LocationInput struct {
	Address string   `json:"address" validate:"required,min=3,max=500"`
	Lat     *float64 `json:"lat" validate:"required,gte=-90,lte=90"`
	Lng     *float64 `json:"lng" validate:"required,gte=-180,lte=180"`
}

func (l LocationInput) location() Location {
	return Location{Address: l.Address, Lat: *l.Lat, Lng: *l.Lng}
}

type CreateRequest struct {
	Pickup             LocationInput `json:"pickup" validate:"required"`
	Dropoff            LocationInput `json:"dropoff" validate:"required"`
	PackageDescription string        `json:"packageDescription" validate:"required,max=1000"`
	Notes              string        `json:"notes" validate:"omitempty,max=1000"`
	Subtotal           float64       `json:"subtotal" validate:"gte=0"`
}

type StatusRequest struct {
	Status    Status   `json:"status" validate:"required"`
	DriverID  *int64   `json:"driverId" validate:"omitempty,gt=0"`
	VehicleID *string  `json:"vehicleId" validate:"omitempty,max=64"`
	Reason    string   `json:"reason" validate:"omitempty,max=500"`
	Discount  *float64 `json:"discount" validate:"omitempty,gte=0"`
	Version   *int64   `json:"version" validate:"omitempty,gt=0"`
}

type ConfirmRequest struct {
	Code string `json:"code" validate:"required"`
}

type LocationRequest struct {
	Lat *float64 `json:"lat" validate:"required,gte=-90,lte=90"`
	Lng *float64 `json:"lng" validate:"required,gte=-180,lte=180"`
}

type CancelRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

// QRPayload is what the customer's app renders as a QR code for the driver
// to scan.
type QRPayload struct {
	TripID      int64  `json:"tripId"`
	OrderNumber string `json:"orderNumber"`
	Code        string `json:"code"`
	Content     string `json:"content"`
}
