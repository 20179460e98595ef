package trip

import "math"

const earthRadiusKm = 6371.0

type Pricing struct {
	BaseFee float64
	PerKm   float64
	TaxRate float64
}

// HaversineKm is the great-circle distance between two points.
func HaversineKm(a, b Location) float64 {
	lat1, lat2 := radians(a.Lat), radians(b.Lat)
	dLat := lat2 - lat1
	dLng := radians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}

// Quote prices a delivery. Money and distance are rounded to cents.
func (p Pricing) Quote(subtotal, discount float64, pickup, dropoff Location) Financials {
	distance := HaversineKm(pickup, dropoff)
	fee := round2(p.BaseFee + p.PerKm*distance)
	tax := round2(p.TaxRate * (subtotal + fee))

	return Financials{
		Subtotal:    round2(subtotal),
		DeliveryFee: fee,
		Tax:         tax,
		DistanceKm:  round2(distance),
	}.WithDiscount(discount)
}

// WithDiscount recomputes the total with discount, capped at the gross
// amount.
func (f Financials) WithDiscount(discount float64) Financials {
	gross := round2(f.Subtotal + f.DeliveryFee + f.Tax)
	discount = round2(discount)
	if discount < 0 {
		discount = 0
	}
	if discount > gross {
		discount = gross
	}
	f.Discount = discount
	f.Total = round2(gross - discount)
	return f
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

func round2(v float64) float64 { return math.Round(v*100) / 100 }
