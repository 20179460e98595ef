package trip

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	almaty  = Location{Address: "Almaty", Lat: 43.2220, Lng: 76.8512}
	astana  = Location{Address: "Astana", Lat: 51.1694, Lng: 71.4491}
	samePin = Location{Address: "Same", Lat: 43.2220, Lng: 76.8512}
)

func TestHaversineKm(t *testing.T) {
	assert.InDelta(t, 970, HaversineKm(almaty, astana), 15)
	assert.Zero(t, HaversineKm(almaty, samePin))
	assert.InDelta(t, HaversineKm(almaty, astana), HaversineKm(astana, almaty), 1e-9)
}

func TestQuote(t *testing.T) {
	p := Pricing{BaseFee: 2.5, PerKm: 1, TaxRate: 0.1}

	f := p.Quote(20, 0, almaty, samePin)

	assert.Equal(t, 20.0, f.Subtotal)
	assert.Equal(t, 2.5, f.DeliveryFee)
	assert.Equal(t, 2.25, f.Tax)
	assert.Equal(t, 0.0, f.Discount)
	assert.Equal(t, 24.75, f.Total)
	assert.Equal(t, 0.0, f.DistanceKm)
}

func TestWithDiscount(t *testing.T) {
	f := Financials{Subtotal: 10, DeliveryFee: 5, Tax: 1.5}

	assert.Equal(t, 14.0, f.WithDiscount(2.5).Total)
	assert.Equal(t, 16.5, f.WithDiscount(-3).Total)

	capped := f.WithDiscount(100)
	assert.Equal(t, 16.5, capped.Discount)
	assert.Equal(t, 0.0, capped.Total)
}
