package service

import (
	"math"

	"happy-hearts-pos/pos-svc/internal/domain"
)

const earthRadiusKm = 6371

var StoreLocation = domain.Coordinate{Latitude: 16.1194375, Longitude: 120.4034375}

// HaversineKm is the great-circle distance between a and b.
func HaversineKm(a, b domain.Coordinate) float64 {
	dLat := toRadians(b.Latitude - a.Latitude)
	dLon := toRadians(b.Longitude - a.Longitude)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(a.Latitude))*math.Cos(toRadians(b.Latitude))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// FeeSchedule charges BaseFee up to FreeRadiusKm and PerKm for every
// kilometre beyond it. Only the excess charge is rounded.
type FeeSchedule struct {
	Store        domain.Coordinate
	BaseFee      float64
	FreeRadiusKm float64
	PerKm        float64
}

func DefaultFeeSchedule() FeeSchedule {
	return FeeSchedule{
		Store:        StoreLocation,
		BaseFee:      40,
		FreeRadiusKm: 3,
		PerKm:        10,
	}
}

type FeeQuote struct {
	Known      bool    `json:"known"`
	DistanceKm float64 `json:"distanceKm"`
	Fee        float64 `json:"fee"`
}

func (s FeeSchedule) FeeForDistance(km float64) float64 {
	if km <= s.FreeRadiusKm {
		return s.BaseFee
	}
	return s.BaseFee + math.Round((km-s.FreeRadiusKm)*s.PerKm)
}

// Quote prices a delivery to dest. A missing or invalid destination gives
// an unknown quote with a zero fee, which callers must not show as free.
func (s FeeSchedule) Quote(dest *domain.Coordinate) FeeQuote {
	if !ValidCoordinate(dest) {
		return FeeQuote{}
	}
	km := HaversineKm(s.Store, *dest)
	return FeeQuote{Known: true, DistanceKm: km, Fee: s.FeeForDistance(km)}
}

func (s FeeSchedule) Fee(dest *domain.Coordinate) float64 {
	return s.Quote(dest).Fee
}

func ValidCoordinate(c *domain.Coordinate) bool {
	if c == nil {
		return false
	}
	for _, v := range []float64{c.Latitude, c.Longitude} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return math.Abs(c.Latitude) <= 90 && math.Abs(c.Longitude) <= 180
}
