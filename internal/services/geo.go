package services

import "math"

const earthRadiusKm = 6371.0

// distanceKm returns the great-circle distance between two coordinates using
// the haversine formula.
func distanceKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLng := radians(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)

	return 2 * earthRadiusKm * math.Asin(math.Sqrt(a))
}

func radians(degrees float64) float64 {
	return degrees * math.Pi / 180
}
