package detection

import "math"

const earthRadiusKm = 6371.0

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}

func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(a)))
}

// offset moves a point by north/east kilometers on a local flat approximation,
// which is accurate enough for probe distances of a few kilometers.
func offset(lat, lon, northKm, eastKm float64) (float64, float64) {
	dLat := northKm / earthRadiusKm * 180 / math.Pi
	cos := math.Cos(toRad(lat))
	if math.Abs(cos) < 1e-9 {
		return lat + dLat, lon
	}
	dLon := eastKm / (earthRadiusKm * cos) * 180 / math.Pi
	return lat + dLat, wrapLon(lon + dLon)
}

func wrapLon(lon float64) float64 {
	for lon > 180 {
		lon -= 360
	}
	for lon < -180 {
		lon += 360
	}
	return lon
}

// probeDirections is the fixed N, NE, E, SE, S, SW, W, NW probe order. The
// center point is the primary test and is not repeated.
var probeDirections = [8][2]float64{
	{1, 0}, {1, 1}, {0, 1}, {-1, 1},
	{-1, 0}, {-1, -1}, {0, -1}, {1, -1},
}
