package projects

import "math"

// earthRadius is the WGS84 semi-major axis used by spherical web mercator.
const earthRadius = 6378137.0

// mercator projects a WGS84 point to EPSG:3857 meters.
func mercator(lat, lon float64) (x, y float64) {
	x = earthRadius * lon * math.Pi / 180
	y = earthRadius * math.Log(math.Tan(math.Pi/4+lat*math.Pi/360))
	return x, y
}

// projectedDistance is the planar EPSG:3857 distance in meters between two
// WGS84 points. It overstates true distance away from the equator, which
// matches how radius queries have always been answered.
func projectedDistance(lat1, lon1, lat2, lon2 float64) float64 {
	x1, y1 := mercator(lat1, lon1)
	x2, y2 := mercator(lat2, lon2)
	return math.Hypot(x2-x1, y2-y1)
}
