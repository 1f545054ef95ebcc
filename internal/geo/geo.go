// Package geo provides coordinate parsing and distance ordering for store
// records.
package geo

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"

	"github.com/nwbort/stores-kmart/internal/model"
)

const earthRadiusKM = 6371.0

// ParseLatLon parses a "lat,lon" pair into an XY coordinate (lon first, per
// go-geom convention).
func ParseLatLon(s string) (geom.Coord, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return nil, eris.Errorf("geo: expected lat,lon but got %q", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return nil, eris.Wrapf(err, "geo: parse latitude %q", parts[0])
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return nil, eris.Wrapf(err, "geo: parse longitude %q", parts[1])
	}
	if lat < -90 || lat > 90 {
		return nil, eris.Errorf("geo: latitude %v out of range", lat)
	}
	if lon < -180 || lon > 180 {
		return nil, eris.Errorf("geo: longitude %v out of range", lon)
	}
	return geom.Coord{lon, lat}, nil
}

// HaversineKM returns the great-circle distance in kilometres between two XY
// coordinates.
func HaversineKM(a, b geom.Coord) float64 {
	lat1 := a.Y() * math.Pi / 180
	lat2 := b.Y() * math.Pi / 180
	dLat := lat2 - lat1
	dLon := (b.X() - a.X()) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKM * math.Asin(math.Sqrt(h))
}

// SortByDistance orders records by distance from origin, nearest first.
// Records without coordinates sort last, keeping their relative order.
func SortByDistance(records []model.StoreRecord, origin geom.Coord) {
	sort.SliceStable(records, func(i, j int) bool {
		return distanceKey(&records[i], origin) < distanceKey(&records[j], origin)
	})
}

func distanceKey(r *model.StoreRecord, origin geom.Coord) float64 {
	p := r.Point()
	if p == nil {
		return math.Inf(1)
	}
	return HaversineKM(geom.Coord{p.X(), p.Y()}, origin)
}
