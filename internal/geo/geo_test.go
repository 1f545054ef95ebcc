package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/nwbort/stores-kmart/internal/model"
)

func strp(s string) *string   { return &s }
func fltp(f float64) *float64 { return &f }

func TestParseLatLon(t *testing.T) {
	c, err := ParseLatLon("-33.8836, 151.1944")
	require.NoError(t, err)
	assert.InDelta(t, 151.1944, c.X(), 1e-9)
	assert.InDelta(t, -33.8836, c.Y(), 1e-9)
}

func TestParseLatLon_Invalid(t *testing.T) {
	for _, s := range []string{"", "1", "1,2,3", "abc,1", "1,abc", "95,0", "0,200"} {
		_, err := ParseLatLon(s)
		assert.Error(t, err, "input %q", s)
	}
}

func TestHaversineKM(t *testing.T) {
	sydney := geom.Coord{151.2093, -33.8688}
	melbourne := geom.Coord{144.9631, -37.8136}

	d := HaversineKM(sydney, melbourne)
	assert.InDelta(t, 713, d, 10)

	assert.InDelta(t, 0, HaversineKM(sydney, sydney), 1e-9)
}

func TestSortByDistance(t *testing.T) {
	records := []model.StoreRecord{
		{LocationID: strp("melb"), Latitude: fltp(-37.8136), Longitude: fltp(144.9631)},
		{LocationID: strp("nocoords")},
		{LocationID: strp("syd"), Latitude: fltp(-33.8836), Longitude: fltp(151.1944)},
	}

	sydney := geom.Coord{151.2093, -33.8688}
	SortByDistance(records, sydney)

	assert.Equal(t, "syd", *records[0].LocationID)
	assert.Equal(t, "melb", *records[1].LocationID)
	assert.Equal(t, "nocoords", *records[2].LocationID)
}
