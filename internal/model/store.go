package model

import (
	"sort"

	"github.com/twpayne/go-geom"
)

// StoreRecord is the normalized, flat schema for one store location.
// Optional fields are pointers so that absent source data marshals as an
// explicit null rather than a missing key; downstream consumers rely on the
// full schema being present in every record.
type StoreRecord struct {
	LocationID   *string    `json:"locationId"`
	PublicName   *string    `json:"publicName"`
	PhoneNumber  *string    `json:"phoneNumber"`
	Address1     *string    `json:"address1"`
	Address2     *string    `json:"address2"`
	Address3     *string    `json:"address3"`
	City         *string    `json:"city"`
	State        *string    `json:"state"`
	Postcode     *string    `json:"postcode"`
	Latitude     *float64   `json:"latitude"`
	Longitude    *float64   `json:"longitude"`
	TradingHours []DayHours `json:"tradingHours"`
	Typename     *string    `json:"typename"`
	SourceURL    string     `json:"url"`
}

// DayHours is one trading-hours entry. The payload carries fields beyond the
// weekday (open/close times, closed flags) whose shape we do not control, so
// the whole entry is kept as a map and passed through unchanged.
type DayHours map[string]any

// WeekDay returns the entry's weekDay value, or "" when absent or not a string.
func (d DayHours) WeekDay() string {
	s, _ := d["weekDay"].(string)
	return s
}

var dayRank = map[string]int{
	"MONDAY":    0,
	"TUESDAY":   1,
	"WEDNESDAY": 2,
	"THURSDAY":  3,
	"FRIDAY":    4,
	"SATURDAY":  5,
	"SUNDAY":    6,
}

// weekdayRank maps a weekday name to its sort rank. Unrecognized weekdays
// rank after all canonical days.
func weekdayRank(day string) int {
	if r, ok := dayRank[day]; ok {
		return r
	}
	return 7
}

// SortTradingHours orders the record's trading hours Monday through Sunday.
// The sort is stable: entries with unknown weekdays keep their relative order
// after the canonical days.
func (r *StoreRecord) SortTradingHours() {
	sort.SliceStable(r.TradingHours, func(i, j int) bool {
		return weekdayRank(r.TradingHours[i].WeekDay()) < weekdayRank(r.TradingHours[j].WeekDay())
	})
}

// sortKey is the total order for final output. A missing locationId sorts
// before every real ID (empty-string sentinel).
func (r *StoreRecord) sortKey() string {
	if r.LocationID == nil {
		return ""
	}
	return *r.LocationID
}

// SortRecords orders records ascending by locationId. Records without a
// locationId sort first; ties keep input order.
func SortRecords(records []StoreRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].sortKey() < records[j].sortKey()
	})
}

// Point returns the store's coordinates as a WGS84 point, or nil when either
// coordinate is absent.
func (r *StoreRecord) Point() *geom.Point {
	if r.Latitude == nil || r.Longitude == nil {
		return nil
	}
	return geom.NewPointFlat(geom.XY, []float64{*r.Longitude, *r.Latitude}).SetSRID(4326)
}
