package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strp(s string) *string   { return &s }
func fltp(f float64) *float64 { return &f }
func hours(days ...string) []DayHours {
	out := make([]DayHours, len(days))
	for i, d := range days {
		out[i] = DayHours{"weekDay": d}
	}
	return out
}

func weekdays(h []DayHours) []string {
	out := make([]string, len(h))
	for i, d := range h {
		out[i] = d.WeekDay()
	}
	return out
}

func TestSortTradingHours(t *testing.T) {
	rec := StoreRecord{TradingHours: hours("SUNDAY", "MONDAY", "WEDNESDAY")}
	rec.SortTradingHours()
	assert.Equal(t, []string{"MONDAY", "WEDNESDAY", "SUNDAY"}, weekdays(rec.TradingHours))
}

func TestSortTradingHours_FullWeek(t *testing.T) {
	rec := StoreRecord{TradingHours: hours(
		"SATURDAY", "FRIDAY", "SUNDAY", "TUESDAY", "MONDAY", "THURSDAY", "WEDNESDAY",
	)}
	rec.SortTradingHours()
	assert.Equal(t,
		[]string{"MONDAY", "TUESDAY", "WEDNESDAY", "THURSDAY", "FRIDAY", "SATURDAY", "SUNDAY"},
		weekdays(rec.TradingHours),
	)
}

func TestSortTradingHours_UnknownDaysSortLastStable(t *testing.T) {
	rec := StoreRecord{TradingHours: hours("FUNDAY", "SUNDAY", "SOMEDAY", "MONDAY")}
	rec.SortTradingHours()
	assert.Equal(t, []string{"MONDAY", "SUNDAY", "FUNDAY", "SOMEDAY"}, weekdays(rec.TradingHours))
}

func TestSortTradingHours_MissingWeekDayField(t *testing.T) {
	rec := StoreRecord{TradingHours: []DayHours{
		{"openTime": "09:00"},
		{"weekDay": "TUESDAY"},
	}}
	rec.SortTradingHours()
	assert.Equal(t, "TUESDAY", rec.TradingHours[0].WeekDay())
	assert.Equal(t, "", rec.TradingHours[1].WeekDay())
}

func TestSortRecords_ByLocationID(t *testing.T) {
	records := []StoreRecord{
		{LocationID: strp("1300")},
		{LocationID: strp("1052")},
		{LocationID: strp("1178")},
	}
	SortRecords(records)
	require.Len(t, records, 3)
	assert.Equal(t, "1052", *records[0].LocationID)
	assert.Equal(t, "1178", *records[1].LocationID)
	assert.Equal(t, "1300", *records[2].LocationID)
}

func TestSortRecords_MissingIDSortsFirst(t *testing.T) {
	records := []StoreRecord{
		{LocationID: strp("1300"), SourceURL: "a"},
		{LocationID: nil, SourceURL: "b"},
		{LocationID: strp("1052"), SourceURL: "c"},
		{LocationID: nil, SourceURL: "d"},
	}
	SortRecords(records)
	assert.Nil(t, records[0].LocationID)
	assert.Nil(t, records[1].LocationID)
	// Stable: b before d.
	assert.Equal(t, "b", records[0].SourceURL)
	assert.Equal(t, "d", records[1].SourceURL)
	assert.Equal(t, "1052", *records[2].LocationID)
	assert.Equal(t, "1300", *records[3].LocationID)
}

func TestPoint(t *testing.T) {
	rec := StoreRecord{Latitude: fltp(-33.88), Longitude: fltp(151.19)}
	p := rec.Point()
	require.NotNil(t, p)
	assert.InDelta(t, 151.19, p.X(), 1e-9)
	assert.InDelta(t, -33.88, p.Y(), 1e-9)
	assert.Equal(t, 4326, p.SRID())
}

func TestPoint_MissingCoordinate(t *testing.T) {
	assert.Nil(t, (&StoreRecord{Latitude: fltp(1)}).Point())
	assert.Nil(t, (&StoreRecord{Longitude: fltp(1)}).Point())
	assert.Nil(t, (&StoreRecord{}).Point())
}
