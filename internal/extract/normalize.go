package extract

import (
	"encoding/json"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/nwbort/stores-kmart/internal/model"
)

// Normalize parses extracted payload text and maps the nested location object
// at props.pageProps.location onto a flat StoreRecord. Fields absent from the
// source stay nil and marshal as explicit nulls. Trading hours come back
// ordered Monday through Sunday. The result depends only on the payload and
// URL, so repeated calls produce identical records.
func Normalize(payload string, sourceURL string) (*model.StoreRecord, error) {
	var doc map[string]any
	if err := json.Unmarshal([]byte(payload), &doc); err != nil {
		return nil, eris.Wrap(ErrJSONSyntax, err.Error())
	}

	loc := childObject(childObject(childObject(doc, "props"), "pageProps"), "location")
	if len(loc) == 0 {
		return nil, ErrLocationMissing
	}

	rec := &model.StoreRecord{
		LocationID:  strField(loc, "locationId"),
		PublicName:  strField(loc, "publicName"),
		PhoneNumber: strField(loc, "phoneNumber"),
		Address1:    strField(loc, "address1"),
		Address2:    strField(loc, "address2"),
		Address3:    strField(loc, "address3"),
		City:        strField(loc, "city"),
		State:       strField(loc, "state"),
		Postcode:    strField(loc, "postcode"),
		Latitude:    floatField(loc, "latitude"),
		Longitude:   floatField(loc, "longitude"),
		Typename:    strField(loc, "__typename"),
		SourceURL:   sourceURL,
	}

	if hours, ok := loc["tradingHours"].([]any); ok {
		rec.TradingHours = make([]model.DayHours, 0, len(hours))
		for _, h := range hours {
			if m, ok := h.(map[string]any); ok {
				rec.TradingHours = append(rec.TradingHours, model.DayHours(m))
			}
		}
	}
	rec.SortTradingHours()

	return rec, nil
}

// childObject returns m[key] when it is an object, nil otherwise.
func childObject(m map[string]any, key string) map[string]any {
	if m == nil {
		return nil
	}
	child, _ := m[key].(map[string]any)
	return child
}

func strField(m map[string]any, key string) *string {
	s, ok := m[key].(string)
	if !ok {
		return nil
	}
	return &s
}

// floatField reads a numeric field. Coordinates are numbers in current
// payloads but have been seen as quoted strings in older page revisions.
func floatField(m map[string]any, key string) *float64 {
	switch v := m[key].(type) {
	case float64:
		return &v
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil
		}
		return &f
	default:
		return nil
	}
}
