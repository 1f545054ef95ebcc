// Package export writes the final record collection in the supported output
// formats.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/nwbort/stores-kmart/internal/model"
)

// WriteJSON writes records as a pretty-printed JSON array. A nil or empty
// slice still produces a valid empty array, never null.
func WriteJSON(w io.Writer, records []model.StoreRecord) error {
	if records == nil {
		records = []model.StoreRecord{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return eris.Wrap(err, "export: marshal records")
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return eris.Wrap(err, "export: write json")
	}
	return nil
}

var columns = []string{
	"locationId", "publicName", "phoneNumber",
	"address1", "address2", "address3",
	"city", "state", "postcode",
	"latitude", "longitude", "tradingHours", "typename", "url",
}

// WriteCSV writes records as a CSV table with a header row. Trading hours
// are JSON-encoded into a single column.
func WriteCSV(w io.Writer, records []model.StoreRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return eris.Wrap(err, "export: write csv header")
	}
	for _, r := range records {
		row, err := recordRow(&r)
		if err != nil {
			return err
		}
		if err := cw.Write(row); err != nil {
			return eris.Wrap(err, "export: write csv row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush csv")
}

// WriteXLSX writes records as a spreadsheet with a header row on a single
// "stores" sheet.
func WriteXLSX(path string, records []model.StoreRecord) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("stores")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, col := range columns {
		header.AddCell().SetString(col)
	}

	for _, r := range records {
		cells, err := recordRow(&r)
		if err != nil {
			return err
		}
		row := sheet.AddRow()
		for _, c := range cells {
			row.AddCell().SetString(c)
		}
	}

	return eris.Wrapf(f.Save(path), "export: save %s", path)
}

func recordRow(r *model.StoreRecord) ([]string, error) {
	hours := ""
	if r.TradingHours != nil {
		data, err := json.Marshal(r.TradingHours)
		if err != nil {
			return nil, eris.Wrap(err, "export: marshal trading hours")
		}
		hours = string(data)
	}
	return []string{
		str(r.LocationID), str(r.PublicName), str(r.PhoneNumber),
		str(r.Address1), str(r.Address2), str(r.Address3),
		str(r.City), str(r.State), str(r.Postcode),
		flt(r.Latitude), flt(r.Longitude), hours, str(r.Typename), r.SourceURL,
	}, nil
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func flt(p *float64) string {
	if p == nil {
		return ""
	}
	return fmt.Sprintf("%g", *p)
}
