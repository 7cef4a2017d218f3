// Package loader reads locations, for the caller to add to a registry,
// from either a schedule-specific CSV file or Postgres, mirroring the
// original ScheduleLoader's two
// entry points. encoding/csv is stdlib: no CSV parsing library appears
// anywhere in the retrieval pack, so there is no ecosystem choice to
// defer to here.
package loader

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/portomove/wcoroute/internal/geo"
	"github.com/portomove/wcoroute/internal/model"
)

// csvColumns lists the header columns the loader requires, matched by
// name in any order: name, latitude, longitude, wco_amount,
// disposal_schedule.
var csvColumns = []string{"name", "latitude", "longitude", "wco_amount", "disposal_schedule"}

// LoadCSV reads one schedule's location file and returns freshly
// id-assigned Locations, in file order. Every location receives a new
// loc_<8hex> id regardless of anything present in the file, matching
// the original loader's uuid4-on-every-load behavior.
func LoadCSV(path string) ([]model.Location, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", path, err)
	}
	index, err := columnIndex(header)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	var out []model.Location
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row in %s: %w", path, err)
		}

		loc, err := parseRow(row, index)
		if err != nil {
			return nil, fmt.Errorf("parse row in %s: %w", path, err)
		}
		out = append(out, loc)
	}
	return out, nil
}

func columnIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[name] = i
	}
	for _, col := range csvColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("missing required column %q", col)
		}
	}
	return index, nil
}

func parseRow(row []string, index map[string]int) (model.Location, error) {
	lat, err := strconv.ParseFloat(row[index["latitude"]], 64)
	if err != nil {
		return model.Location{}, fmt.Errorf("latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(row[index["longitude"]], 64)
	if err != nil {
		return model.Location{}, fmt.Errorf("longitude: %w", err)
	}
	wco, err := strconv.ParseFloat(row[index["wco_amount"]], 64)
	if err != nil {
		return model.Location{}, fmt.Errorf("wco_amount: %w", err)
	}
	schedule, err := strconv.Atoi(row[index["disposal_schedule"]])
	if err != nil {
		return model.Location{}, fmt.Errorf("disposal_schedule: %w", err)
	}

	return model.Location{
		ID:               model.NewLocationID(),
		Name:             row[index["name"]],
		Coordinates:      geo.Coordinate{Lat: lat, Lon: lon},
		WCOAmount:        wco,
		DisposalSchedule: schedule,
	}, nil
}
