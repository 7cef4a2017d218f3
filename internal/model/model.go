// Package model holds the plain data types shared across the routing
// pipeline: locations, vehicles, schedules, and the records the trip
// ledger and analysis emitter produce. Nothing in here does I/O or
// holds a reference back to the registry that owns it.
package model

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/portomove/wcoroute/internal/geo"
)

// Location is one WCO generator: a geo-referenced establishment with a
// periodic disposal schedule. Immutable after load except
// DistanceFromDepot, which the pipeline driver populates once per run.
type Location struct {
	ID                string
	Name              string
	Coordinates       geo.Coordinate
	WCOAmount         float64
	DisposalSchedule  int
	DistanceFromDepot float64
}

// NewLocationID generates a stable, globally-unique id in the
// `loc_<8hex>` format the CSV loader and HTTP façade both expect.
func NewLocationID() string {
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand.Read on a fixed-size buffer does not fail in
		// practice on any supported platform; panicking here would
		// only ever surface a broken OS entropy source.
		panic(fmt.Sprintf("generate location id: %v", err))
	}
	return "loc_" + hex.EncodeToString(buf[:])
}

// String matches the original implementation's human-readable summary,
// used in log lines.
func (l Location) String() string {
	return fmt.Sprintf("%s (ID: %s, WCO: %.1fL)", l.Name, l.ID, l.WCOAmount)
}

// Vehicle is a capacity-limited collection vehicle. Vehicles carry no
// mutable runtime state — load, time, and trip accounting live
// exclusively in the trip ledger.
type Vehicle struct {
	ID          string
	Capacity    float64
	DepotCoords geo.Coordinate
}

// RemainingCapacity returns how much more a vehicle can carry given its
// current load.
func (v Vehicle) RemainingCapacity(currentLoad float64) float64 {
	return v.Capacity - currentLoad
}

// ScheduleEntry describes one recognized disposal frequency. Two
// entries are equal iff their IDs match; frequency doubles as the day
// index at which the schedule materializes.
type ScheduleEntry struct {
	ID                    string
	Name                  string
	Frequency             int
	CollectionTimeMinutes float64
	File                  string // opaque to the core; the loader's concern
	Color                 string
}

// EffectiveCollectionTime returns the configured per-stop service time,
// defaulting to geo.DefaultCollectionTime when unset.
func (s ScheduleEntry) EffectiveCollectionTime() float64 {
	if s.CollectionTimeMinutes > 0 {
		return s.CollectionTimeMinutes
	}
	return geo.DefaultCollectionTime
}

// RoadEdge is an ordered coordinate pair forbidding travel from To to
// From.
type RoadEdge struct {
	From geo.Coordinate
	To   geo.Coordinate
}

// RouteConstraints carries the one-way road restrictions the CVRP
// solver family may honor.
type RouteConstraints struct {
	OneWayRoads []RoadEdge
}

// Forbids reports whether travelling from `from` to `to` would reverse
// a one-way road.
func (c RouteConstraints) Forbids(from, to geo.Coordinate) bool {
	for _, edge := range c.OneWayRoads {
		if edge.To == from && edge.From == to {
			return true
		}
	}
	return false
}
