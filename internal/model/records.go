package model

import (
	"time"

	"github.com/portomove/wcoroute/internal/geo"
)

// Cluster is the transient output of the geographic clusterer: a
// balanced group of locations sharing a vehicle's first pass.
type Cluster struct {
	ID        string
	Members   []Location
	TotalWCO  float64
	Centroid  geo.Coordinate
	TotalTime float64
}

// CollectionStop is one ledger entry: a single location visited by one
// vehicle, on one day, within one trip.
type CollectionStop struct {
	LocationID        string
	Name              string
	Coordinates       geo.Coordinate
	AmountCollected   float64
	CumulativeLoad    float64
	DistanceFromPrev  float64
	TripNumber        int
	Day               int
	CollectionTimeSec float64
	TravelTimeSec     float64
}

// CollectionKey identifies one (vehicle, day, trip) ledger bucket.
type CollectionKey struct {
	VehicleID string
	Day       int
	Trip      int
}

// CollectionData accumulates the stops, load, and distance for one
// (vehicle, day, trip) bucket.
type CollectionData struct {
	VehicleID         string
	Day               int
	TripNumber        int
	VisitedIDs        map[string]struct{}
	Stops             []CollectionStop
	TotalCollected    float64
	TotalDistance     float64
	Timestamp         time.Time
	SpeedKPH          float64
	CollectionTimeMin float64
}

// VehicleRoute concatenates every stop a vehicle made on a given day,
// across all of that day's trips, in insertion order.
type VehicleRoute struct {
	VehicleID      string
	Day            int
	Stops          []CollectionStop
	TotalDistance  float64
	TotalCollected float64
	SpeedKPH       float64
}

// StopInfo is one entry in a rendered route: either a real collection
// stop or a synthetic depot marker bracketing a trip.
type StopInfo struct {
	Name              string
	LocationID        string
	Coordinates       geo.Coordinate
	WCOAmount         float64
	TripNumber        int
	CumulativeLoad    float64
	RemainingCapacity float64
	DistanceFromDepot float64
	DistanceFromPrev  float64
	VehicleCapacity   float64
	SequenceNumber    int
	CollectionDay     int
	CollectionTimeSec float64
	TravelTimeSec     float64
}

// VehicleRouteInfo is one vehicle's contribution to a trip: its ordered
// stop list (depot-bracketed) plus rollups.
type VehicleRouteInfo struct {
	VehicleID           string
	Capacity            float64
	TotalStops          int
	TotalTrips          int
	TotalDistance       float64
	TotalCollected      float64
	Efficiency          float64
	Stops               []StopInfo
	TotalCollectionTime float64
	TotalTravelTime     float64
	// RoutePolyline is the encoded straight-line path through Stops,
	// for hand-off to the out-of-scope map-rendering collaborator.
	RoutePolyline string
}

// TripAnalysisResult groups every vehicle's activity within one trip
// number, on one day.
type TripAnalysisResult struct {
	CollectionDay       int
	TotalLocations      int
	TotalVehicles       int
	TotalDistance       float64
	TotalCollected      float64
	TotalCollectionTime float64
	TotalTravelTime     float64
	TotalStops          int
	VehicleRoutes       []VehicleRouteInfo
}

// MissingLocation records a location that could not be assigned within
// a schedule's report, with the likely cause surfaced to the caller.
type MissingLocation struct {
	Location Location
	Reasons  []string
}

// MissingReport summarizes unassignable locations for one schedule.
type MissingReport struct {
	Locations    []MissingLocation
	TotalWCO     float64
	PercentOfAll float64
}

// RouteAnalysisResult is the top-level per-day output of one schedule's
// processing.
type RouteAnalysisResult struct {
	ScheduleID          string
	BaseScheduleID      string
	ScheduleName        string
	DateGenerated       time.Time
	TotalLocations      int
	TotalVehicles       int
	TotalDistance       float64
	TotalCollected      float64
	TotalCollectionTime float64
	TotalTravelTime     float64
	TotalTrips          int
	TotalStops          int
	CollectionDay       int
	BaseScheduleDay     int
	Trips               []TripAnalysisResult
	Missing             MissingReport
}
