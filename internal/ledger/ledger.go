// Package ledger records what each vehicle actually collected, trip by
// trip, day by day, and enforces the daily time cap. It is the Go
// counterpart of the original TripCollection, reshaped around plain
// accumulator maps in the style the upstream worker's metrics
// collector uses.
package ledger

import (
	"sort"
	"time"

	"github.com/portomove/wcoroute/internal/geo"
	"github.com/portomove/wcoroute/internal/model"
)

// TripLedger accumulates collection stops per (vehicle, day, trip).
// Daily time accounting is kept per day only, not per vehicle: this
// mirrors the upstream tracker's exceeds_daily_time(day)/
// clear_total_time(day) pair, a legacy quirk the pipeline driver
// depends on (see ClearTotalTime).
type TripLedger struct {
	maxDailyTime float64
	speedKPH     float64

	buckets    map[model.CollectionKey]*model.CollectionData
	order      []model.CollectionKey
	totalTime  map[int]float64
	exceeded   map[int]bool
	totalTrips int
	totalStops int
}

// New builds an empty ledger. maxDailyTime is in minutes; speedKPH
// feeds travel-time estimation for registered stops.
func New(maxDailyTime, speedKPH float64) *TripLedger {
	if maxDailyTime <= 0 {
		maxDailyTime = geo.MaxDailyTime
	}
	if speedKPH <= 0 {
		speedKPH = geo.AverageSpeedKPH
	}
	return &TripLedger{
		maxDailyTime: maxDailyTime,
		speedKPH:     speedKPH,
		buckets:      make(map[model.CollectionKey]*model.CollectionData),
		totalTime:    make(map[int]float64),
		exceeded:     make(map[int]bool),
	}
}

// RegisterCollection registers one stop for (vehicle, day, trip).
// prev is the vehicle's previous stop coordinate within this trip, or
// nil if loc is the first stop since leaving the depot.
//
// Returns false when the day's time budget was already exhausted by
// an earlier stop, or when loc was already visited in this bucket.
// Both cases leave the ledger unchanged.
func (l *TripLedger) RegisterCollection(
	vehicleID string,
	day, trip int,
	loc model.Location,
	depot geo.Coordinate,
	prev *geo.Coordinate,
	collectionTimeMin float64,
) bool {
	if l.exceeded[day] {
		return false
	}

	key := model.CollectionKey{VehicleID: vehicleID, Day: day, Trip: trip}
	bucket, ok := l.buckets[key]
	if !ok {
		bucket = &model.CollectionData{
			VehicleID:         vehicleID,
			Day:               day,
			TripNumber:        trip,
			VisitedIDs:        make(map[string]struct{}),
			Timestamp:         time.Time{},
			SpeedKPH:          l.speedKPH,
			CollectionTimeMin: collectionTimeMin,
		}
		l.buckets[key] = bucket
		l.order = append(l.order, key)
		l.totalTrips++
	}

	if _, visited := bucket.VisitedIDs[loc.ID]; visited {
		return false
	}

	var distFromPrev float64
	if prev == nil {
		distFromPrev = geo.Distance(depot, loc.Coordinates)
	} else {
		distFromPrev = geo.Distance(*prev, loc.Coordinates)
	}

	times := geo.CalculateStopTimes(loc.Coordinates, depot, prev, collectionTimeMin, l.speedKPH)

	stop := model.CollectionStop{
		LocationID:        loc.ID,
		Name:              loc.Name,
		Coordinates:       loc.Coordinates,
		AmountCollected:   loc.WCOAmount,
		CumulativeLoad:    bucket.TotalCollected + loc.WCOAmount,
		DistanceFromPrev:  distFromPrev,
		TripNumber:        trip,
		Day:               day,
		CollectionTimeSec: times.CollectionMin * 60,
		TravelTimeSec:     times.TravelMin * 60,
	}

	projected := l.totalTime[day] + geo.TotalTime(times)
	if projected > l.maxDailyTime {
		l.exceeded[day] = true
	}
	l.totalTime[day] = projected

	bucket.VisitedIDs[loc.ID] = struct{}{}
	bucket.Stops = append(bucket.Stops, stop)
	bucket.TotalCollected += loc.WCOAmount
	bucket.TotalDistance += distFromPrev
	l.totalStops++

	return true
}

// ExceedsDailyTime reports whether the cumulative projected time for
// this day has breached maxDailyTime.
func (l *TripLedger) ExceedsDailyTime(day int) bool {
	return l.exceeded[day]
}

// ClearTotalTime resets the accumulated time and exceeded flag for a
// day, called by the pipeline driver once it observes
// ExceedsDailyTime. The day index itself is not changed; this is the
// documented legacy behavior the upstream tracker also exhibits.
func (l *TripLedger) ClearTotalTime(day int) {
	delete(l.totalTime, day)
	delete(l.exceeded, day)
}

// GetVisitedLocations returns every location id the vehicle has
// visited on the given day, across all of that day's trips.
func (l *TripLedger) GetVisitedLocations(vehicleID string, day int) map[string]struct{} {
	out := make(map[string]struct{})
	for _, key := range l.order {
		if key.VehicleID == vehicleID && key.Day == day {
			for id := range l.buckets[key].VisitedIDs {
				out[id] = struct{}{}
			}
		}
	}
	return out
}

// GetVehicleRoute concatenates every stop a vehicle made on a given
// day, across all trips, in the order trips were registered.
func (l *TripLedger) GetVehicleRoute(vehicleID string, day int) model.VehicleRoute {
	route := model.VehicleRoute{VehicleID: vehicleID, Day: day, SpeedKPH: l.speedKPH}
	for _, key := range l.order {
		if key.VehicleID != vehicleID || key.Day != day {
			continue
		}
		bucket := l.buckets[key]
		route.Stops = append(route.Stops, bucket.Stops...)
		route.TotalDistance += bucket.TotalDistance
		route.TotalCollected += bucket.TotalCollected
	}
	return route
}

// GetTrip returns the accumulated data for one exact (vehicle, day,
// trip) bucket.
func (l *TripLedger) GetTrip(vehicleID string, day, trip int) (model.CollectionData, bool) {
	bucket, ok := l.buckets[model.CollectionKey{VehicleID: vehicleID, Day: day, Trip: trip}]
	if !ok {
		return model.CollectionData{}, false
	}
	return *bucket, true
}

// Days returns every distinct day with at least one registered bucket.
func (l *TripLedger) Days() []int {
	seen := make(map[int]bool)
	var out []int
	for _, key := range l.order {
		if !seen[key.Day] {
			seen[key.Day] = true
			out = append(out, key.Day)
		}
	}
	return out
}

// Vehicles returns every distinct vehicle id with at least one
// registered bucket on the given day.
func (l *TripLedger) Vehicles(day int) []string {
	seen := make(map[string]bool)
	var out []string
	for _, key := range l.order {
		if key.Day == day && !seen[key.VehicleID] {
			seen[key.VehicleID] = true
			out = append(out, key.VehicleID)
		}
	}
	return out
}

// Trips returns every distinct trip number with at least one registered
// bucket on the given day, in ascending order.
func (l *TripLedger) Trips(day int) []int {
	seen := make(map[int]bool)
	var out []int
	for _, key := range l.order {
		if key.Day == day && !seen[key.Trip] {
			seen[key.Trip] = true
			out = append(out, key.Trip)
		}
	}
	sort.Ints(out)
	return out
}

// TotalStops reports the number of distinct stops ever registered.
func (l *TripLedger) TotalStops() int { return l.totalStops }

// TotalTrips reports the number of distinct (vehicle, day, trip)
// buckets ever created.
func (l *TripLedger) TotalTrips() int { return l.totalTrips }
