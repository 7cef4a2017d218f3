// Package geo provides the distance and timing primitives shared by the
// clusterer, scheduler, solver, and ledger. Every other package measures
// the world through this one.
package geo

import "math"

// EarthRadiusKM is the sphere radius used by Distance, matching the
// original implementation's constant rather than a more precise WGS84
// ellipsoid model.
const EarthRadiusKM = 6371.0

// AverageSpeedKPH is the default travel speed assumed when a schedule or
// request does not override it.
const AverageSpeedKPH = 30.0

// MaxDailyTime is the default per-vehicle daily time budget, in minutes
// (7 hours).
const MaxDailyTime = 420.0

// DefaultCollectionTime is the default per-stop service time, in
// minutes, used when a ScheduleEntry does not specify one.
const DefaultCollectionTime = 15.0

// Coordinate is a (lat, lon) pair in degrees.
type Coordinate struct {
	Lat float64
	Lon float64
}

// Distance computes the great-circle distance between a and b in
// kilometers using the haversine formula.
func Distance(a, b Coordinate) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon
	return EarthRadiusKM * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// EstimateTravelTime converts a distance in km into minutes at the given
// speed.
func EstimateTravelTime(km, speedKPH float64) float64 {
	if speedKPH <= 0 {
		speedKPH = AverageSpeedKPH
	}
	return km / speedKPH * 60
}

// EstimateCollectionTime returns the effective per-stop service time.
//
// The historic formula scaled with WCO volume (3 base minutes + up to 4
// more per 100L, capped at capMin); that volume-scaling is deprecated
// and kept only as VolumeScaledCollectionTime below. The active path
// always returns the configured cap.
func EstimateCollectionTime(capMin float64) float64 {
	return capMin
}

// VolumeScaledCollectionTime is the deprecated volume-scaled estimator.
// Nothing in this module calls it, and no configuration option selects
// it in place of EstimateCollectionTime.
func VolumeScaledCollectionTime(wcoAmount, capMin float64) float64 {
	base := 3 + (wcoAmount/100)*4
	return math.Min(capMin, base)
}

// StopTimes is the (collection, travel, depot-return) minute triple
// CalculateStopTimes produces for one stop.
type StopTimes struct {
	CollectionMin  float64
	TravelMin      float64
	DepotReturnMin float64
}

// CalculateStopTimes computes the service, inbound-travel, and
// depot-return times for visiting `loc` given the vehicle is currently
// at `prev` (or at the depot if prev is nil).
func CalculateStopTimes(loc, depot Coordinate, prev *Coordinate, capMin, speedKPH float64) StopTimes {
	from := depot
	if prev != nil {
		from = *prev
	}
	travelKM := Distance(from, loc)
	returnKM := Distance(loc, depot)

	return StopTimes{
		CollectionMin:  EstimateCollectionTime(capMin),
		TravelMin:      EstimateTravelTime(travelKM, speedKPH),
		DepotReturnMin: EstimateTravelTime(returnKM, speedKPH),
	}
}

// TotalTime sums the three stop-time components into one projected
// minute figure.
func TotalTime(t StopTimes) float64 {
	return t.CollectionMin + t.TravelMin + t.DepotReturnMin
}
