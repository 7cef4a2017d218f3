// Package analysis builds the reporting structs the pipeline driver
// emits once a schedule's rounds are done: per-vehicle stop lists
// bracketed by synthetic depot markers, rolled up into per-trip and
// per-day totals. It is the Go counterpart of the original
// generate_analysis_data/_process_vehicle_route pair.
package analysis

import (
	"fmt"

	"github.com/portomove/wcoroute/internal/geo"
	"github.com/portomove/wcoroute/internal/ledger"
	"github.com/portomove/wcoroute/internal/model"
)

// BuildRouteAnalysisResult assembles the full per-day report for one
// schedule: every vehicle's trips on that day, each bracketed with
// depot start/end stops, rolled up into trip and day totals.
func BuildRouteAnalysisResult(
	l *ledger.TripLedger,
	schedule model.ScheduleEntry,
	day int,
	vehicles []model.Vehicle,
	missing model.MissingReport,
) model.RouteAnalysisResult {
	trips := l.Trips(day)
	tripResults := make([]model.TripAnalysisResult, 0, len(trips))

	for _, tripNum := range trips {
		var vehicleRoutes []model.VehicleRouteInfo
		for _, vehicle := range vehicles {
			data, ok := l.GetTrip(vehicle.ID, day, tripNum)
			if !ok || len(data.Stops) == 0 {
				continue
			}
			vehicleRoutes = append(vehicleRoutes, buildVehicleRouteInfo(vehicle, data, day))
		}
		tripResults = append(tripResults, buildTripAnalysisResult(day, vehicleRoutes))
	}

	result := model.RouteAnalysisResult{
		ScheduleID:      fmt.Sprintf("%s_day%d", schedule.ID, day),
		BaseScheduleID:  schedule.ID,
		ScheduleName:    fmt.Sprintf("%s (Day %d)", schedule.Name, day),
		TotalVehicles:   len(vehicles),
		CollectionDay:   day,
		BaseScheduleDay: day,
		Trips:           tripResults,
		Missing:         missing,
	}
	for _, trip := range tripResults {
		result.TotalLocations += trip.TotalLocations
		result.TotalDistance += trip.TotalDistance
		result.TotalCollected += trip.TotalCollected
		result.TotalCollectionTime += trip.TotalCollectionTime
		result.TotalTravelTime += trip.TotalTravelTime
		result.TotalStops += trip.TotalStops
	}
	result.TotalTrips = len(tripResults)
	return result
}

func buildTripAnalysisResult(day int, vehicleRoutes []model.VehicleRouteInfo) model.TripAnalysisResult {
	trip := model.TripAnalysisResult{
		CollectionDay: day,
		TotalVehicles: len(vehicleRoutes),
		VehicleRoutes: vehicleRoutes,
	}
	for _, vr := range vehicleRoutes {
		trip.TotalLocations += len(vr.Stops)
		trip.TotalDistance += vr.TotalDistance
		trip.TotalCollected += vr.TotalCollected
		trip.TotalCollectionTime += vr.TotalCollectionTime
		trip.TotalTravelTime += vr.TotalTravelTime
		trip.TotalStops += vr.TotalStops
	}
	return trip
}

// buildVehicleRouteInfo renders one vehicle's stops for a single trip
// number, inserting a synthetic depot stop at the start and end of the
// trip (data.Stops only ever covers one trip number, since it comes
// from a single CollectionData bucket, so there is exactly one start
// and one end).
func buildVehicleRouteInfo(vehicle model.Vehicle, data model.CollectionData, day int) model.VehicleRouteInfo {
	stops := make([]model.StopInfo, 0, len(data.Stops)+2)

	stops = append(stops, model.StopInfo{
		Name:              "Depot",
		LocationID:        fmt.Sprintf("depot_start_%s_trip_%d", vehicle.ID, data.TripNumber),
		Coordinates:       vehicle.DepotCoords,
		TripNumber:        data.TripNumber,
		RemainingCapacity: vehicle.Capacity,
		VehicleCapacity:   vehicle.Capacity,
		SequenceNumber:    -1,
		CollectionDay:     day,
	})

	var last model.CollectionStop
	for i, stop := range data.Stops {
		stops = append(stops, model.StopInfo{
			Name:              stop.Name,
			LocationID:        stop.LocationID,
			Coordinates:       stop.Coordinates,
			WCOAmount:         stop.AmountCollected,
			TripNumber:        stop.TripNumber,
			CumulativeLoad:    stop.CumulativeLoad,
			RemainingCapacity: vehicle.Capacity - stop.CumulativeLoad,
			DistanceFromPrev:  stop.DistanceFromPrev,
			VehicleCapacity:   vehicle.Capacity,
			SequenceNumber:    i,
			CollectionDay:     day,
			CollectionTimeSec: stop.CollectionTimeSec,
			TravelTimeSec:     stop.TravelTimeSec,
		})
		last = stop
	}

	if len(data.Stops) > 0 {
		depotDist := geo.Distance(last.Coordinates, vehicle.DepotCoords)
		stops = append(stops, model.StopInfo{
			Name:              "Depot",
			LocationID:        fmt.Sprintf("depot_end_%s_trip_%d", vehicle.ID, data.TripNumber),
			Coordinates:       vehicle.DepotCoords,
			TripNumber:        data.TripNumber,
			CumulativeLoad:    last.CumulativeLoad,
			RemainingCapacity: vehicle.Capacity - last.CumulativeLoad,
			DistanceFromPrev:  depotDist,
			VehicleCapacity:   vehicle.Capacity,
			SequenceNumber:    len(data.Stops),
			CollectionDay:     day,
			TravelTimeSec:     geo.EstimateTravelTime(depotDist, data.SpeedKPH) * 60,
		})
	}

	var collected, collectionTime, travelTime, distance float64
	for _, s := range stops {
		collected += s.WCOAmount
		collectionTime += s.CollectionTimeSec
		travelTime += s.TravelTimeSec
		distance += s.DistanceFromPrev
	}

	efficiency := 0.0
	if vehicle.Capacity > 0 {
		efficiency = collected / vehicle.Capacity
	}

	info := model.VehicleRouteInfo{
		VehicleID:           vehicle.ID,
		Capacity:            vehicle.Capacity,
		TotalStops:          len(stops),
		TotalTrips:          1,
		TotalDistance:       distance,
		TotalCollected:      collected,
		Efficiency:          efficiency,
		Stops:               stops,
		TotalCollectionTime: collectionTime,
		TotalTravelTime:     travelTime,
	}
	info.RoutePolyline = EncodeStopPolyline(stops)
	return info
}
