// Package scheduler assigns a day's locations to vehicles. It sits
// between the geographic clusterer and the CVRP solver family: the
// clusterer groups locations, the scheduler decides which vehicle
// gets which location, and the solver then orders each vehicle's
// assigned stops into a route.
package scheduler

import (
	"math"
	"sort"

	"github.com/portomove/wcoroute/internal/cluster"
	"github.com/portomove/wcoroute/internal/geo"
	"github.com/portomove/wcoroute/internal/model"
)

// Scheduler tracks the per-schedule frequency map and the shared speed
// and daily time budget every assignment score is computed against.
type Scheduler struct {
	scheduleMap  map[int]model.ScheduleEntry
	speedKPH     float64
	maxDailyTime float64
}

// New builds a Scheduler from the set of recognized schedule entries.
func New(schedules []model.ScheduleEntry, speedKPH, maxDailyTime float64) *Scheduler {
	if speedKPH <= 0 {
		speedKPH = geo.AverageSpeedKPH
	}
	if maxDailyTime <= 0 {
		maxDailyTime = geo.MaxDailyTime
	}
	s := &Scheduler{
		scheduleMap:  make(map[int]model.ScheduleEntry),
		speedKPH:     speedKPH,
		maxDailyTime: maxDailyTime,
	}
	for _, entry := range schedules {
		s.scheduleMap[entry.Frequency] = entry
	}
	return s
}

// Assignment is one vehicle's set of assigned locations for a day.
type Assignment struct {
	VehicleID string
	Locations []model.Location
}

// Result is the outcome of one OptimizeVehicleAssignments call.
type Result struct {
	Assignments []Assignment
	Unassigned  []model.Location
}

// Options tunes one assignment pass.
type Options struct {
	ForceAssign   bool
	UseGeoCluster bool
}

// OptimizeVehicleAssignments assigns locations to vehicles for one
// day, clustering geographically first (unless disabled) and then
// greedily assigning each cluster's locations to the best-scoring
// vehicle with remaining capacity and time budget.
func (s *Scheduler) OptimizeVehicleAssignments(vehicles []model.Vehicle, day int, locations []model.Location, opts Options) Result {
	assignments := make([]Assignment, len(vehicles))
	for i, v := range vehicles {
		assignments[i] = Assignment{VehicleID: v.ID}
	}
	if len(locations) == 0 {
		return Result{Assignments: assignments}
	}

	collectionTime := s.collectionTimeFor(locations[0].DisposalSchedule)

	clusters := s.buildClusters(locations, vehicles, collectionTime, opts)

	vehicleLoads := make([]float64, len(vehicles))
	vehicleTimes := make([]float64, len(vehicles))
	visited := make(map[string]int) // location id -> vehicle index
	var unassigned []model.Location

	for _, c := range clusters {
		sorted := sortClusterLocations(c.Members, vehicles[0].DepotCoords, collectionTime)

		for _, loc := range sorted {
			if _, ok := visited[loc.ID]; ok {
				continue
			}

			bestVehicle := -1
			bestScore := math.Inf(-1)
			var bestCTime float64

			for vIdx, vehicle := range vehicles {
				remaining := vehicle.RemainingCapacity(vehicleLoads[vIdx])
				if loc.WCOAmount > remaining {
					continue
				}

				prev := lastCoordinate(assignments[vIdx].Locations)
				times := geo.CalculateStopTimes(loc.Coordinates, vehicle.DepotCoords, prev, collectionTime, s.speedKPH)
				totalTime := vehicleTimes[vIdx] + geo.TotalTime(times)
				if totalTime > s.maxDailyTime {
					continue
				}

				from := vehicle.DepotCoords
				if prev != nil {
					from = *prev
				}
				distanceKM := geo.Distance(from, loc.Coordinates)
				distanceFactor := 1.0 / (1 + distanceKM)
				capacityRatio := loc.WCOAmount / remaining
				timeRatio := totalTime / s.maxDailyTime
				trafficFactor := 1.0 / (1 + times.TravelMin/60)

				score := distanceFactor*0.5 + capacityRatio*0.2 + (1-timeRatio)*0.2 + trafficFactor*0.1

				if score > bestScore {
					bestScore = score
					bestVehicle = vIdx
					bestCTime = times.CollectionMin
				}
			}

			if bestVehicle >= 0 {
				assignments[bestVehicle].Locations = append(assignments[bestVehicle].Locations, loc)
				vehicleLoads[bestVehicle] += loc.WCOAmount
				if bestCTime > 0 {
					vehicleTimes[bestVehicle] += bestCTime
				} else {
					vehicleTimes[bestVehicle] += geo.EstimateCollectionTime(collectionTime)
				}
				visited[loc.ID] = bestVehicle
			} else {
				unassigned = append(unassigned, loc)
			}
		}
	}

	if opts.ForceAssign && len(unassigned) > 0 {
		unassigned = s.forceAssign(vehicles, assignments, vehicleLoads, vehicleTimes, visited, unassigned, collectionTime)
	}

	return Result{Assignments: assignments, Unassigned: unassigned}
}

func (s *Scheduler) forceAssign(
	vehicles []model.Vehicle,
	assignments []Assignment,
	vehicleLoads, vehicleTimes []float64,
	visited map[string]int,
	unassigned []model.Location,
	collectionTime float64,
) []model.Location {
	sort.Slice(unassigned, func(i, j int) bool { return unassigned[i].WCOAmount > unassigned[j].WCOAmount })

	var stillUnassigned []model.Location
	for _, loc := range unassigned {
		if _, ok := visited[loc.ID]; ok {
			continue
		}

		assigned := false
		for vIdx, vehicle := range vehicles {
			if vehicleLoads[vIdx]+loc.WCOAmount > vehicle.Capacity {
				continue
			}

			prev := lastCoordinate(assignments[vIdx].Locations)
			times := geo.CalculateStopTimes(loc.Coordinates, vehicle.DepotCoords, prev, collectionTime, s.speedKPH)

			assignments[vIdx].Locations = append(assignments[vIdx].Locations, loc)
			vehicleLoads[vIdx] += loc.WCOAmount
			vehicleTimes[vIdx] += geo.TotalTime(times)
			visited[loc.ID] = vIdx
			assigned = true
			break
		}

		if !assigned {
			stillUnassigned = append(stillUnassigned, loc)
		}
	}
	return stillUnassigned
}

func (s *Scheduler) collectionTimeFor(frequency int) float64 {
	if entry, ok := s.scheduleMap[frequency]; ok {
		return entry.EffectiveCollectionTime()
	}
	return geo.DefaultCollectionTime
}

func (s *Scheduler) buildClusters(locations []model.Location, vehicles []model.Vehicle, collectionTime float64, opts Options) []model.Cluster {
	if !opts.UseGeoCluster {
		return []model.Cluster{singleCluster(locations, collectionTime)}
	}

	clusters := cluster.ClusterLocations(locations, cluster.Options{
		TargetClusters:    len(locations),
		Mode:              cluster.PureGeographic,
		CollectionTimeMin: collectionTime,
		SpeedKPH:          s.speedKPH,
	})

	if len(vehicles) == 1 && len(clusters) > 1 {
		var merged []model.Location
		for _, c := range clusters {
			merged = append(merged, c.Members...)
		}
		return []model.Cluster{singleCluster(merged, collectionTime)}
	}
	return clusters
}

func singleCluster(locations []model.Location, collectionTime float64) model.Cluster {
	var sumLat, sumLon, totalWCO, totalTime float64
	for _, loc := range locations {
		sumLat += loc.Coordinates.Lat
		sumLon += loc.Coordinates.Lon
		totalWCO += loc.WCOAmount
		totalTime += geo.EstimateCollectionTime(collectionTime)
	}
	n := float64(len(locations))
	centroid := geo.Coordinate{}
	if n > 0 {
		centroid = geo.Coordinate{Lat: sumLat / n, Lon: sumLon / n}
	}
	return model.Cluster{ID: "A", Members: locations, TotalWCO: totalWCO, Centroid: centroid, TotalTime: totalTime}
}

func sortClusterLocations(locations []model.Location, depot geo.Coordinate, collectionTime float64) []model.Location {
	out := make([]model.Location, len(locations))
	copy(out, locations)
	sort.Slice(out, func(i, j int) bool {
		di := geo.Distance(out[i].Coordinates, depot)
		dj := geo.Distance(out[j].Coordinates, depot)
		if di != dj {
			return di < dj
		}
		if out[i].WCOAmount != out[j].WCOAmount {
			return out[i].WCOAmount > out[j].WCOAmount
		}
		ci := geo.EstimateCollectionTime(collectionTime)
		cj := geo.EstimateCollectionTime(collectionTime)
		if ci != cj {
			return ci < cj
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func lastCoordinate(locations []model.Location) *geo.Coordinate {
	if len(locations) == 0 {
		return nil
	}
	c := locations[len(locations)-1].Coordinates
	return &c
}
