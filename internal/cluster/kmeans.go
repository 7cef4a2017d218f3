// Package cluster implements the balanced k-means geographic clusterer:
// pruning the cluster-to-vehicle assignment search space by grouping
// demand points into geographically cohesive, capacity/time-aware
// clusters before the scheduler and solver run.
//
// No k-means implementation appears anywhere in the retrieval pack
// (gonum, the one numerical library present, ships no clustering
// package), so this is a from-scratch Lloyd's-algorithm implementation
// seeded deterministically — the same "fixed random_state" guarantee
// the original sklearn-backed version makes.
package cluster

import (
	"math"
	"math/rand"
	"sort"

	"github.com/portomove/wcoroute/internal/geo"
	"github.com/portomove/wcoroute/internal/model"
)

// seed is the fixed PRNG seed used for centroid initialization,
// matching the original implementation's random_state=42.
const seed = 42

// Mode selects which cohesion score cluster_locations minimizes.
type Mode int

const (
	// PureGeographic scores only geometric cohesion and balance.
	PureGeographic Mode = iota
	// Full adds capacity, time, and traffic penalty terms.
	Full
)

// Options configures one clustering run.
type Options struct {
	TargetClusters    int
	Mode              Mode
	CapacityThreshold float64 // used only in Full mode
	CollectionTimeMin float64 // per-stop service time, for the time penalty
	SpeedKPH          float64
}

// ClusterLocations partitions locations into [2, min(N, TargetClusters)]
// balanced k-means clusters, picking the k that minimizes the
// cohesion score, and returns them labeled A, B, C, ... sorted by
// label. A single location yields one degenerate cluster.
func ClusterLocations(locations []model.Location, opts Options) []model.Cluster {
	if len(locations) == 0 {
		return nil
	}
	if len(locations) == 1 {
		return []model.Cluster{buildCluster(0, locations, opts)}
	}

	maxK := opts.TargetClusters
	if maxK > len(locations) {
		maxK = len(locations)
	}
	if maxK < 2 {
		return []model.Cluster{buildCluster(0, locations, opts)}
	}

	var bestLabels []int
	bestScore := math.Inf(1)

	for k := 2; k <= maxK; k++ {
		labels := lloyd(locations, k)
		groups := groupByLabel(labels, k)
		score := evaluate(locations, groups, opts)
		if score < bestScore {
			bestScore = score
			bestLabels = labels
		}
	}

	groups := groupByLabel(bestLabels, maxClusterCountUsed(bestLabels))
	clusters := make([]model.Cluster, 0, len(groups))
	for label, idxs := range groups {
		members := make([]model.Location, 0, len(idxs))
		for _, idx := range idxs {
			members = append(members, locations[idx])
		}
		clusters = append(clusters, buildCluster(label, members, opts))
	}

	sort.Slice(clusters, func(i, j int) bool { return clusters[i].ID < clusters[j].ID })
	return clusters
}

func maxClusterCountUsed(labels []int) int {
	max := 0
	for _, l := range labels {
		if l+1 > max {
			max = l + 1
		}
	}
	return max
}

func groupByLabel(labels []int, k int) map[int][]int {
	groups := make(map[int][]int, k)
	for idx, label := range labels {
		groups[label] = append(groups[label], idx)
	}
	return groups
}

// lloyd runs a deterministic, seeded Lloyd's-algorithm k-means over
// (lat, lon) coordinates and returns a per-location cluster label.
func lloyd(locations []model.Location, k int) []int {
	rng := rand.New(rand.NewSource(seed + int64(k)))

	centroids := make([]geo.Coordinate, k)
	// Deterministic random seeding: the first k entries of a seeded
	// permutation, so different k values don't all start from the same
	// first point.
	perm := rng.Perm(len(locations))
	for i := 0; i < k; i++ {
		centroids[i] = locations[perm[i%len(perm)]].Coordinates
	}

	labels := make([]int, len(locations))
	for iter := 0; iter < 100; iter++ {
		changed := false
		for i, loc := range locations {
			best := 0
			bestDist := math.MaxFloat64
			for c, centroid := range centroids {
				d := planarDistSq(loc.Coordinates, centroid)
				if d < bestDist {
					bestDist = d
					best = c
				}
			}
			if labels[i] != best {
				labels[i] = best
				changed = true
			}
		}

		sums := make([]geo.Coordinate, k)
		counts := make([]int, k)
		for i, loc := range locations {
			sums[labels[i]].Lat += loc.Coordinates.Lat
			sums[labels[i]].Lon += loc.Coordinates.Lon
			counts[labels[i]]++
		}
		for c := range centroids {
			if counts[c] > 0 {
				centroids[c] = geo.Coordinate{
					Lat: sums[c].Lat / float64(counts[c]),
					Lon: sums[c].Lon / float64(counts[c]),
				}
			}
		}

		if !changed {
			break
		}
	}

	return labels
}

func planarDistSq(a, b geo.Coordinate) float64 {
	dLat := a.Lat - b.Lat
	dLon := a.Lon - b.Lon
	return dLat*dLat + dLon*dLon
}

func buildCluster(label int, members []model.Location, opts Options) model.Cluster {
	var sumLat, sumLon, totalWCO, totalTime float64
	for _, loc := range members {
		sumLat += loc.Coordinates.Lat
		sumLon += loc.Coordinates.Lon
		totalWCO += loc.WCOAmount
		totalTime += geo.EstimateCollectionTime(opts.effectiveCollectionTime())
	}
	n := float64(len(members))

	sort.Slice(members, func(i, j int) bool {
		if members[i].WCOAmount != members[j].WCOAmount {
			return members[i].WCOAmount > members[j].WCOAmount
		}
		if members[i].Coordinates.Lat != members[j].Coordinates.Lat {
			return members[i].Coordinates.Lat < members[j].Coordinates.Lat
		}
		return members[i].Coordinates.Lon < members[j].Coordinates.Lon
	})

	return model.Cluster{
		ID:        clusterLabel(label),
		Members:   members,
		TotalWCO:  totalWCO,
		Centroid:  geo.Coordinate{Lat: sumLat / n, Lon: sumLon / n},
		TotalTime: totalTime,
	}
}

func (o Options) effectiveCollectionTime() float64 {
	if o.CollectionTimeMin > 0 {
		return o.CollectionTimeMin
	}
	return geo.DefaultCollectionTime
}

// evaluate scores one candidate clustering; lower is better.
//
// PureGeographic: sum over clusters of 3*mean_radius + 2*max_radius +
// 0.5*size_deviation.
// Full additionally adds a capacity-balance penalty, a time-budget
// penalty, and a traffic term proportional to mean_radius/speed.
func evaluate(locations []model.Location, groups map[int][]int, opts Options) float64 {
	n := len(locations)
	avgSize := float64(n) / float64(len(groups))

	var score float64
	for _, idxs := range groups {
		members := make([]model.Location, len(idxs))
		for i, idx := range idxs {
			members[i] = locations[idx]
		}

		centroid := centroidOf(members)
		var sumR, maxR float64
		for _, m := range members {
			d := geo.Distance(centroid, m.Coordinates)
			sumR += d
			if d > maxR {
				maxR = d
			}
		}
		meanR := 0.0
		if len(members) > 0 {
			meanR = sumR / float64(len(members))
		}
		sizeDev := math.Abs(float64(len(members)) - avgSize)

		clusterScore := 3*meanR + 2*maxR + 0.5*sizeDev

		if opts.Mode == Full {
			totalWCO := 0.0
			for _, m := range members {
				totalWCO += m.WCOAmount
			}
			capThreshold := opts.CapacityThreshold
			if capThreshold <= 0 {
				capThreshold = 1
			}
			capacityPenalty := math.Abs(totalWCO-capThreshold) / capThreshold

			capMin := opts.effectiveCollectionTime()
			totalTime := float64(len(members)) * geo.EstimateCollectionTime(capMin)
			timePenalty := math.Max(0, totalTime-capMin*float64(len(members)))

			speed := opts.SpeedKPH
			if speed <= 0 {
				speed = geo.AverageSpeedKPH
			}
			trafficPenalty := meanR / speed

			clusterScore += capacityPenalty + timePenalty + trafficPenalty
		}

		score += clusterScore
	}
	return score
}

// clusterLabel mirrors chr(65+index) for the common case of 26 or
// fewer clusters, and falls back to a base-26 "AA", "AB", ... scheme
// beyond that so labels stay distinct and sortable.
func clusterLabel(index int) string {
	if index < 26 {
		return string(rune('A' + index))
	}
	var out []byte
	for {
		out = append([]byte{byte('A' + index%26)}, out...)
		index = index/26 - 1
		if index < 0 {
			break
		}
	}
	return string(out)
}

func centroidOf(members []model.Location) geo.Coordinate {
	var sumLat, sumLon float64
	for _, m := range members {
		sumLat += m.Coordinates.Lat
		sumLon += m.Coordinates.Lon
	}
	n := float64(len(members))
	if n == 0 {
		return geo.Coordinate{}
	}
	return geo.Coordinate{Lat: sumLat / n, Lon: sumLon / n}
}
