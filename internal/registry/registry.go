// Package registry holds the indexed container for demand points: the
// Go counterpart to the original LocationRegistry, but array-of-structs
// replaced with maps since we don't need Python's index-shifting dance
// on removal.
package registry

import (
	"math"

	"github.com/portomove/wcoroute/internal/model"
)

// coordKey keys a coordinate by its exact (lat, lon) values; callers
// needing tolerance matching fall through to a linear scan in
// GetByCoordinates.
type coordKey struct {
	lat float64
	lon float64
}

// Registry is an id-indexed container for Locations, with secondary
// indexes by name and by coordinate. Insertion order is preserved for
// iteration.
type Registry struct {
	order   []string
	byID    map[string]model.Location
	byName  map[string][]string
	byCoord map[coordKey][]string
}

// New builds a registry from an initial slice of locations, in order.
func New(locations ...model.Location) *Registry {
	r := &Registry{
		byID:    make(map[string]model.Location),
		byName:  make(map[string][]string),
		byCoord: make(map[coordKey][]string),
	}
	for _, loc := range locations {
		r.Add(loc)
	}
	return r
}

// Add inserts a location, idempotent on ID: adding the same id twice
// leaves the registry unchanged.
func (r *Registry) Add(loc model.Location) {
	if _, exists := r.byID[loc.ID]; exists {
		return
	}
	r.order = append(r.order, loc.ID)
	r.byID[loc.ID] = loc
	r.byName[loc.Name] = append(r.byName[loc.Name], loc.ID)

	key := coordKey{lat: loc.Coordinates.Lat, lon: loc.Coordinates.Lon}
	r.byCoord[key] = append(r.byCoord[key], loc.ID)
}

// Remove deletes a location by id from all indexes. A no-op if the id
// is not present.
func (r *Registry) Remove(id string) {
	loc, exists := r.byID[id]
	if !exists {
		return
	}
	delete(r.byID, id)

	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	r.byName[loc.Name] = removeString(r.byName[loc.Name], id)
	if len(r.byName[loc.Name]) == 0 {
		delete(r.byName, loc.Name)
	}

	key := coordKey{lat: loc.Coordinates.Lat, lon: loc.Coordinates.Lon}
	r.byCoord[key] = removeString(r.byCoord[key], id)
	if len(r.byCoord[key]) == 0 {
		delete(r.byCoord, key)
	}
}

func removeString(list []string, target string) []string {
	out := list[:0]
	for _, v := range list {
		if v != target {
			out = append(out, v)
		}
	}
	return out
}

// GetByID looks up a single location by its id.
func (r *Registry) GetByID(id string) (model.Location, bool) {
	loc, ok := r.byID[id]
	return loc, ok
}

// GetByName returns every location registered under the given name.
func (r *Registry) GetByName(name string) []model.Location {
	ids := r.byName[name]
	out := make([]model.Location, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.byID[id])
	}
	return out
}

// GetByCoordinates returns every location within `tolerance` degrees of
// the given coordinate, exact-match bucket first.
func (r *Registry) GetByCoordinates(lat, lon, tolerance float64) []model.Location {
	key := coordKey{lat: lat, lon: lon}
	var out []model.Location
	for _, id := range r.byCoord[key] {
		out = append(out, r.byID[id])
	}

	for k, ids := range r.byCoord {
		if k == key {
			continue
		}
		if math.Abs(k.lat-lat) < tolerance && math.Abs(k.lon-lon) < tolerance {
			for _, id := range ids {
				out = append(out, r.byID[id])
			}
		}
	}
	return out
}

// All returns every location in insertion order. The returned slice is
// a copy; mutating it does not affect the registry.
func (r *Registry) All() []model.Location {
	out := make([]model.Location, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// Update replaces the stored copy of a location (for example to
// populate DistanceFromDepot after load). A no-op if the id is not
// present.
func (r *Registry) Update(loc model.Location) {
	if _, exists := r.byID[loc.ID]; !exists {
		return
	}
	r.byID[loc.ID] = loc
}

// Len reports the number of distinct locations held.
func (r *Registry) Len() int {
	return len(r.order)
}

// Contains reports whether an id is present.
func (r *Registry) Contains(id string) bool {
	_, ok := r.byID[id]
	return ok
}

// Merge returns a new registry containing the union, by id, of r and
// other. Locations already present in r win on id collision.
func (r *Registry) Merge(other *Registry) *Registry {
	merged := New(r.All()...)
	for _, loc := range other.All() {
		merged.Add(loc)
	}
	return merged
}
