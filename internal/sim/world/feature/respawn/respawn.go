package respawn

import (
	"commons.ai/internal/sim/world/feature/reservation"
	"commons.ai/internal/sim/world/kernel/model"
)

// DefaultRadius is the half-width of the neighbourhood window around a site.
const DefaultRadius = 2

// DefaultTable maps min(nearby resources, 3) to a per-tick spawn probability.
var DefaultTable = []float64{0, 0.005, 0.02, 0.05}

// View is the read-only grid access sampling needs.
type View interface {
	Count(center model.Pos, radius int, k model.Kind) int
}

// Probability looks up the spawn chance for n nearby resources. Counts past the
// end of the table use the last tier.
func Probability(table []float64, n int) float64 {
	if len(table) == 0 || n < 0 {
		return 0
	}
	if n >= len(table) {
		n = len(table) - 1
	}
	return table[n]
}

// Sample draws once per site, in site order, and returns the sites that spawn.
// Sites that already hold a resource still draw; committing them is a no-op.
func Sample(v View, sites []model.Pos, radius int, table []float64, rng model.Rand) []reservation.Spawn {
	var out []reservation.Spawn
	for _, site := range sites {
		prob := Probability(table, v.Count(site, radius, model.Resource))
		if rng.Float64() < prob {
			out = append(out, reservation.Spawn{At: site})
		}
	}
	return out
}

// Occupancy is the fraction of sites whose cell currently holds a resource.
func Occupancy(v View, sites []model.Pos) float64 {
	if len(sites) == 0 {
		return 0
	}
	n := 0
	for _, s := range sites {
		if v.Count(s, 0, model.Resource) > 0 {
			n++
		}
	}
	return float64(n) / float64(len(sites))
}
