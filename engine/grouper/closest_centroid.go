package grouper

import (
	"cmp"
	"slices"

	"github.com/spaghettifunk/meshpart/engine/math"
)

// ClosestCentroid starts every group with the remaining triangle whose
// centroid has the lowest X, then adds the groupSize-1 remaining triangles
// whose centroids lie closest to it. O(N^2).
//
// Ties, both on X and on distance, go to the lowest triangle index.
type ClosestCentroid struct{}

var _ Grouper = (*ClosestCentroid)(nil)

func NewClosestCentroid() *ClosestCentroid {
	return &ClosestCentroid{}
}

func (g *ClosestCentroid) Group(vertices math.VertexList, triangles math.IndexedTriangleList, groupSize int) ([]uint32, error) {
	if err := validate(vertices, triangles, groupSize); err != nil {
		return nil, err
	}

	centroids := math.Centroids(vertices, triangles)

	// Remaining triangles, ordered by centroid X so the seed is always first.
	remaining := make([]uint32, len(triangles))
	for i := range remaining {
		remaining[i] = uint32(i)
	}
	slices.SortFunc(remaining, func(a, b uint32) int {
		if c := cmp.Compare(centroids[a].X, centroids[b].X); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})

	out := make([]uint32, 0, len(triangles))
	picked := make([]bool, len(triangles))
	for len(remaining) > 0 {
		seed := remaining[0]
		seedCentroid := centroids[seed]
		out = append(out, seed)
		picked[seed] = true

		for n := 1; n < groupSize && n < len(remaining); n++ {
			best := -1
			bestDist := float32(0)
			for i, t := range remaining {
				if picked[t] {
					continue
				}
				d := centroids[t].DistanceSquared(seedCentroid)
				if best < 0 || d < bestDist || (d == bestDist && t < remaining[best]) {
					best = i
					bestDist = d
				}
			}
			out = append(out, remaining[best])
			picked[remaining[best]] = true
		}

		// Drop the picked triangles, keeping X order.
		kept := remaining[:0]
		for _, t := range remaining {
			if !picked[t] {
				kept = append(kept, t)
			}
		}
		remaining = kept
	}
	return out, nil
}
