package outlier

import (
	"sort"

	"gonum.org/v1/gonum/floats"

	"gomend/domain/core"
	"gomend/domain/table"
	"gomend/internal/oracle"
)

const lofEpsilon = 1e-10

// DBSCAN clusters rows by euclidean density and flags the noise points. A
// row is a core point when at least minSamples rows, itself included, lie
// within eps.
func (s *Suite) DBSCAN(t *table.Table, refs []table.ColumnRef, eps float64, minSamples int) (table.RowSet, error) {
	cols, err := oracle.RequireNumericAll(t, refs)
	if err != nil {
		return nil, err
	}
	rows, ids := matrix(t, cols)
	out := table.NewRowSet()
	if len(rows) == 0 {
		return out, nil
	}

	const unvisited, noise = 0, -1
	labels := make([]int, len(rows))
	cluster := 0
	for i := range rows {
		if labels[i] != unvisited {
			continue
		}
		seeds := regionQuery(rows, i, eps)
		if len(seeds) < minSamples {
			labels[i] = noise
			continue
		}
		cluster++
		labels[i] = cluster
		for q := 0; q < len(seeds); q++ {
			j := seeds[q]
			if labels[j] == noise {
				labels[j] = cluster
			}
			if labels[j] != unvisited {
				continue
			}
			labels[j] = cluster
			if nb := regionQuery(rows, j, eps); len(nb) >= minSamples {
				seeds = append(seeds, nb...)
			}
		}
	}

	for i, l := range labels {
		if l == noise {
			out.Add(ids[i])
		}
	}
	s.log.Debug("dbscan: rows=%d clusters=%d noise=%d", len(rows), cluster, out.Len())
	return out, nil
}

func regionQuery(rows [][]float64, i int, eps float64) []int {
	var out []int
	for j := range rows {
		if floats.Distance(rows[i], rows[j], 2) <= eps {
			out = append(out, j)
		}
	}
	return out
}

// LOF flags the contamination share of rows with the highest local outlier
// factor over their k nearest neighbours, k = min(nNeighbors, n-1).
func (s *Suite) LOF(t *table.Table, refs []table.ColumnRef, nNeighbors int, contamination float64) (table.RowSet, error) {
	cols, err := oracle.RequireNumericAll(t, refs)
	if err != nil {
		return nil, err
	}
	rows, ids := matrix(t, cols)
	n := len(rows)
	if n < 2 {
		return nil, core.NewInsufficientDataError("local outlier factor", "at least two complete rows are required")
	}
	k := nNeighbors
	if k > n-1 {
		k = n - 1
	}
	if k < 1 {
		k = 1
	}

	dist := make([][]float64, n)
	for i := range rows {
		dist[i] = make([]float64, n)
		for j := range rows {
			dist[i][j] = floats.Distance(rows[i], rows[j], 2)
		}
	}

	neighbours := make([][]int, n)
	kdist := make([]float64, n)
	for i := range rows {
		others := make([]int, 0, n-1)
		for j := range rows {
			if j != i {
				others = append(others, j)
			}
		}
		sort.SliceStable(others, func(a, b int) bool { return dist[i][others[a]] < dist[i][others[b]] })
		neighbours[i] = others[:k]
		kdist[i] = dist[i][others[k-1]]
	}

	lrd := make([]float64, n)
	for i := range rows {
		var reach float64
		for _, j := range neighbours[i] {
			if kdist[j] > dist[i][j] {
				reach += kdist[j]
			} else {
				reach += dist[i][j]
			}
		}
		lrd[i] = 1 / (reach/float64(k) + lofEpsilon)
	}

	scores := make([]float64, n)
	for i := range rows {
		var sum float64
		for _, j := range neighbours[i] {
			sum += lrd[j]
		}
		scores[i] = sum / float64(k) / lrd[i]
	}

	out := flagAbove(scores, ids, contamination)
	s.log.Debug("lof: rows=%d k=%d flagged=%d", n, k, out.Len())
	return out, nil
}
