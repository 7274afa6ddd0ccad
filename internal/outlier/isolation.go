package outlier

import (
	"math"
	"math/rand"

	"gomend/domain/core"
	"gomend/domain/table"
	"gomend/internal/oracle"
)

const (
	isolationTrees     = 100
	isolationMaxSample = 256
	eulerGamma         = 0.5772156649015329
)

type isoNode struct {
	feature     int
	split       float64
	left, right *isoNode
	size        int
}

func (n *isoNode) leaf() bool { return n.left == nil }

// IsolationForest flags the contamination share of rows that random
// partitioning isolates fastest. Trees are grown from the suite seed, so
// repeated runs over the same data agree.
func (s *Suite) IsolationForest(t *table.Table, refs []table.ColumnRef, contamination float64) (table.RowSet, error) {
	cols, err := oracle.RequireNumericAll(t, refs)
	if err != nil {
		return nil, err
	}
	rows, ids := matrix(t, cols)
	if len(rows) < 2 {
		return nil, core.NewInsufficientDataError("isolation forest", "at least two complete rows are required")
	}

	rng := s.rng.Stream(string(MethodIsolationForest), s.defaults.Seed)
	psi := len(rows)
	if psi > isolationMaxSample {
		psi = isolationMaxSample
	}
	limit := int(math.Ceil(math.Log2(float64(psi))))

	trees := make([]*isoNode, isolationTrees)
	for i := range trees {
		sample := rng.Perm(len(rows))[:psi]
		trees[i] = growIsoTree(rows, sample, 0, limit, rng)
	}

	norm := averagePathLength(psi)
	scores := make([]float64, len(rows))
	for i, row := range rows {
		var total float64
		for _, tree := range trees {
			total += pathLength(tree, row, 0)
		}
		scores[i] = math.Pow(2, -(total/float64(len(trees)))/norm)
	}

	out := flagAbove(scores, ids, contamination)
	s.log.Debug("isolation forest: rows=%d psi=%d flagged=%d", len(rows), psi, out.Len())
	return out, nil
}

func growIsoTree(rows [][]float64, sample []int, depth, limit int, rng *rand.Rand) *isoNode {
	if depth >= limit || len(sample) <= 1 {
		return &isoNode{size: len(sample)}
	}

	// pick a random feature that still varies within the sample
	p := len(rows[0])
	for _, f := range rng.Perm(p) {
		lo, hi := rows[sample[0]][f], rows[sample[0]][f]
		for _, i := range sample[1:] {
			lo = math.Min(lo, rows[i][f])
			hi = math.Max(hi, rows[i][f])
		}
		if lo == hi {
			continue
		}

		split := lo + rng.Float64()*(hi-lo)
		var left, right []int
		for _, i := range sample {
			if rows[i][f] < split {
				left = append(left, i)
			} else {
				right = append(right, i)
			}
		}
		return &isoNode{
			feature: f,
			split:   split,
			left:    growIsoTree(rows, left, depth+1, limit, rng),
			right:   growIsoTree(rows, right, depth+1, limit, rng),
			size:    len(sample),
		}
	}
	return &isoNode{size: len(sample)}
}

func pathLength(n *isoNode, row []float64, depth int) float64 {
	for !n.leaf() {
		if row[n.feature] < n.split {
			n = n.left
		} else {
			n = n.right
		}
		depth++
	}
	return float64(depth) + averagePathLength(n.size)
}

// averagePathLength is the expected path length of an unsuccessful search in
// a binary search tree of n nodes.
func averagePathLength(n int) float64 {
	switch {
	case n <= 1:
		return 0
	case n == 2:
		return 1
	}
	fn := float64(n)
	return 2*(math.Log(fn-1)+eulerGamma) - 2*(fn-1)/fn
}
