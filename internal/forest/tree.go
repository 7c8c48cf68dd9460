package forest

import (
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// featureThreshold is the smallest gap between two sorted feature values
// that still yields a split between them.
const featureThreshold = 1e-7

// Node is one node of a regression tree. Leaves have Left == -1.
type Node struct {
	Feature   int     `json:"f"`
	Threshold float64 `json:"t"`
	Left      int     `json:"l"`
	Right     int     `json:"r"`
	Value     float64 `json:"v"`
	Samples   int     `json:"n"`
}

// IsLeaf reports whether the node has no children.
func (n Node) IsLeaf() bool {
	return n.Left < 0
}

// Tree is a fitted regression tree stored as a flat node array; Nodes[0] is the root.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Predict walks x down the tree and returns the leaf value.
func (t *Tree) Predict(x []float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.IsLeaf() {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// Depth returns the length of the longest root-to-leaf path.
func (t *Tree) Depth() int {
	var walk func(i int) int
	walk = func(i int) int {
		n := t.Nodes[i]
		if n.IsLeaf() {
			return 0
		}
		return 1 + max(walk(n.Left), walk(n.Right))
	}
	return walk(0)
}

type treeBuilder struct {
	X         *mat.Dense
	y         []float64
	params    Params
	rng       *rand.Rand
	nFeatures int
	tree      *Tree

	// scratch buffer reused across split searches
	pairs []valuePair
}

type valuePair struct {
	x, y float64
}

// fitTree grows a tree on the rows listed in samples (duplicates allowed).
func fitTree(X *mat.Dense, y []float64, samples []int, p Params, rng *rand.Rand) *Tree {
	_, c := X.Dims()
	b := &treeBuilder{
		X:         X,
		y:         y,
		params:    p,
		rng:       rng,
		nFeatures: c,
		tree:      &Tree{},
		pairs:     make([]valuePair, len(samples)),
	}
	b.build(samples, 0)
	return b.tree
}

// build adds the node for samples and returns its index.
func (b *treeBuilder) build(samples []int, depth int) int {
	n := len(samples)
	var sum, sumSq float64
	for _, s := range samples {
		sum += b.y[s]
		sumSq += b.y[s] * b.y[s]
	}
	mean := sum / float64(n)
	impurity := sumSq/float64(n) - mean*mean

	idx := len(b.tree.Nodes)
	b.tree.Nodes = append(b.tree.Nodes, Node{Feature: -1, Left: -1, Right: -1, Value: mean, Samples: n})

	p := b.params
	if (p.MaxDepth > 0 && depth >= p.MaxDepth) ||
		n < p.MinSamplesSplit ||
		n < 2*p.MinSamplesLeaf ||
		impurity <= 1e-12 {
		return idx
	}

	feature, threshold, ok := b.bestSplit(samples, sum)
	if !ok {
		return idx
	}

	var left, right []int
	for _, s := range samples {
		if b.X.At(s, feature) <= threshold {
			left = append(left, s)
		} else {
			right = append(right, s)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return idx
	}

	l := b.build(left, depth+1)
	r := b.build(right, depth+1)
	b.tree.Nodes[idx].Feature = feature
	b.tree.Nodes[idx].Threshold = threshold
	b.tree.Nodes[idx].Left = l
	b.tree.Nodes[idx].Right = r
	return idx
}

// bestSplit searches candidate features for the threshold that minimises the
// children's summed squared error, which is the same as maximising
// sumL^2/nL + sumR^2/nR.
func (b *treeBuilder) bestSplit(samples []int, total float64) (int, float64, bool) {
	n := len(samples)
	leaf := b.params.MinSamplesLeaf

	features := b.rng.Perm(b.nFeatures)
	if mf := b.params.MaxFeatures; mf > 0 && mf < b.nFeatures {
		features = features[:mf]
	}

	bestFeature := -1
	bestThreshold := 0.0
	bestProxy := total * total / float64(n)
	found := false

	pairs := b.pairs[:n]
	for _, f := range features {
		for i, s := range samples {
			pairs[i] = valuePair{x: b.X.At(s, f), y: b.y[s]}
		}
		sort.Slice(pairs, func(i, j int) bool { return pairs[i].x < pairs[j].x })
		if pairs[n-1].x <= pairs[0].x+featureThreshold {
			continue
		}

		var leftSum float64
		for i := 1; i < n; i++ {
			leftSum += pairs[i-1].y
			if i < leaf || n-i < leaf {
				continue
			}
			if pairs[i].x <= pairs[i-1].x+featureThreshold {
				continue
			}
			rightSum := total - leftSum
			proxy := leftSum*leftSum/float64(i) + rightSum*rightSum/float64(n-i)
			if !found || proxy > bestProxy {
				found = true
				bestProxy = proxy
				bestFeature = f
				bestThreshold = (pairs[i-1].x + pairs[i].x) / 2
				if bestThreshold == pairs[i].x {
					bestThreshold = pairs[i-1].x
				}
			}
		}
	}
	return bestFeature, bestThreshold, found
}
