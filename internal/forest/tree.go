package forest

import (
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const leafFeature = -1

type node struct {
	feature     int
	threshold   float64
	left, right int
	dist        []float64 // class fractions, leaves only
}

type tree struct {
	nodes []node
}

// leaf walks from the root and returns the class distribution of the reached leaf.
func (t *tree) leaf(features []float64) []float64 {
	i := 0
	for {
		n := &t.nodes[i]
		if n.feature == leafFeature {
			return n.dist
		}
		if features[n.feature] <= n.threshold {
			i = n.left
		} else {
			i = n.right
		}
	}
}

type builder struct {
	x           mat.Matrix
	y           []int
	nClasses    int
	nFeatures   int
	maxFeatures int
	maxDepth    int
	minSplit    int
	rng         *rand.Rand
	nodes       []node
}

func (b *builder) build(samples []int) *tree {
	b.grow(samples, 0)
	return &tree{nodes: b.nodes}
}

func (b *builder) grow(samples []int, depth int) int {
	counts := b.classCounts(samples)
	idx := len(b.nodes)
	b.nodes = append(b.nodes, node{feature: leafFeature})

	if isPure(counts) || len(samples) < b.minSplit || (b.maxDepth > 0 && depth >= b.maxDepth) {
		b.nodes[idx].dist = fractions(counts)
		return idx
	}

	feature, threshold, ok := b.bestSplit(samples)
	if !ok {
		b.nodes[idx].dist = fractions(counts)
		return idx
	}

	var left, right []int
	for _, s := range samples {
		if b.x.At(s, feature) <= threshold {
			left = append(left, s)
		} else {
			right = append(right, s)
		}
	}

	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	b.nodes[idx].feature = feature
	b.nodes[idx].threshold = threshold
	b.nodes[idx].left = l
	b.nodes[idx].right = r
	return idx
}

type point struct {
	value float64
	class int
}

// bestSplit visits features in random order until maxFeatures non-constant
// features have been scored, and returns the lowest weighted Gini split.
func (b *builder) bestSplit(samples []int) (int, float64, bool) {
	var (
		bestFeature   = -1
		bestThreshold float64
		bestImpurity  = 2.0
		visited       int
	)
	points := make([]point, len(samples))
	leftCounts := make([]float64, b.nClasses)
	rightCounts := make([]float64, b.nClasses)
	n := float64(len(samples))

	for _, f := range b.rng.Perm(b.nFeatures) {
		if visited >= b.maxFeatures {
			break
		}
		for i, s := range samples {
			points[i] = point{value: b.x.At(s, f), class: b.y[s]}
		}
		sort.Slice(points, func(i, j int) bool { return points[i].value < points[j].value })
		if points[0].value == points[len(points)-1].value {
			continue
		}
		visited++

		for c := range leftCounts {
			leftCounts[c] = 0
			rightCounts[c] = 0
		}
		for _, p := range points {
			rightCounts[p.class]++
		}
		for i := 0; i < len(points)-1; i++ {
			leftCounts[points[i].class]++
			rightCounts[points[i].class]--
			if points[i].value == points[i+1].value {
				continue
			}
			nl := float64(i + 1)
			nr := n - nl
			impurity := (nl*gini(leftCounts, nl) + nr*gini(rightCounts, nr)) / n
			if impurity < bestImpurity {
				bestImpurity = impurity
				bestFeature = f
				bestThreshold = (points[i].value + points[i+1].value) / 2
			}
		}
	}
	return bestFeature, bestThreshold, bestFeature >= 0
}

func (b *builder) classCounts(samples []int) []float64 {
	counts := make([]float64, b.nClasses)
	for _, s := range samples {
		counts[b.y[s]]++
	}
	return counts
}

func gini(counts []float64, n float64) float64 {
	sum := 0.0
	for _, c := range counts {
		p := c / n
		sum += p * p
	}
	return 1 - sum
}

func isPure(counts []float64) bool {
	nonZero := 0
	for _, c := range counts {
		if c > 0 {
			nonZero++
		}
	}
	return nonZero <= 1
}

func fractions(counts []float64) []float64 {
	dist := append([]float64(nil), counts...)
	floats.Scale(1/floats.Sum(dist), dist)
	return dist
}
