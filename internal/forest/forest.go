// Package forest implements a random-forest classifier: bootstrap-sampled CART
// trees split on Gini impurity, with class probabilities averaged across trees.
package forest

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var ErrFeatureMismatch = errors.New("feature vector length does not match training data")

// Options controls training. Zero values select the defaults noted per field.
type Options struct {
	Trees           int   // default 100
	MaxDepth        int   // 0 grows trees until leaves are pure
	MaxFeatures     int   // default floor(sqrt(features))
	MinSamplesSplit int   // default 2
	Seed            int64 // fixed seed gives reproducible forests
}

func (o Options) withDefaults(features int) Options {
	if o.Trees <= 0 {
		o.Trees = 100
	}
	if o.MaxFeatures <= 0 {
		o.MaxFeatures = int(math.Sqrt(float64(features)))
	}
	if o.MaxFeatures < 1 {
		o.MaxFeatures = 1
	}
	if o.MaxFeatures > features {
		o.MaxFeatures = features
	}
	if o.MinSamplesSplit < 2 {
		o.MinSamplesSplit = 2
	}
	return o
}

// Classifier is a fitted forest. It is safe for concurrent use.
type Classifier struct {
	classes  []string
	features int
	trees    []*tree
}

// Fit trains a forest on the rows of x labelled by labels.
func Fit(ctx context.Context, x mat.Matrix, labels []string, opts Options) (*Classifier, error) {
	rows, cols := x.Dims()
	if rows == 0 || cols == 0 {
		return nil, errors.New("empty training matrix")
	}
	if rows != len(labels) {
		return nil, fmt.Errorf("got %d rows but %d labels", rows, len(labels))
	}
	opts = opts.withDefaults(cols)

	classes, y := encodeLabels(labels)

	rng := rand.New(rand.NewSource(opts.Seed))
	seeds := make([]int64, opts.Trees)
	for i := range seeds {
		seeds[i] = rng.Int63()
	}

	trees := make([]*tree, opts.Trees)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range trees {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			b := &builder{
				x:           x,
				y:           y,
				nClasses:    len(classes),
				nFeatures:   cols,
				maxFeatures: opts.MaxFeatures,
				maxDepth:    opts.MaxDepth,
				minSplit:    opts.MinSamplesSplit,
				rng:         rand.New(rand.NewSource(seeds[i])),
			}
			trees[i] = b.build(bootstrap(b.rng, rows))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fit forest: %w", err)
	}

	return &Classifier{classes: classes, features: cols, trees: trees}, nil
}

// Classes returns the sorted class labels; PredictProba indexes follow this order.
func (c *Classifier) Classes() []string {
	return append([]string(nil), c.classes...)
}

// Trees is the number of fitted estimators.
func (c *Classifier) Trees() int { return len(c.trees) }

// PredictProba returns the mean of the per-tree leaf class fractions for one
// feature vector.
func (c *Classifier) PredictProba(features []float64) ([]float64, error) {
	if len(features) != c.features {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrFeatureMismatch, len(features), c.features)
	}
	proba := make([]float64, len(c.classes))
	for _, t := range c.trees {
		floats.Add(proba, t.leaf(features))
	}
	floats.Scale(1/float64(len(c.trees)), proba)
	return proba, nil
}

func encodeLabels(labels []string) ([]string, []int) {
	seen := make(map[string]struct{})
	for _, l := range labels {
		seen[l] = struct{}{}
	}
	classes := make([]string, 0, len(seen))
	for l := range seen {
		classes = append(classes, l)
	}
	sort.Strings(classes)

	index := make(map[string]int, len(classes))
	for i, c := range classes {
		index[c] = i
	}
	y := make([]int, len(labels))
	for i, l := range labels {
		y[i] = index[l]
	}
	return classes, y
}

func bootstrap(rng *rand.Rand, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = rng.Intn(n)
	}
	return out
}
