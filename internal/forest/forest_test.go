package forest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// features: fever, cough, sneezing, itching
func fixture() (*mat.Dense, []string) {
	x := mat.NewDense(6, 4, []float64{
		1, 1, 0, 0,
		1, 0, 0, 0,
		1, 1, 0, 0,
		0, 0, 1, 1,
		0, 1, 1, 0,
		0, 0, 1, 1,
	})
	return x, []string{"flu", "flu", "flu", "allergy", "allergy", "allergy"}
}

func TestFitClasses(t *testing.T) {
	x, y := fixture()
	c, err := Fit(context.Background(), x, y, Options{Trees: 10, Seed: 1})
	require.NoError(t, err)

	assert.Equal(t, []string{"allergy", "flu"}, c.Classes())
	assert.Equal(t, 10, c.Trees())
}

func TestPredictProbaSumsToOne(t *testing.T) {
	x, y := fixture()
	c, err := Fit(context.Background(), x, y, Options{Seed: 7})
	require.NoError(t, err)

	for _, v := range [][]float64{{1, 1, 0, 0}, {0, 0, 1, 1}, {0, 0, 0, 0}, {1, 1, 1, 1}} {
		p, err := c.PredictProba(v)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, floats.Sum(p), 1e-9)
		for _, pi := range p {
			assert.GreaterOrEqual(t, pi, 0.0)
		}
	}
}

func TestPredictProbaSeparatesClasses(t *testing.T) {
	x, y := fixture()
	c, err := Fit(context.Background(), x, y, Options{Seed: 3})
	require.NoError(t, err)

	p, err := c.PredictProba([]float64{1, 1, 0, 0})
	require.NoError(t, err)
	assert.Greater(t, p[1], p[0], "flu-like vector should favour flu")

	p, err = c.PredictProba([]float64{0, 0, 1, 1})
	require.NoError(t, err)
	assert.Greater(t, p[0], p[1], "allergy-like vector should favour allergy")
}

func TestFitIsDeterministicForSeed(t *testing.T) {
	x, y := fixture()
	a, err := Fit(context.Background(), x, y, Options{Trees: 25, Seed: 42})
	require.NoError(t, err)
	b, err := Fit(context.Background(), x, y, Options{Trees: 25, Seed: 42})
	require.NoError(t, err)

	v := []float64{0, 1, 0, 0}
	pa, err := a.PredictProba(v)
	require.NoError(t, err)
	pb, err := b.PredictProba(v)
	require.NoError(t, err)
	assert.Equal(t, pa, pb)

	again, err := a.PredictProba(v)
	require.NoError(t, err)
	assert.Equal(t, pa, again)
}

func TestSingleClass(t *testing.T) {
	x := mat.NewDense(2, 1, []float64{1, 0})
	c, err := Fit(context.Background(), x, []string{"flu", "flu"}, Options{Trees: 3})
	require.NoError(t, err)

	p, err := c.PredictProba([]float64{0})
	require.NoError(t, err)
	require.Len(t, p, 1)
	assert.InDelta(t, 1.0, p[0], 1e-12)
}

func TestMaxDepthLimitsTrees(t *testing.T) {
	x, y := fixture()
	c, err := Fit(context.Background(), x, y, Options{Trees: 5, MaxDepth: 1, Seed: 2})
	require.NoError(t, err)
	for _, tr := range c.trees {
		assert.LessOrEqual(t, len(tr.nodes), 3)
	}
}

func TestFitErrors(t *testing.T) {
	x, _ := fixture()
	_, err := Fit(context.Background(), x, []string{"flu"}, Options{})
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Fit(ctx, x, []string{"a", "a", "a", "b", "b", "b"}, Options{Trees: 4})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPredictProbaFeatureMismatch(t *testing.T) {
	x, y := fixture()
	c, err := Fit(context.Background(), x, y, Options{Trees: 2})
	require.NoError(t, err)

	_, err = c.PredictProba([]float64{1})
	assert.ErrorIs(t, err, ErrFeatureMismatch)
}

func TestGini(t *testing.T) {
	assert.InDelta(t, 0.5, gini([]float64{2, 2}, 4), 1e-12)
	assert.InDelta(t, 0.0, gini([]float64{0, 3}, 3), 1e-12)
}
