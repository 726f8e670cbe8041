package diagnosis

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/Skufu/symptomdx/internal/corpus"
	"github.com/Skufu/symptomdx/internal/forest"
	"github.com/Skufu/symptomdx/internal/textvec"
)

// Prediction is one disease with its probability in [0, 1].
type Prediction struct {
	Disease     string
	Probability float64
}

// Model pairs the fitted vectoriser and forest with the symptom vocabulary.
// It is never modified after Train returns.
type Model struct {
	vectorizer *textvec.CountVectorizer
	forest     *forest.Classifier
	vocab      corpus.Vocabulary
	examples   int
}

// Train fits a vectoriser and a forest on c.
func Train(ctx context.Context, c *corpus.Corpus, opts forest.Options) (*Model, error) {
	vec := &textvec.CountVectorizer{}
	x, err := vec.FitTransform(c.Texts())
	if err != nil {
		return nil, fmt.Errorf("vectorize corpus: %w", err)
	}
	f, err := forest.Fit(ctx, x, c.Labels(), opts)
	if err != nil {
		return nil, err
	}
	return &Model{
		vectorizer: vec,
		forest:     f,
		vocab:      c.Vocabulary,
		examples:   len(c.Examples),
	}, nil
}

// Predict classifies the space-joined symptoms and returns every known disease,
// most probable first. Equal probabilities are ordered by disease name.
// Terms the vectoriser never saw are ignored.
func (m *Model) Predict(symptoms []string) ([]Prediction, error) {
	vec, err := m.vectorizer.Vector(strings.Join(symptoms, " "))
	if err != nil {
		return nil, err
	}
	proba, err := m.forest.PredictProba(vec)
	if err != nil {
		return nil, err
	}

	classes := m.forest.Classes()
	out := make([]Prediction, len(classes))
	for i, c := range classes {
		out[i] = Prediction{Disease: c, Probability: proba[i]}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Probability != out[j].Probability {
			return out[i].Probability > out[j].Probability
		}
		return out[i].Disease < out[j].Disease
	})
	return out, nil
}

func (m *Model) Vocabulary() corpus.Vocabulary { return m.vocab }

func (m *Model) Diseases() []string { return m.forest.Classes() }

func (m *Model) Examples() int { return m.examples }

func (m *Model) Features() int { return m.vectorizer.Features() }
