// Package textvec implements a bag-of-words count vectoriser.
//
// Terms are runs of two or more letters, digits, combining marks or underscores,
// lower-cased. Feature indices follow the alphabetical order of the terms seen by
// Fit. Transform ignores terms Fit never saw: callers that must reject unknown
// input have to filter before vectorising.
package textvec

import (
	"errors"
	"regexp"
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"
)

var ErrNotFitted = errors.New("vectorizer is not fitted")

var termRe = regexp.MustCompile(`[\p{L}\p{N}\p{M}_]{2,}`)

// Tokenize splits text into lower-cased terms.
func Tokenize(text string) []string {
	return termRe.FindAllString(strings.ToLower(text), -1)
}

// CountVectorizer maps texts to term-count vectors.
type CountVectorizer struct {
	index map[string]int
	terms []string
}

// Fit learns the term vocabulary from texts. It returns an error when no text
// yields a term.
func (v *CountVectorizer) Fit(texts []string) error {
	seen := make(map[string]struct{})
	for _, text := range texts {
		for _, term := range Tokenize(text) {
			seen[term] = struct{}{}
		}
	}
	if len(seen) == 0 {
		return errors.New("empty vocabulary: texts contain no terms")
	}

	terms := make([]string, 0, len(seen))
	for t := range seen {
		terms = append(terms, t)
	}
	sort.Strings(terms)

	index := make(map[string]int, len(terms))
	for i, t := range terms {
		index[t] = i
	}
	v.terms = terms
	v.index = index
	return nil
}

// FitTransform is Fit followed by Transform on the same texts.
func (v *CountVectorizer) FitTransform(texts []string) (*mat.Dense, error) {
	if err := v.Fit(texts); err != nil {
		return nil, err
	}
	return v.Transform(texts)
}

// Transform returns a len(texts) x Features() count matrix.
func (v *CountVectorizer) Transform(texts []string) (*mat.Dense, error) {
	if v.index == nil {
		return nil, ErrNotFitted
	}
	if len(texts) == 0 {
		return nil, errors.New("no texts to transform")
	}
	m := mat.NewDense(len(texts), len(v.terms), nil)
	for i, text := range texts {
		for _, term := range Tokenize(text) {
			if j, ok := v.index[term]; ok {
				m.Set(i, j, m.At(i, j)+1)
			}
		}
	}
	return m, nil
}

// Vector transforms a single text.
func (v *CountVectorizer) Vector(text string) ([]float64, error) {
	m, err := v.Transform([]string{text})
	if err != nil {
		return nil, err
	}
	return mat.Row(nil, 0, m), nil
}

// Features is the number of learned terms.
func (v *CountVectorizer) Features() int { return len(v.terms) }

// Terms returns the learned terms in feature-index order.
func (v *CountVectorizer) Terms() []string {
	return append([]string(nil), v.terms...)
}
