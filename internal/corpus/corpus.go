// Package corpus turns raw disease/symptom tables into training examples and the
// vocabulary of known symptoms.
package corpus

import (
	"errors"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/Skufu/symptomdx/internal/dataset"
)

var (
	ErrNoDiseaseColumn = errors.New("dataset has no Disease column")
	ErrNoSymptomColumn = errors.New("dataset has no Symptom_<n> columns")
	ErrEmptyCorpus     = errors.New("dataset produced no training examples")
)

const DiseaseColumn = "Disease"

var symptomColumnRe = regexp.MustCompile(`(?i)^symptom_(\d+)$`)

// Example is one training pair derived from a dataset row.
type Example struct {
	Text    string
	Disease string
}

// Stats describes what happened to the rows of a table.
type Stats struct {
	Rows             int
	SymptomColumns   int
	NoSymptoms       int
	MissingDisease   int
	ExamplesProduced int
}

// Corpus is the immutable output of Build.
type Corpus struct {
	Examples   []Example
	Vocabulary Vocabulary
	Stats      Stats
}

// Texts returns the symptom text of every example, in order.
func (c *Corpus) Texts() []string {
	out := make([]string, len(c.Examples))
	for i, ex := range c.Examples {
		out[i] = ex.Text
	}
	return out
}

// Labels returns the disease label of every example, in order.
func (c *Corpus) Labels() []string {
	out := make([]string, len(c.Examples))
	for i, ex := range c.Examples {
		out[i] = ex.Disease
	}
	return out
}

// Build normalises every row of t. Symptom columns are whatever Symptom_<n>
// headers the table carries, read in ascending <n> order.
func Build(t *dataset.Table) (*Corpus, error) {
	diseaseIdx := t.Column(DiseaseColumn)
	if diseaseIdx < 0 {
		return nil, ErrNoDiseaseColumn
	}
	symptomIdx := symptomColumns(t.Header)
	if len(symptomIdx) == 0 {
		return nil, ErrNoSymptomColumn
	}

	c := &Corpus{
		Vocabulary: Vocabulary{set: make(map[string]struct{})},
		Stats:      Stats{Rows: len(t.Rows), SymptomColumns: len(symptomIdx)},
	}

	for _, row := range t.Rows {
		var symptoms []string
		for _, idx := range symptomIdx {
			raw, ok := dataset.Cell(row, idx)
			if !ok {
				continue
			}
			if tok, ok := Token(raw); ok {
				symptoms = append(symptoms, tok)
			}
		}
		if len(symptoms) == 0 {
			c.Stats.NoSymptoms++
			continue
		}

		rawDisease, _ := dataset.Cell(row, diseaseIdx)
		disease, ok := Token(rawDisease)
		if !ok {
			c.Stats.MissingDisease++
			continue
		}

		for _, s := range symptoms {
			c.Vocabulary.set[s] = struct{}{}
		}
		c.Examples = append(c.Examples, Example{
			Text:    strings.Join(symptoms, " "),
			Disease: disease,
		})
	}

	c.Stats.ExamplesProduced = len(c.Examples)
	if len(c.Examples) == 0 {
		return nil, ErrEmptyCorpus
	}
	return c, nil
}

func symptomColumns(header []string) []int {
	type col struct {
		idx, n int
	}
	var cols []col
	for i, h := range header {
		m := symptomColumnRe.FindStringSubmatch(strings.TrimSpace(h))
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		cols = append(cols, col{idx: i, n: n})
	}
	sort.SliceStable(cols, func(a, b int) bool { return cols[a].n < cols[b].n })

	out := make([]int, len(cols))
	for i, c := range cols {
		out[i] = c.idx
	}
	return out
}
