// Package diagnosis holds the trained model, the ready/uninitialized service
// state, and the HTTP handlers that serve predictions.
package diagnosis

import (
	"errors"
	"strings"

	"github.com/Skufu/symptomdx/internal/corpus"
)

var (
	ErrNotInitialized  = errors.New("model not initialized")
	ErrNoSymptoms      = errors.New("no symptoms provided")
	ErrNoValidSymptoms = errors.New("no valid symptoms")
)

// MaxResults bounds the number of ranked diseases in a diagnosis.
const MaxResults = 5

type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "high"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceLow    ConfidenceLevel = "low"
)

// LevelFor buckets a probability: high above 0.7, medium above 0.4, else low.
func LevelFor(p float64) ConfidenceLevel {
	switch {
	case p > 0.7:
		return ConfidenceHigh
	case p > 0.4:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

type Result struct {
	Disease         string          `json:"disease"`
	Confidence      float64         `json:"confidence"`
	ConfidenceLevel ConfidenceLevel `json:"confidence_level"`
}

type Diagnosis struct {
	Results              []Result `json:"results"`
	MatchedSymptoms      []string `json:"matched_symptoms"`
	UnrecognizedSymptoms []string `json:"unrecognized_symptoms"`
}

// Service is either ready (a model is present) or uninitialized. Its state is
// fixed at construction.
type Service struct {
	model    *Model
	setupErr error
}

func NewService(m *Model) *Service {
	if m == nil {
		return &Service{setupErr: ErrNotInitialized}
	}
	return &Service{model: m}
}

// Uninitialized records why setup failed.
func Uninitialized(err error) *Service {
	if err == nil {
		err = ErrNotInitialized
	}
	return &Service{setupErr: err}
}

func (s *Service) Ready() bool { return s != nil && s.model != nil }

// SetupError is nil when the service is ready.
func (s *Service) SetupError() error {
	if s.Ready() {
		return nil
	}
	if s == nil {
		return ErrNotInitialized
	}
	return s.setupErr
}

func (s *Service) Model() *Model {
	if !s.Ready() {
		return nil
	}
	return s.model
}

// Diagnose normalises and de-duplicates the symptoms, keeps those present in
// the vocabulary and classifies them. The classifier is only consulted when at
// least one symptom is recognised.
func (s *Service) Diagnose(symptoms []string) (*Diagnosis, error) {
	if !s.Ready() {
		return nil, ErrNotInitialized
	}

	input := normalizeInput(symptoms)
	if len(input) == 0 {
		return nil, ErrNoSymptoms
	}

	d := &Diagnosis{MatchedSymptoms: []string{}, UnrecognizedSymptoms: []string{}}
	vocab := s.model.Vocabulary()
	for _, sym := range input {
		if vocab.Contains(sym) {
			d.MatchedSymptoms = append(d.MatchedSymptoms, sym)
		} else {
			d.UnrecognizedSymptoms = append(d.UnrecognizedSymptoms, sym)
		}
	}
	if len(d.MatchedSymptoms) == 0 {
		return nil, ErrNoValidSymptoms
	}

	preds, err := s.model.Predict(d.MatchedSymptoms)
	if err != nil {
		return nil, err
	}
	if len(preds) > MaxResults {
		preds = preds[:MaxResults]
	}
	d.Results = make([]Result, len(preds))
	for i, p := range preds {
		d.Results[i] = Result{
			Disease:         p.Disease,
			Confidence:      p.Probability,
			ConfidenceLevel: LevelFor(p.Probability),
		}
	}
	return d, nil
}

func normalizeInput(symptoms []string) []string {
	seen := make(map[string]struct{}, len(symptoms))
	var out []string
	for _, raw := range symptoms {
		tok := corpus.Normalize(raw)
		if tok == "" {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	return out
}

// SplitSymptoms splits a comma-separated symptom string.
func SplitSymptoms(s string) []string {
	return strings.Split(s, ",")
}
