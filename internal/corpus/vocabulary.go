package corpus

import "sort"

// Vocabulary is the set of symptom tokens seen in training rows.
type Vocabulary struct {
	set map[string]struct{}
}

// NewVocabulary builds a vocabulary from already-raw tokens.
func NewVocabulary(tokens ...string) Vocabulary {
	v := Vocabulary{set: make(map[string]struct{}, len(tokens))}
	for _, t := range tokens {
		if tok, ok := Token(t); ok {
			v.set[tok] = struct{}{}
		}
	}
	return v
}

// Contains normalises raw before looking it up.
func (v Vocabulary) Contains(raw string) bool {
	_, ok := v.set[Normalize(raw)]
	return ok
}

func (v Vocabulary) Len() int { return len(v.set) }

// Sorted returns the tokens in ascending order.
func (v Vocabulary) Sorted() []string {
	out := make([]string, 0, len(v.set))
	for s := range v.set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
