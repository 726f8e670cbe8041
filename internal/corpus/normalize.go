package corpus

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// missingMarkers mirrors the values pandas reads as NA by default.
var missingMarkers = map[string]struct{}{
	"":         {},
	"#N/A":     {},
	"#N/A N/A": {},
	"#NA":      {},
	"-1.#IND":  {},
	"-1.#QNAN": {},
	"-NaN":     {},
	"-nan":     {},
	"1.#IND":   {},
	"1.#QNAN":  {},
	"<NA>":     {},
	"N/A":      {},
	"NA":       {},
	"NULL":     {},
	"NaN":      {},
	"None":     {},
	"n/a":      {},
	"nan":      {},
	"null":     {},
}

// Normalize trims, NFC-normalises and lower-cases a symptom or disease cell.
func Normalize(s string) string {
	return strings.ToLower(norm.NFC.String(strings.TrimSpace(s)))
}

// IsMissing reports whether a raw cell should be treated as absent.
func IsMissing(raw string) bool {
	_, ok := missingMarkers[strings.TrimSpace(raw)]
	return ok
}

// Token normalises a raw cell, returning false when it is missing or blank.
func Token(raw string) (string, bool) {
	if IsMissing(raw) {
		return "", false
	}
	tok := Normalize(raw)
	if tok == "" {
		return "", false
	}
	return tok, true
}
