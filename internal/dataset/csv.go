package dataset

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-resty/resty/v2"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
)

var ErrEmptyDataset = errors.New("dataset is empty")

// CSVSource reads a CSV file from a local path or an http(s) URL.
type CSVSource struct {
	Path     string
	Encoding string // IANA name; empty means UTF-8

	// Client is used for URL paths; a default client is created when nil.
	Client *resty.Client
	// Retries and RetryBase bound URL download retries.
	Retries   uint64
	RetryBase time.Duration
}

func (s *CSVSource) Load(ctx context.Context) (*Table, error) {
	raw, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	text, err := Decode(raw, s.Encoding)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.Path, err)
	}
	t, err := ParseCSV(bytes.NewReader(text))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.Path, err)
	}
	return t, nil
}

func (s *CSVSource) read(ctx context.Context) ([]byte, error) {
	if isURL(s.Path) {
		return s.download(ctx)
	}
	raw, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	return raw, nil
}

func isURL(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// Decode converts raw bytes in the named encoding to UTF-8. UTF-8 input must be
// valid; a leading byte order mark is dropped.
func Decode(raw []byte, encoding string) ([]byte, error) {
	name := strings.ToLower(strings.TrimSpace(encoding))
	if name == "" || name == "utf-8" || name == "utf8" {
		if !utf8.Valid(raw) {
			return nil, errors.New("input is not valid utf-8")
		}
		return unicode.UTF8BOM.NewDecoder().Bytes(raw)
	}

	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", encoding, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("unsupported encoding %q", encoding)
	}
	return enc.NewDecoder().Bytes(raw)
}

// ParseCSV reads a header row followed by data rows. Rows may have fewer or more
// cells than the header.
func ParseCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyDataset
	}
	if err != nil {
		return nil, err
	}

	t := &Table{Header: header}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		t.Rows = append(t.Rows, rec)
	}
	return t, nil
}
