package extractor

import (
	"strings"

	"github.com/Aashish23092/ocr-document-filing/dto"
	"github.com/Aashish23092/ocr-document-filing/utils"
)

type mode int

const (
	modeNone mode = iota
	modeStructured
	modeText
)

// Input is what the upstream collaborators returned for a document: either
// a prediction list or recognized text.
type Input struct {
	mode        mode
	predictions dto.PredictionList
	text        string
}

// FromPredictions selects structured mode.
func FromPredictions(p dto.PredictionList) Input {
	return Input{mode: modeStructured, predictions: p}
}

// FromText selects unstructured mode. The text is normalized first.
func FromText(text string) Input {
	return Input{mode: modeText, text: utils.NormalizeText(text)}
}

// Extractor holds the registered category schemas. It is immutable and
// safe for concurrent use.
type Extractor struct {
	schemas map[string]*Schema
	order   []string
}

// New registers schemas under their category name and aliases.
func New(schemas ...*Schema) *Extractor {
	e := &Extractor{schemas: make(map[string]*Schema)}
	for _, s := range schemas {
		e.schemas[s.Category] = s
		for _, a := range s.Aliases {
			e.schemas[strings.ToLower(a)] = s
		}
		e.order = append(e.order, s.Category)
	}
	return e
}

// Default returns an Extractor with the GST, ITR and EPF schemas.
func Default() *Extractor {
	return New(GST, ITR, EPF)
}

// Categories returns the registered category names.
func (e *Extractor) Categories() []string {
	out := make([]string, len(e.order))
	copy(out, e.order)
	return out
}

// Schema resolves a category name or alias.
func (e *Extractor) Schema(category string) (*Schema, error) {
	s, ok := e.schemas[strings.ToLower(strings.TrimSpace(category))]
	if !ok {
		return nil, categoryError(category)
	}
	return s, nil
}

// Extract builds the category record from in. callerEmail, when set, takes
// precedence over any email found in the document. The only failures are
// structural: an unknown category or an input with no content mode.
func (e *Extractor) Extract(category string, in Input, callerEmail string) (*Record, error) {
	s, err := e.Schema(category)
	if err != nil {
		return nil, err
	}

	var source func(i int, f Field) (string, bool)
	switch in.mode {
	case modeStructured:
		idx := NewPredictionIndex(in.predictions)
		source = func(_ int, f Field) (string, bool) {
			p, ok := idx.Lookup(f.Label)
			return p.Text, ok
		}
	case modeText:
		source = func(i int, _ Field) (string, bool) {
			re := s.patterns[i]
			if re == nil {
				return "", false
			}
			m := re.FindStringSubmatch(in.text)
			if len(m) < 2 {
				return "", false
			}
			return strings.TrimSpace(m[1]), true
		}
	default:
		return nil, dto.NewExtractionError(dto.ErrMalformedResponse, s.Category,
			"no predictions or text to extract from", nil)
	}

	rec := newRecord(s)
	for i, f := range s.Fields {
		raw, found := source(i, f)
		if f.Identity && callerEmail != "" {
			raw, found = callerEmail, true
		}
		rec.set(f, fieldValue(f, raw, found))
	}
	return rec, nil
}

func fieldValue(f Field, raw string, found bool) Value {
	if f.Kind == KindNumber {
		n, ok := utils.ParseAmount(raw)
		return Value{Kind: KindNumber, Number: n, Defaulted: !ok}
	}
	if !found {
		raw = f.Default
	}
	return Value{Kind: KindString, Text: raw}
}
