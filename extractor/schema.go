// Package extractor turns labeling-service predictions or raw OCR text into
// typed, category-specific field records.
package extractor

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Aashish23092/ocr-document-filing/dto"
)

// Kind is the output type of a field.
type Kind int

const (
	KindString Kind = iota
	KindNumber
)

// Shape is the value pattern a field is captured with in unstructured text.
type Shape int

const (
	ShapeIdentifier Shape = iota
	ShapeText
	ShapeNumber
	ShapeLabel
	ShapeDate
	ShapeEmail
)

// Free text and labels stop at the end of the line.
var shapePatterns = map[Shape]string{
	ShapeIdentifier: `[a-z0-9]+`,
	ShapeText:       `[a-z \t]+`,
	ShapeNumber:     `\d+`,
	ShapeLabel:      `[a-z0-9 \t]+`,
	ShapeDate:       `\d{1,4}[/\-.]\d{1,2}[/\-.]\d{2,4}`,
	ShapeEmail:      `[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}`,
}

// Field declares one output key of a category record.
type Field struct {
	// Name is the output key. Grouped fields are nested under Group.
	Name  string
	Group string

	// Label is the prediction label the value is projected from.
	Label string

	Kind  Kind
	Shape Shape

	// Default replaces a missing string value.
	Default string

	// Identity fields are overridden by a caller-supplied identity.
	Identity bool

	// Synonyms are regexp fragments naming the field in unstructured text.
	Synonyms []string
}

// Path is the dotted key of the field, e.g. "period.from".
func (f Field) Path() string {
	if f.Group == "" {
		return f.Name
	}
	return f.Group + "." + f.Name
}

// Schema is the declarative field table of one document category.
type Schema struct {
	Category string
	Aliases  []string

	// AcceptTerms are substrings a classification label must contain for a
	// document to be accepted as this category.
	AcceptTerms []string

	Fields []Field

	patterns []*regexp.Regexp
}

// NewSchema validates fields and compiles their unstructured-text patterns.
func NewSchema(category string, aliases, acceptTerms []string, fields ...Field) (*Schema, error) {
	s := &Schema{
		Category:    strings.ToLower(category),
		Aliases:     aliases,
		AcceptTerms: acceptTerms,
		Fields:      fields,
		patterns:    make([]*regexp.Regexp, len(fields)),
	}

	seen := make(map[string]bool)
	for i, f := range fields {
		if f.Name == "" {
			return nil, fmt.Errorf("%s: field %d has no name", category, i)
		}
		if seen[f.Path()] {
			return nil, fmt.Errorf("%s: duplicate field %q", category, f.Path())
		}
		seen[f.Path()] = true

		if len(f.Synonyms) == 0 {
			continue
		}
		shape, ok := shapePatterns[f.Shape]
		if !ok {
			return nil, fmt.Errorf("%s: field %q has unknown shape %d", category, f.Path(), f.Shape)
		}
		expr := `(?i)\b(?:` + strings.Join(f.Synonyms, "|") + `)\s*:\s*(` + shape + `)`
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("%s: field %q: %w", category, f.Path(), err)
		}
		s.patterns[i] = re
	}

	return s, nil
}

// MustSchema is NewSchema for package-level tables.
func MustSchema(category string, aliases, acceptTerms []string, fields ...Field) *Schema {
	s, err := NewSchema(category, aliases, acceptTerms, fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// Accepts reports whether a classification label is compatible with the category.
func (s *Schema) Accepts(label string) bool {
	l := strings.ToLower(label)
	for _, term := range s.AcceptTerms {
		if strings.Contains(l, term) {
			return true
		}
	}
	return false
}

// NumericFields returns the paths of the fields normalized to numbers.
func (s *Schema) NumericFields() []string {
	var out []string
	for _, f := range s.Fields {
		if f.Kind == KindNumber {
			out = append(out, f.Path())
		}
	}
	return out
}

var emailField = Field{
	Name:     "email",
	Label:    "email",
	Shape:    ShapeEmail,
	Identity: true,
	Synonyms: []string{`e-?mail(?:\s*id)?`},
}

// GST is the GST tax invoice schema.
var GST = MustSchema("gst", []string{"gst_filing", "gst filing"}, []string{"gst", "invoice", "tax"},
	Field{Name: "gstin", Label: "gstin", Shape: ShapeIdentifier,
		Synonyms: []string{`gstin(?:/uin)?`, `gst\s*(?:no|number)`}},
	Field{Name: "invoiceDate", Label: "invoice_date", Shape: ShapeDate,
		Synonyms: []string{`invoice\s*date`, `dated`}},
	Field{Name: "placeOfSupply", Label: "place_of_supply", Shape: ShapeText,
		Synonyms: []string{`place\s*of\s*supply`}},
	Field{Name: "address", Label: "address", Shape: ShapeText,
		Synonyms: []string{`address`}},
	Field{Name: "cgst", Label: "cgst_amount", Kind: KindNumber, Shape: ShapeNumber,
		Synonyms: []string{`cgst(?:\s*amount)?`}},
	Field{Name: "sgst", Label: "sgst_amount", Kind: KindNumber, Shape: ShapeNumber,
		Synonyms: []string{`sgst(?:\s*amount)?`}},
	Field{Name: "totalAmount", Label: "total_amount", Kind: KindNumber, Shape: ShapeNumber,
		Synonyms: []string{`total\s*amount`, `grand\s*total`, `total\s*invoice\s*value`}},
	Field{Name: "ctin", Label: "ctin", Shape: ShapeIdentifier, Default: "NULL",
		Synonyms: []string{`ctin`, `buyer\s*gstin`}},
	emailField,
)

// ITR is the income tax return / Form 16 schema.
var ITR = MustSchema("itr", []string{"itr_filing", "itr filing"}, []string{"itr", "income tax", "form 16"},
	Field{Name: "panNo", Label: "pan_no", Shape: ShapeIdentifier,
		Synonyms: []string{`pan(?:\s*(?:no|number))?(?:\s*of\s*(?:the\s*)?employee)?`}},
	Field{Name: "tan", Label: "tan", Shape: ShapeIdentifier,
		Synonyms: []string{`tan(?:\s*(?:no|number))?(?:\s*of\s*(?:the\s*)?deductor)?`}},
	Field{Name: "addressEmployee", Label: "address_employee", Shape: ShapeText,
		Synonyms: []string{`address\s*of\s*(?:the\s*)?employee`}},
	Field{Name: "addressEmployer", Label: "address_employer", Shape: ShapeText,
		Synonyms: []string{`address\s*of\s*(?:the\s*)?employer`}},
	Field{Name: "grossTotalIncome", Label: "gross_total_income", Kind: KindNumber, Shape: ShapeNumber,
		Synonyms: []string{`gross\s*total\s*income`}},
	Field{Name: "grossTaxableIncome", Label: "gross_taxable_income", Kind: KindNumber, Shape: ShapeNumber,
		Synonyms: []string{`gross\s*taxable\s*income`, `total\s*taxable\s*income`}},
	Field{Name: "netTaxPayable", Label: "net_tax_payable", Kind: KindNumber, Shape: ShapeNumber,
		Synonyms: []string{`net\s*tax\s*payable`}},
	Field{Name: "from", Group: "period", Label: "period_from", Shape: ShapeDate,
		Synonyms: []string{`period\s*from`}},
	Field{Name: "to", Group: "period", Label: "period_to", Shape: ShapeDate,
		Synonyms: []string{`period\s*to`}},
	emailField,
)

// EPF is the provident fund ECR / challan schema.
var EPF = MustSchema("epf", []string{"pf", "pf_filing", "pf filing", "epf_filing"}, []string{"epf", "pf", "provident"},
	Field{Name: "trrnNo", Label: "trrn_no", Shape: ShapeNumber,
		Synonyms: []string{`trrn?\s*no`}},
	Field{Name: "establishmentId", Label: "establishment_id", Shape: ShapeIdentifier,
		Synonyms: []string{`establishment\s*id`}},
	Field{Name: "establishmentName", Label: "establishment_name", Shape: ShapeText,
		Synonyms: []string{`establishment\s*name`}},
	Field{Name: "wageMonth", Label: "wage_month", Shape: ShapeLabel,
		Synonyms: []string{`wage\s*month`}},
	Field{Name: "member", Label: "member", Kind: KindNumber, Shape: ShapeNumber,
		Synonyms: []string{`members`, `subscribers`}},
	Field{Name: "totalAmount", Label: "total_amount", Kind: KindNumber, Shape: ShapeNumber,
		Synonyms: []string{`grand\s*total`, `total\s*amount`}},
	emailField,
)

// categoryError builds the error returned for an unregistered category.
func categoryError(category string) error {
	return dto.NewExtractionError(dto.ErrUnknownCategory, category,
		fmt.Sprintf("unsupported document category %q", category), nil)
}
