package extractor

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/Aashish23092/ocr-document-filing/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractGSTFromPredictions(t *testing.T) {
	e := Default()

	rec, err := e.Extract("gst", FromPredictions(dto.PredictionList{
		{Label: "gstin", Text: "22AAAAA0000A1Z5"},
		{Label: "total_amount", Text: "₹1,000"},
	}), "")
	require.NoError(t, err)

	assert.Equal(t, "22AAAAA0000A1Z5", rec.String("gstin"))
	assert.Equal(t, 1000.0, rec.Number("totalAmount"))
	assert.Equal(t, 0.0, rec.Number("cgst"))
	assert.Equal(t, 0.0, rec.Number("sgst"))
	assert.Equal(t, "NULL", rec.String("ctin"))
	assert.Equal(t, "", rec.String("invoiceDate"))
	assert.Equal(t, "", rec.String("email"))
	assert.ElementsMatch(t, []string{"cgst", "sgst"}, rec.Defaulted())
}

func TestExtractEveryDeclaredFieldIsPresent(t *testing.T) {
	e := Default()

	for _, s := range []*Schema{GST, ITR, EPF} {
		for _, in := range []Input{FromPredictions(nil), FromPredictions(dto.PredictionList{}), FromText("")} {
			rec, err := e.Extract(s.Category, in, "")
			require.NoError(t, err)

			m := rec.Map()
			for _, f := range s.Fields {
				if f.Group == "" {
					assert.Contains(t, m, f.Name, "%s.%s", s.Category, f.Name)
					continue
				}
				group, ok := m[f.Group].(map[string]any)
				require.True(t, ok, "%s.%s", s.Category, f.Group)
				assert.Contains(t, group, f.Name)
			}
		}
	}
}

func TestExtractNumericFieldsAreAlwaysNumbers(t *testing.T) {
	rec, err := Default().Extract("itr", FromPredictions(dto.PredictionList{
		{Label: "gross_total_income", Text: "Rs. 7,50,000"},
		{Label: "gross_taxable_income", Text: "n/a"},
		{Label: "net_tax_payable", Text: ""},
	}), "")
	require.NoError(t, err)

	for _, path := range ITR.NumericFields() {
		v, ok := rec.Get(path)
		require.True(t, ok)
		assert.Equal(t, KindNumber, v.Kind)
	}
	assert.Equal(t, 750000.0, rec.Number("grossTotalIncome"))
	assert.Equal(t, 0.0, rec.Number("grossTaxableIncome"))
	assert.ElementsMatch(t, []string{"grossTaxableIncome", "netTaxPayable"}, rec.Defaulted())
}

func TestExtractStringValuesAreUnmodified(t *testing.T) {
	rec, err := Default().Extract("itr", FromPredictions(dto.PredictionList{
		{Label: "address_employer", Text: "  Acme Pvt Ltd,\nMG Road  "},
		{Label: "period_from", Text: "01-Apr-2023"},
		{Label: "period_to", Text: "31-Mar-2024"},
	}), "")
	require.NoError(t, err)

	assert.Equal(t, "  Acme Pvt Ltd,\nMG Road  ", rec.String("addressEmployer"))
	assert.Equal(t, "01-Apr-2023", rec.String("period.from"))
	assert.Equal(t, "31-Mar-2024", rec.String("period.to"))
}

func TestExtractFirstDuplicateLabelWins(t *testing.T) {
	rec, err := Default().Extract("epf", FromPredictions(dto.PredictionList{
		{Label: "trrn_no", Text: "111"},
		{Label: "trrn_no", Text: "222"},
	}), "")
	require.NoError(t, err)

	assert.Equal(t, "111", rec.String("trrnNo"))
}

func TestExtractCallerEmailWins(t *testing.T) {
	predictions := dto.PredictionList{{Label: "email", Text: "doc@example.com"}}

	rec, err := Default().Extract("gst", FromPredictions(predictions), "user@example.com")
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", rec.String("email"))

	rec, err = Default().Extract("gst", FromPredictions(predictions), "")
	require.NoError(t, err)
	assert.Equal(t, "doc@example.com", rec.String("email"))
}

func TestExtractEPFFromText(t *testing.T) {
	text := `EMPLOYEES PROVIDENT FUND ORGANISATION
TRRN No: 1234567890
Establishment ID: MHBAN0012345
Establishment Name: Acme Textiles
Wage Month: March 2024
Members: 42
Grand Total: 1,85,000`

	rec, err := Default().Extract("epf", FromText(text), "")
	require.NoError(t, err)

	assert.Equal(t, "1234567890", rec.String("trrnNo"))
	assert.Equal(t, "mhban0012345", rec.String("establishmentId"))
	assert.Equal(t, "acme textiles", rec.String("establishmentName"))
	assert.Equal(t, "march 2024", rec.String("wageMonth"))
	assert.Equal(t, 42.0, rec.Number("member"))
	// numeric shape stops at the first grouping comma
	assert.Equal(t, 1.0, rec.Number("totalAmount"))
}

func TestExtractTextFieldsStopAtLineEnd(t *testing.T) {
	text := "establishment name: acme textiles\nwage month: march 2024"

	rec, err := Default().Extract("epf", FromText(text), "")
	require.NoError(t, err)

	assert.Equal(t, "acme textiles", rec.String("establishmentName"))
}

func TestExtractGSTFromText(t *testing.T) {
	text := `TAX INVOICE
GSTIN: 29ABCDE1234F1Z5
Invoice Date: 12/05/2023
Place of Supply: Karnataka
CGST: 450
SGST: 450
Total Amount: 5900
Email: billing@acme.in`

	rec, err := Default().Extract("gst", FromText(text), "")
	require.NoError(t, err)

	assert.Equal(t, "29abcde1234f1z5", rec.String("gstin"))
	assert.Equal(t, "12/05/2023", rec.String("invoiceDate"))
	assert.Equal(t, "karnataka", rec.String("placeOfSupply"))
	assert.Equal(t, 450.0, rec.Number("cgst"))
	assert.Equal(t, 450.0, rec.Number("sgst"))
	assert.Equal(t, 5900.0, rec.Number("totalAmount"))
	assert.Equal(t, "NULL", rec.String("ctin"))
	assert.Equal(t, "billing@acme.in", rec.String("email"))
}

func TestExtractUnknownCategory(t *testing.T) {
	_, err := Default().Extract("payslip", FromText("x"), "")
	require.Error(t, err)

	assert.True(t, errors.Is(err, dto.ErrUnknownCategory))
	var extErr *dto.ExtractionError
	require.True(t, errors.As(err, &extErr))
	assert.Equal(t, "payslip", extErr.Category)
}

func TestExtractWithoutInputIsMalformed(t *testing.T) {
	_, err := Default().Extract("gst", Input{}, "")
	assert.True(t, errors.Is(err, dto.ErrMalformedResponse))
}

func TestSchemaAliases(t *testing.T) {
	e := Default()
	for alias, want := range map[string]string{
		"GST":        "gst",
		"gst_filing": "gst",
		"itr_filing": "itr",
		"pf":         "epf",
		"pf_filing":  "epf",
	} {
		s, err := e.Schema(alias)
		require.NoError(t, err, alias)
		assert.Equal(t, want, s.Category)
	}
}

func TestSchemaAccepts(t *testing.T) {
	assert.True(t, GST.Accepts("GST Filing"))
	assert.False(t, GST.Accepts("PF Filing"))
	assert.True(t, ITR.Accepts("ITR Filing"))
	assert.True(t, EPF.Accepts("PF Filing"))
	assert.False(t, EPF.Accepts(dto.UnknownDocumentType))
}

func TestRecordMarshalJSONKeepsSchemaOrder(t *testing.T) {
	rec, err := Default().Extract("itr", FromPredictions(dto.PredictionList{
		{Label: "pan_no", Text: "ABCDE1234F"},
		{Label: "period_from", Text: "2023-04-01"},
	}), "me@example.com")
	require.NoError(t, err)

	data, err := json.Marshal(rec)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"panNo": "ABCDE1234F",
		"tan": "",
		"addressEmployee": "",
		"addressEmployer": "",
		"grossTotalIncome": 0,
		"grossTaxableIncome": 0,
		"netTaxPayable": 0,
		"period": {"from": "2023-04-01", "to": ""},
		"email": "me@example.com"
	}`, string(data))
	assert.Regexp(t, `^\{"panNo":.*"period":\{"from":"2023-04-01","to":""\},"email":"me@example.com"\}$`, string(data))
}

func TestNewSchemaRejectsDuplicates(t *testing.T) {
	_, err := NewSchema("x", nil, nil,
		Field{Name: "a", Label: "a"},
		Field{Name: "a", Label: "b"},
	)
	assert.Error(t, err)
}

func TestAddingCategoryIsData(t *testing.T) {
	payslip := MustSchema("payslip", nil, []string{"salary"},
		Field{Name: "employee", Label: "employee_name", Shape: ShapeText, Synonyms: []string{`employee\s*name`}},
		Field{Name: "netPay", Label: "net_pay", Kind: KindNumber, Shape: ShapeNumber, Synonyms: []string{`net\s*pay`}},
	)
	e := New(payslip)

	rec, err := e.Extract("payslip", FromText("Employee Name: Ravi Kumar\nNet Pay: 50000"), "")
	require.NoError(t, err)
	assert.Equal(t, "ravi kumar", rec.String("employee"))
	assert.Equal(t, 50000.0, rec.Number("netPay"))
}
