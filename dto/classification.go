package dto

const (
	// UnknownDocumentType is returned when no configured keyword matches.
	UnknownDocumentType = "Unknown Document Type"

	// NoDateFound is returned when no date pattern matches.
	NoDateFound = "No Date Found"
)

// ClassificationResult is the output of the classification-only path.
type ClassificationResult struct {
	Classification string `json:"classification"`
	Date           string `json:"date"`
}

// TextClassifyRequest carries already recognized text.
type TextClassifyRequest struct {
	Text string `json:"text"`
}

// TextExtractRequest carries already recognized text and an optional caller identity.
type TextExtractRequest struct {
	Text  string `json:"text"`
	Email string `json:"email"`
}
