package dto

import "fmt"

// Prediction is one labeled text span returned by the document labeling service.
type Prediction struct {
	Label      string   `json:"label"`
	Text       string   `json:"ocr_text"`
	Confidence *float64 `json:"score,omitempty"`
}

// PredictionList is the ordered set of predictions for a single document.
type PredictionList []Prediction

// LabelFileResponse mirrors the labeling service's LabelFile payload.
type LabelFileResponse struct {
	Message string            `json:"message"`
	Result  []LabelFileResult `json:"result"`
}

type LabelFileResult struct {
	Message    string         `json:"message"`
	Input      string         `json:"input"`
	Prediction PredictionList `json:"prediction"`
}

// Predictions returns the prediction list of the first result. A payload
// without a result or prediction list is malformed.
func (r *LabelFileResponse) Predictions() (PredictionList, error) {
	if r == nil || len(r.Result) == 0 {
		return nil, fmt.Errorf("%w: response has no result", ErrMalformedResponse)
	}
	if r.Result[0].Prediction == nil {
		return nil, fmt.Errorf("%w: result has no prediction list", ErrMalformedResponse)
	}
	return r.Result[0].Prediction, nil
}
