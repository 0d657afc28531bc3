package extractor

import "github.com/Aashish23092/ocr-document-filing/dto"

// PredictionIndex maps each label to its first prediction.
type PredictionIndex struct {
	list  dto.PredictionList
	index map[string]int
}

// NewPredictionIndex builds the lookup table once per list. Later
// duplicates of a label are ignored.
func NewPredictionIndex(list dto.PredictionList) *PredictionIndex {
	idx := &PredictionIndex{
		list:  list,
		index: make(map[string]int, len(list)),
	}
	for i, p := range list {
		if _, ok := idx.index[p.Label]; !ok {
			idx.index[p.Label] = i
		}
	}
	return idx
}

// Lookup returns the first prediction with label.
func (idx *PredictionIndex) Lookup(label string) (dto.Prediction, bool) {
	i, ok := idx.index[label]
	if !ok {
		return dto.Prediction{}, false
	}
	return idx.list[i], true
}

// Text returns the text of the first prediction with label, or "" when absent.
func (idx *PredictionIndex) Text(label string) string {
	p, _ := idx.Lookup(label)
	return p.Text
}

// Len is the number of distinct labels.
func (idx *PredictionIndex) Len() int {
	return len(idx.index)
}
