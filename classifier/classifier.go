// Package classifier assigns a document category by counting whole-word
// keyword hits in recognized text.
package classifier

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Aashish23092/ocr-document-filing/dto"
)

// Rule maps one trigger keyword to a category label. Several rules may
// share a label.
type Rule struct {
	Keyword string `yaml:"keyword"`
	Label   string `yaml:"label"`
}

// Config is the keyword bucket configuration. Rule order is significant:
// ties are broken in favour of the label registered first.
type Config struct {
	Rules   []Rule `yaml:"keywords"`
	Unknown string `yaml:"unknown"`
}

// DefaultConfig returns the buckets used when no keyword file is configured.
func DefaultConfig() Config {
	return Config{
		Rules: []Rule{
			{Keyword: "provident fund", Label: "PF Filing"},
			{Keyword: "supply", Label: "GST Filing"},
			{Keyword: "form no. 16", Label: "ITR Filing"},
		},
		Unknown: dto.UnknownDocumentType,
	}
}

// Score is the accumulated hit count for one label.
type Score struct {
	Label string
	Count int
}

type rule struct {
	pattern *regexp.Regexp
	label   int
}

// Classifier is immutable after New and safe for concurrent use.
type Classifier struct {
	rules   []rule
	labels  []string
	unknown string
}

// New compiles the keyword patterns in cfg.
func New(cfg Config) (*Classifier, error) {
	c := &Classifier{unknown: cfg.Unknown}
	if c.unknown == "" {
		c.unknown = dto.UnknownDocumentType
	}

	index := make(map[string]int)
	for i, r := range cfg.Rules {
		keyword := strings.TrimSpace(r.Keyword)
		if keyword == "" {
			return nil, fmt.Errorf("rule %d: keyword is empty", i)
		}
		if r.Label == "" {
			return nil, fmt.Errorf("rule %d (%q): label is empty", i, keyword)
		}
		if r.Label == c.unknown {
			return nil, fmt.Errorf("rule %d (%q): label %q is reserved", i, keyword, c.unknown)
		}

		pattern, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(keyword) + `\b`)
		if err != nil {
			return nil, fmt.Errorf("rule %d (%q): %w", i, keyword, err)
		}

		li, ok := index[r.Label]
		if !ok {
			li = len(c.labels)
			index[r.Label] = li
			c.labels = append(c.labels, r.Label)
		}
		c.rules = append(c.rules, rule{pattern: pattern, label: li})
	}

	return c, nil
}

// Labels returns the configured labels in registration order.
func (c *Classifier) Labels() []string {
	out := make([]string, len(c.labels))
	copy(out, c.labels)
	return out
}

// Unknown returns the fallback label.
func (c *Classifier) Unknown() string {
	return c.unknown
}

// Scores counts keyword hits per label, in registration order.
func (c *Classifier) Scores(text string) []Score {
	scores := make([]Score, len(c.labels))
	for i, l := range c.labels {
		scores[i].Label = l
	}
	if text == "" {
		return scores
	}
	for _, r := range c.rules {
		scores[r.label].Count += len(r.pattern.FindAllStringIndex(text, -1))
	}
	return scores
}

// Classify returns the label with the most keyword hits, or the unknown
// label when nothing matched.
func (c *Classifier) Classify(text string) string {
	scores := c.Scores(text)

	best, total := -1, 0
	for i, s := range scores {
		total += s.Count
		if best < 0 || s.Count > scores[best].Count {
			best = i
		}
	}

	if total == 0 {
		return c.unknown
	}
	return scores[best].Label
}
