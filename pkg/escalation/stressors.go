package escalation

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// StressorRule maps a set of keywords to one stressor tag. Matching is
// case-insensitive substring matching, kept deliberately simple so every
// tag a clinician sees can be traced back to the words that produced it.
type StressorRule struct {
	Tag      string   `yaml:"tag" json:"tag"`
	Keywords []string `yaml:"keywords" json:"keywords"`
}

type Lexicon struct {
	Rules []StressorRule `yaml:"rules" json:"rules"`
}

// LoadLexicon reads stressor rules from a YAML file, falling back to the
// built-in lexicon when no path is given.
func LoadLexicon(path string) (*Lexicon, error) {
	if path == "" {
		return DefaultLexicon(), nil
	}
	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	var lex Lexicon
	if err := yaml.Unmarshal(content, &lex); err != nil {
		return nil, err
	}
	if len(lex.Rules) == 0 {
		return nil, errors.New("no stressor rules configured")
	}
	return &lex, nil
}

// DefaultLexicon covers the common stressor vocabulary of the diary corpus,
// which is written in Portuguese.
func DefaultLexicon() *Lexicon {
	return &Lexicon{Rules: []StressorRule{
		{Tag: "stress", Keywords: []string{"estresse", "estressado", "estressada", "pressão", "sobrecarga"}},
		{Tag: "conflict", Keywords: []string{"conflito", "briga", "discussão", "brigamos"}},
		{Tag: "loss", Keywords: []string{"perda", "luto", "faleceu", "saudade"}},
		{Tag: "financial", Keywords: []string{"dívida", "dívidas", "desemprego", "demitido", "demitida"}},
		{Tag: "sleep", Keywords: []string{"insônia", "sem dormir", "exausto", "exausta"}},
		{Tag: "isolation", Keywords: []string{"sozinho", "sozinha", "solidão", "isolado", "isolada"}},
	}}
}

// Detect scans the given texts and returns the stressor tags found,
// collapsed to a sorted set.
func (l *Lexicon) Detect(texts []string) []string {
	found := make(map[string]struct{})
	for _, text := range texts {
		lowered := strings.ToLower(text)
		for _, rule := range l.Rules {
			for _, keyword := range rule.Keywords {
				if keyword != "" && strings.Contains(lowered, keyword) {
					found[rule.Tag] = struct{}{}
					break
				}
			}
		}
	}

	tags := make([]string, 0, len(found))
	for tag := range found {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}
