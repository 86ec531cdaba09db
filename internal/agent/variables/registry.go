package variables

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed schema.yaml
var defaultSchemaYAML []byte

// Stage is the lifecycle phase of the tracked performance.
type Stage string

const (
	Planning Stage = "planning"
	Selling  Stage = "selling"
)

// ParseStage maps a detector label onto a Stage. Unknown labels resolve to
// Planning and report false.
func ParseStage(label string) (Stage, bool) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "기획", "planning", "plan":
		return Planning, true
	case "판매", "selling", "sales", "sale":
		return Selling, true
	default:
		return Planning, false
	}
}

// Kind classifies how a variable's value is represented.
type Kind int

const (
	KindUnknown Kind = iota
	KindNumeric
	KindDate
	KindCategorical
)

func (k Kind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindDate:
		return "date"
	case KindCategorical:
		return "categorical"
	default:
		return "unknown"
	}
}

// Categorical is a variable with a closed vocabulary.
type Categorical struct {
	Key    string   `yaml:"key"`
	Values []string `yaml:"values"`
}

type schemaFile struct {
	Numeric     []string            `yaml:"numeric"`
	Date        []string            `yaml:"date"`
	Categorical []Categorical       `yaml:"categorical"`
	Stages      map[string][]string `yaml:"stages"`
}

// Schema is the immutable variable registry. It is safe for concurrent use.
type Schema struct {
	numeric     []string
	date        []string
	categorical []Categorical
	stages      map[Stage][]string
	kinds       map[string]Kind
	keys        []string
}

// Parse decodes a YAML schema and validates it.
func Parse(data []byte) (*Schema, error) {
	var f schemaFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode variable schema: %w", err)
	}

	s := &Schema{
		numeric:     f.Numeric,
		date:        f.Date,
		categorical: f.Categorical,
		stages:      make(map[Stage][]string, len(f.Stages)),
		kinds:       make(map[string]Kind),
	}

	add := func(key string, kind Kind) error {
		if prev, ok := s.kinds[key]; ok {
			return fmt.Errorf("variable %q declared as both %s and %s", key, prev, kind)
		}
		s.kinds[key] = kind
		s.keys = append(s.keys, key)
		return nil
	}
	for _, k := range f.Numeric {
		if err := add(k, KindNumeric); err != nil {
			return nil, err
		}
	}
	for _, k := range f.Date {
		if err := add(k, KindDate); err != nil {
			return nil, err
		}
	}
	for _, c := range f.Categorical {
		if len(c.Values) == 0 {
			return nil, fmt.Errorf("categorical variable %q has no values", c.Key)
		}
		if err := add(c.Key, KindCategorical); err != nil {
			return nil, err
		}
	}

	for name, keys := range f.Stages {
		stage, ok := ParseStage(name)
		if !ok {
			return nil, fmt.Errorf("unknown stage %q", name)
		}
		for _, k := range keys {
			if _, ok := s.kinds[k]; !ok {
				return nil, fmt.Errorf("stage %s requires undeclared variable %q", stage, k)
			}
		}
		s.stages[stage] = keys
	}
	for _, st := range []Stage{Planning, Selling} {
		if len(s.stages[st]) == 0 {
			return nil, fmt.Errorf("stage %s has no required variables", st)
		}
	}
	selling := toSet(s.stages[Selling])
	for _, k := range s.stages[Planning] {
		if _, ok := selling[k]; !ok {
			return nil, fmt.Errorf("selling stage is missing planning variable %q", k)
		}
	}
	return s, nil
}

var (
	defaultOnce   sync.Once
	defaultSchema *Schema
)

// Default returns the embedded schema. It panics if the embedded file is
// invalid, which is a build defect.
func Default() *Schema {
	defaultOnce.Do(func() {
		s, err := Parse(defaultSchemaYAML)
		if err != nil {
			panic(err)
		}
		defaultSchema = s
	})
	return defaultSchema
}

// Keys lists every collectable variable: numeric, then date, then categorical.
func (s *Schema) Keys() []string {
	return append([]string(nil), s.keys...)
}

// NumericKeys lists the numeric variables.
func (s *Schema) NumericKeys() []string {
	return append([]string(nil), s.numeric...)
}

// DateKeys lists the date variables.
func (s *Schema) DateKeys() []string {
	return append([]string(nil), s.date...)
}

// Categoricals lists categorical variables with their vocabularies.
func (s *Schema) Categoricals() []Categorical {
	out := make([]Categorical, len(s.categorical))
	for i, c := range s.categorical {
		out[i] = Categorical{Key: c.Key, Values: append([]string(nil), c.Values...)}
	}
	return out
}

// Allowed reports whether key is part of the schema.
func (s *Schema) Allowed(key string) bool {
	_, ok := s.kinds[key]
	return ok
}

// KindOf returns the kind of key, or KindUnknown.
func (s *Schema) KindOf(key string) Kind {
	return s.kinds[key]
}

// StageKeys returns the ordered required keys for stage.
func (s *Schema) StageKeys(stage Stage) []string {
	keys, ok := s.stages[stage]
	if !ok {
		keys = s.stages[Planning]
	}
	return append([]string(nil), keys...)
}

// Missing returns the required keys for stage that are absent from collected,
// in stage order.
func (s *Schema) Missing(stage Stage, collected map[string]any) []string {
	var out []string
	for _, k := range s.StageKeys(stage) {
		if _, ok := collected[k]; !ok {
			out = append(out, k)
		}
	}
	return out
}

// NextMissing returns the first missing key for stage, or "" when complete.
func (s *Schema) NextMissing(stage Stage, collected map[string]any) string {
	for _, k := range s.StageKeys(stage) {
		if _, ok := collected[k]; !ok {
			return k
		}
	}
	return ""
}

func toSet(keys []string) map[string]struct{} {
	m := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		m[k] = struct{}{}
	}
	return m
}
