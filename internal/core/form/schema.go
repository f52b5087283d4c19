package form

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/invoice-autofill/internal/core/domain"
)

//go:embed bank_schema.yaml
var bankSchemaYAML []byte

type currencyEntry struct {
	Fields    []string             `yaml:"fields"`
	Recipient domain.RecipientSpec `yaml:"recipient"`
}

// Schema is the read-only currency -> required bank field table.
type Schema struct {
	entries map[string]currencyEntry
}

// InputField is one rendered bank identifier input.
type InputField struct {
	Name     string `json:"name"`
	Required bool   `json:"required"`
}

var defaultSchema = mustParseSchema(bankSchemaYAML)

// DefaultSchema returns the embedded table.
func DefaultSchema() *Schema {
	return defaultSchema
}

func ParseSchema(raw []byte) (*Schema, error) {
	entries := map[string]currencyEntry{}
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parse bank schema: %w", err)
	}
	normalized := make(map[string]currencyEntry, len(entries))
	for code, entry := range entries {
		for _, field := range entry.Fields {
			if !domain.IsBankField(field) {
				return nil, fmt.Errorf("bank schema %s: unknown field %q", code, field)
			}
		}
		normalized[strings.ToUpper(code)] = entry
	}
	return &Schema{entries: normalized}, nil
}

func mustParseSchema(raw []byte) *Schema {
	schema, err := ParseSchema(raw)
	if err != nil {
		panic(err)
	}
	return schema
}

// Currencies returns the configured currency codes sorted.
func (s *Schema) Currencies() []string {
	out := make([]string, 0, len(s.entries))
	for code := range s.entries {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

// RequiredFields returns a copy of the ordered field list; unknown currencies yield nil.
func (s *Schema) RequiredFields(currency string) []string {
	entry, ok := s.entries[strings.ToUpper(currency)]
	if !ok {
		return nil
	}
	return append([]string(nil), entry.Fields...)
}

// Render returns the input set for a currency, each marked required.
func (s *Schema) Render(currency string) []InputField {
	fields := s.RequiredFields(currency)
	out := make([]InputField, 0, len(fields))
	for _, name := range fields {
		out = append(out, InputField{Name: name, Required: true})
	}
	return out
}

func (s *Schema) Recipient(currency string) (domain.RecipientSpec, bool) {
	entry, ok := s.entries[strings.ToUpper(currency)]
	if !ok {
		return domain.RecipientSpec{}, false
	}
	return entry.Recipient, true
}

func (s *Schema) Supports(currency string) bool {
	_, ok := s.entries[strings.ToUpper(currency)]
	return ok
}
